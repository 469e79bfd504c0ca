// Package wallet verifica tokens de sesión firmados por wallet contra el
// servicio de auth (el que emitió el challenge y validó la firma). La
// criptografía de la firma vive en ese servicio; acá solo se consulta.
package wallet

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"ticketchain/internal/platform/httpclient"
	"ticketchain/internal/ports/auth"
)

var (
	ErrNotConfigured = errors.New("wallet verifier not configured")
	ErrUnauthorized  = errors.New("wallet token rejected")
	ErrUpstream      = errors.New("wallet auth upstream error")
)

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type Verifier struct {
	http   *httpclient.Client
	apiKey string
}

func NewVerifier(cfg Config) (*Verifier, error) {
	hc, err := httpclient.NewWithBaseURL(cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return &Verifier{http: hc, apiKey: strings.TrimSpace(cfg.APIKey)}, nil
}

func (v *Verifier) IsConfigured() bool {
	return v != nil && v.http != nil && v.http.BaseURL != ""
}

// Verify valida el token de sesión y devuelve la dirección de la wallet.
func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if !v.IsConfigured() {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrUnauthorized
	}

	headers := map[string]string{"Authorization": "Bearer " + token}
	if v.apiKey != "" {
		headers["X-Api-Key"] = v.apiKey
	}

	var out struct {
		Address string `json:"address"`
	}
	err := v.http.DoJSON(ctx, http.MethodPost, "/v1/sessions/verify", headers,
		map[string]string{"token": token}, &out)
	if err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) &&
			(httpErr.StatusCode == http.StatusUnauthorized || httpErr.StatusCode == http.StatusForbidden) {
			return auth.Claims{}, ErrUnauthorized
		}
		return auth.Claims{}, errors.Join(ErrUpstream, err)
	}

	out.Address = strings.TrimSpace(out.Address)
	if out.Address == "" {
		return auth.Claims{}, errors.New("wallet auth response missing address")
	}

	return auth.Claims{Address: out.Address}, nil
}
