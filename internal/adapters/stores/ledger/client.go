// Package ledger implementa el StoreAdapter del ledger contra el gateway
// HTTP que firma y envía las transacciones al contrato. El cliente RPC crudo
// de la chain vive detrás del gateway; acá solo se habla JSON.
package ledger

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"ticketchain/internal/platform/httpclient"
)

var ErrNotConfigured = errors.New("ledger gateway not configured")

// Config del cliente del gateway. BaseURL y APIKey normalmente vienen de env
// vars en quien lo instancia.
type Config struct {
	BaseURL string
	APIKey  string

	// Opcional: header de la API key. Vacío => "X-Api-Key".
	APIKeyHeader string

	Timeout time.Duration
}

type Client struct {
	http         *httpclient.Client
	apiKey       string
	apiKeyHeader string
}

func NewClient(cfg Config) (*Client, error) {
	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "X-Api-Key"
	}

	hc, err := httpclient.NewWithBaseURL(cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}

	return &Client{
		http:         hc,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		apiKeyHeader: h,
	}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.http != nil && c.http.BaseURL != ""
}

type submitRequest struct {
	ID             string `json:"id"`
	CreatorAddress string `json:"creator_address"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	TicketPrice    int64  `json:"ticket_price"`
	MaxCapacity    int    `json:"max_capacity"`
}

type submitResponse struct {
	ChainID    string `json:"chain_id"`
	Contract   string `json:"contract"`
	EventIndex uint64 `json:"event_index"`
	TxHash     string `json:"tx_hash"`

	// Existing: el contrato ya tenía el evento; no se minó otra transacción.
	Existing bool `json:"existing"`
}

type eventResponse struct {
	ID             string `json:"id"`
	CreatorAddress string `json:"creator_address"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	TicketPrice    int64  `json:"ticket_price"`
	MaxCapacity    int    `json:"max_capacity"`

	ChainID    string `json:"chain_id"`
	Contract   string `json:"contract"`
	EventIndex uint64 `json:"event_index"`
	TxHash     string `json:"tx_hash"`
}

func (c *Client) headers() map[string]string {
	if c.apiKey == "" {
		return nil
	}
	return map[string]string{c.apiKeyHeader: c.apiKey}
}

func (c *Client) submit(ctx context.Context, req submitRequest) (submitResponse, error) {
	var out submitResponse
	err := c.http.DoJSON(ctx, http.MethodPost, "/v1/events", c.headers(), req, &out)
	return out, err
}

func (c *Client) get(ctx context.Context, id string) (eventResponse, error) {
	var out eventResponse
	err := c.http.DoJSON(ctx, http.MethodGet, "/v1/events/"+id, c.headers(), nil, &out)
	return out, err
}
