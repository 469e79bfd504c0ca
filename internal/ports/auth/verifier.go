package auth

import "context"

// Claims es la identidad extraída de una firma de wallet verificada.
type Claims struct {
	Address string // dirección on-chain del usuario
}

// WalletVerifier verifica un token de sesión firmado por wallet y devuelve
// claims o error.
type WalletVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}
