// Package canonical produce JSON canónico (RFC 8785 / JCS) y hashes de
// contenido sha256. Misma entrada => mismos bytes => mismo hash, sin importar
// qué proceso serializó; esa es la base del direccionamiento por contenido
// del object store.
package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// Marshal serializa v a JSON canónico.
func Marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonical: marshal: %w", err)
	}
	b, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonical: jcs transform: %w", err)
	}
	return b, nil
}

// Hash devuelve el sha256 hex de los bytes.
func Hash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// HashOf canonicaliza y hashea en un paso. Devuelve también los bytes
// canónicos para que el caller los persista tal cual fueron hasheados.
func HashOf(v any) (string, []byte, error) {
	b, err := Marshal(v)
	if err != nil {
		return "", nil, err
	}
	return Hash(b), b, nil
}
