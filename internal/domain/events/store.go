package events

import "context"

// StoreAdapter es el contrato uniforme que cumplen los tres stores (ledger,
// database, object store). El core se escribe una sola vez contra esta
// interfaz y se testea con stubs; el backend concreto es intercambiable.
//
// Contrato:
//   - Write debe traducir condiciones nativas de "ya existe"/"duplicado" en
//     éxito con la referencia existente (Receipt.AlreadyExisted), para que los
//     reintentos sean idempotentes.
//   - Read devuelve Found=false solo cuando el store respondió limpio que no
//     hay registro; un problema de transporte es error, no not-found.
type StoreAdapter interface {
	Kind() Kind
	Write(ctx context.Context, rec EventRecord) (Receipt, error)
	Read(ctx context.Context, id string) (ReadResult, error)
}
