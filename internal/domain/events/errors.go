package events

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")

	// Creación: los tres stores fallaron. Escribir en cero stores sí es un
	// fallo duro; en >=1 es éxito parcial y va en el CreationResult.
	ErrAllStoresFailed = errors.New("all stores failed")

	// Lectura: los tres stores devolvieron error de transporte/disponibilidad.
	// Distinto de un evento legítimamente inexistente.
	ErrAllStoresUnavailable = errors.New("all stores unavailable")

	// Lectura: los tres stores respondieron limpio "no existe".
	ErrNotFoundAnywhere = errors.New("not found in any store")
)

// StoreReason clasifica el fallo de un store individual.
type StoreReason string

const (
	ReasonTimeout     StoreReason = "timeout"
	ReasonUnavailable StoreReason = "unavailable"
	ReasonRejected    StoreReason = "rejected"
)

// StoreError envuelve el fallo de un store concreto con su clasificación.
type StoreError struct {
	Store  Kind
	Reason StoreReason
	Err    error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Store, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", e.Store, e.Reason, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError construye un *StoreError; helper para los adapters.
func NewStoreError(store Kind, reason StoreReason, err error) *StoreError {
	return &StoreError{Store: store, Reason: reason, Err: err}
}

// reasonOf extrae la clasificación de un error de store; cualquier error no
// tipado se trata como unavailable.
func reasonOf(err error) StoreReason {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Reason
	}
	return ReasonUnavailable
}
