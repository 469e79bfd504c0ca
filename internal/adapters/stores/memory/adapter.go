// Package memory implementa los tres StoreAdapter contra mapas en memoria.
// Es el backend del modo dev y el doble de test del core: permite inyectar
// fallos y latencia, y cuenta llamadas para asserts.
package memory

import (
	"context"
	"sync"
	"time"

	"ticketchain/internal/domain/events"
	"ticketchain/internal/platform/canonical"
)

const (
	devChainID  = "tc-dev"
	devContract = "0x00000000000000000000000000000000000ec0de"
)

type Adapter struct {
	kind events.Kind

	mu        sync.Mutex
	byID      map[string]events.EventRecord
	corrupted map[string]bool
	nextIndex uint64

	writeErr   error
	readErr    error
	writeDelay time.Duration

	writeCalls int
	readCalls  int
}

func newAdapter(kind events.Kind) *Adapter {
	return &Adapter{
		kind:      kind,
		byID:      make(map[string]events.EventRecord),
		corrupted: make(map[string]bool),
	}
}

func NewLedger() *Adapter      { return newAdapter(events.KindLedger) }
func NewDatabase() *Adapter    { return newAdapter(events.KindDatabase) }
func NewObjectStore() *Adapter { return newAdapter(events.KindObjectStore) }

func (a *Adapter) Kind() events.Kind { return a.kind }

// FailWrites hace que todo Write devuelva err (nil lo desactiva).
func (a *Adapter) FailWrites(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.writeErr = err
}

// FailReads hace que todo Read devuelva err (nil lo desactiva).
func (a *Adapter) FailReads(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.readErr = err
}

// SetWriteDelay agrega latencia artificial antes de cada Write.
func (a *Adapter) SetWriteDelay(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.writeDelay = d
}

func (a *Adapter) WriteCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.writeCalls
}

func (a *Adapter) ReadCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.readCalls
}

// Seed mete un registro directo, sin contar la llamada ni asignar refs.
// Para armar escenarios de divergencia en tests.
func (a *Adapter) Seed(rec events.EventRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.byID[rec.ID] = rec
}

// Get devuelve la copia cruda guardada (para asserts).
func (a *Adapter) Get(id string) (events.EventRecord, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	rec, ok := a.byID[id]
	return rec, ok
}

// CorruptContent marca el blob de un id para que Read reporte hash mismatch.
// Solo tiene sentido en el adapter de objectstore.
func (a *Adapter) CorruptContent(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.corrupted[id] = true
}

func (a *Adapter) Write(ctx context.Context, rec events.EventRecord) (events.Receipt, error) {
	a.mu.Lock()
	delay := a.writeDelay
	a.writeCalls++
	if err := a.writeErr; err != nil {
		a.mu.Unlock()
		return events.Receipt{}, err
	}
	a.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return events.Receipt{}, ctx.Err()
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.kind {
	case events.KindLedger:
		return a.writeLedger(rec)
	case events.KindDatabase:
		return a.writeDatabase(rec)
	default:
		return a.writeObjectStore(rec)
	}
}

// writeLedger emula la inmutabilidad on-chain: si el id ya tiene transacción,
// devuelve la ref existente sin minar otra.
func (a *Adapter) writeLedger(rec events.EventRecord) (events.Receipt, error) {
	if prev, ok := a.byID[rec.ID]; ok {
		if prev.LedgerRef != nil {
			ref := *prev.LedgerRef
			return events.Receipt{Store: a.kind, LedgerRef: &ref, AlreadyExisted: true}, nil
		}
		// sembrado sin transacción: se mina recién ahora
		rec = prev
	}

	ref := &events.LedgerRef{
		ChainID:    devChainID,
		Contract:   devContract,
		EventIndex: a.nextIndex,
		TxHash:     "0x" + canonical.Hash([]byte("tx:"+rec.ID)),
	}
	a.nextIndex++

	rec.LedgerRef = ref
	a.byID[rec.ID] = rec

	out := *ref
	return events.Receipt{Store: a.kind, LedgerRef: &out}, nil
}

func (a *Adapter) writeDatabase(rec events.EventRecord) (events.Receipt, error) {
	prev, existed := a.byID[rec.ID]
	if existed {
		rec.Revision = prev.Revision + 1
	} else {
		rec.Revision = 1
	}
	a.byID[rec.ID] = rec

	return events.Receipt{Store: a.kind, Revision: rec.Revision, AlreadyExisted: existed}, nil
}

func (a *Adapter) writeObjectStore(rec events.EventRecord) (events.Receipt, error) {
	hash, _, err := canonical.HashOf(metadataFor(rec))
	if err != nil {
		return events.Receipt{}, err
	}

	ref := &events.ObjectStoreRef{
		Metadata: events.BlobRef{Hash: hash, URL: "memory://blobs/" + hash},
	}
	if rec.ObjectRef != nil && rec.ObjectRef.Banner != nil {
		banner := *rec.ObjectRef.Banner
		ref.Banner = &banner
	}

	_, existed := a.byID[rec.ID]
	rec.ObjectRef = ref
	a.byID[rec.ID] = rec
	delete(a.corrupted, rec.ID)

	out := *ref
	return events.Receipt{Store: a.kind, ObjectRef: &out, AlreadyExisted: existed}, nil
}

func (a *Adapter) Read(ctx context.Context, id string) (events.ReadResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.readCalls++
	if err := a.readErr; err != nil {
		return events.ReadResult{}, err
	}

	rec, ok := a.byID[id]
	if !ok {
		return events.ReadResult{}, nil
	}

	return events.ReadResult{
		Record:    rec,
		Found:     true,
		Corrupted: a.kind == events.KindObjectStore && a.corrupted[id],
	}, nil
}

// metadataFor arma el blob de metadata content-addressed que describiría al
// evento en el object store real.
func metadataFor(rec events.EventRecord) map[string]any {
	m := map[string]any{
		"id":              rec.ID,
		"title":           rec.Title,
		"description":     rec.Description,
		"location":        rec.Location,
		"start_time":      rec.StartTime.UTC().Format(time.RFC3339),
		"end_time":        rec.EndTime.UTC().Format(time.RFC3339),
		"max_capacity":    rec.MaxCapacity,
		"ticket_price":    int64(rec.TicketPrice),
		"creator_address": rec.CreatorAddress,
	}
	if rec.ObjectRef != nil && rec.ObjectRef.Banner != nil {
		m["banner_hash"] = rec.ObjectRef.Banner.Hash
		m["banner_url"] = rec.ObjectRef.Banner.URL
	}
	return m
}
