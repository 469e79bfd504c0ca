package events

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ticketchain/internal/platform/logger"
)

const DefaultStoreTimeout = 10 * time.Second

// Stores agrupa los tres adapters. El coordinator/verifier/repair los reciben
// inyectados; no hay singletons compartidos entre requests.
type Stores struct {
	Ledger      StoreAdapter
	Database    StoreAdapter
	ObjectStore StoreAdapter
}

func (s Stores) All() []StoreAdapter {
	return []StoreAdapter{s.Ledger, s.Database, s.ObjectStore}
}

func (s Stores) ByKind(k Kind) StoreAdapter {
	switch k {
	case KindLedger:
		return s.Ledger
	case KindDatabase:
		return s.Database
	case KindObjectStore:
		return s.ObjectStore
	}
	return nil
}

// Coordinator ejecuta la escritura best-effort de un evento nuevo sobre los
// tres stores y registra cuáles quedaron escritos.
type Coordinator struct {
	stores  Stores
	log     logger.Logger
	timeout time.Duration

	newID func() string
}

func NewCoordinator(stores Stores, log logger.Logger) *Coordinator {
	return &Coordinator{
		stores:  stores,
		log:     log,
		timeout: DefaultStoreTimeout,
		newID:   uuid.NewString,
	}
}

// CreateInput es la entrada ya validada en forma por la capa HTTP. El
// coordinator re-chequea los invariantes del registro antes de tocar
// cualquier store.
type CreateInput struct {
	// ID opcional: un retry del cliente manda el mismo id para que la
	// creación sea idempotente. Vacío => se genera uno nuevo.
	ID string

	Title       string
	Description string
	Location    string

	StartTime time.Time
	EndTime   time.Time

	MaxCapacity int
	TicketPrice Amount

	Visibility     Visibility
	CreatorAddress string

	// Banner ya subido/pineado por la capa de arriba (opcional).
	Banner *BlobRef
}

func (in CreateInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return ErrInvalidInput
	}
	if strings.TrimSpace(in.CreatorAddress) == "" {
		return ErrInvalidInput
	}
	if in.StartTime.IsZero() || in.EndTime.IsZero() || !in.EndTime.After(in.StartTime) {
		return ErrInvalidInput
	}
	if in.MaxCapacity < 0 || in.TicketPrice < 0 {
		return ErrInvalidInput
	}
	if in.Visibility != "" && !in.Visibility.Valid() {
		return ErrInvalidInput
	}
	return nil
}

type attemptOutcome struct {
	receipt Receipt
	err     error
}

// Create genera el id canónico localmente (nunca lo asigna un store) y lanza
// las tres escrituras en paralelo, cada una aislada: el fallo de una no
// cancela a las otras. Devuelve ErrAllStoresFailed solo si las tres fallaron.
func (c *Coordinator) Create(ctx context.Context, in CreateInput) (CreationResult, error) {
	if err := in.validate(); err != nil {
		return CreationResult{}, err
	}

	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = c.newID()
	}

	vis := in.Visibility
	if vis == "" {
		vis = VisibilityPublic
	}

	rec := EventRecord{
		ID:             id,
		Title:          strings.TrimSpace(in.Title),
		Description:    strings.TrimSpace(in.Description),
		Location:       strings.TrimSpace(in.Location),
		StartTime:      in.StartTime,
		EndTime:        in.EndTime,
		MaxCapacity:    in.MaxCapacity,
		TicketPrice:    in.TicketPrice,
		Visibility:     vis,
		CreatorAddress: strings.TrimSpace(in.CreatorAddress),
	}
	if in.Banner != nil {
		rec.ObjectRef = &ObjectStoreRef{Banner: in.Banner}
	}

	var (
		mu        sync.Mutex
		ledgerRef *LedgerRef
		objectRef *ObjectStoreRef
		dbSawLRef bool
		dbSawORef bool
		outcomes  = make(map[Kind]attemptOutcome, len(Kinds))
	)

	var wg sync.WaitGroup
	for _, a := range c.stores.All() {
		wg.Add(1)
		go func(a StoreAdapter) {
			defer wg.Done()

			r := rec
			if a.Kind() == KindDatabase {
				// El write a la DB lleva las refs que ya completaron, para que
				// una lectura posterior vea un registro más completo sin
				// necesidad de repair.
				mu.Lock()
				r.LedgerRef = ledgerRef
				if objectRef != nil {
					r.ObjectRef = objectRef
				}
				dbSawLRef = ledgerRef != nil
				dbSawORef = objectRef != nil
				mu.Unlock()
			}

			rcpt, err := c.attempt(ctx, a, r)

			mu.Lock()
			defer mu.Unlock()
			outcomes[a.Kind()] = attemptOutcome{receipt: rcpt, err: err}
			if err == nil {
				switch a.Kind() {
				case KindLedger:
					ledgerRef = rcpt.LedgerRef
				case KindObjectStore:
					objectRef = rcpt.ObjectRef
				}
			}
		}(a)
	}
	wg.Wait()

	// Si la DB escribió antes de que llegaran refs de ledger/objectstore,
	// un write idempotente extra deja su copia lo más completa posible.
	if out, ok := outcomes[KindDatabase]; ok && out.err == nil {
		needsTag := (ledgerRef != nil && !dbSawLRef) || (objectRef != nil && !dbSawORef)
		if needsTag {
			r := rec
			r.LedgerRef = ledgerRef
			if objectRef != nil {
				r.ObjectRef = objectRef
			}
			if rcpt, err := c.attempt(ctx, c.stores.Database, r); err == nil {
				out.receipt.Revision = rcpt.Revision
				outcomes[KindDatabase] = out
			} else {
				c.log.Warn("database ref tagging failed", map[string]any{
					"event_id": id, "error": err.Error(),
				})
			}
		}
	}

	res := CreationResult{ID: id, Failures: map[Kind]error{}}
	for _, k := range Kinds {
		out := outcomes[k]
		if out.err != nil {
			res.Failures[k] = out.err
			c.log.Warn("store write failed", map[string]any{
				"event_id": id, "store": string(k), "reason": string(reasonOf(out.err)),
			})
			continue
		}
		switch k {
		case KindLedger:
			res.Provenance.Ledger = true
			res.LedgerRef = out.receipt.LedgerRef
		case KindDatabase:
			res.Provenance.Database = true
			res.Revision = out.receipt.Revision
		case KindObjectStore:
			res.Provenance.ObjectStore = true
			res.ObjectRef = out.receipt.ObjectRef
		}
	}

	if res.Provenance.None() {
		return res, ErrAllStoresFailed
	}

	c.log.Info("event created", map[string]any{
		"event_id": id,
		"stores":   res.Provenance.Count(),
	})
	return res, nil
}

// attempt ejecuta una escritura con timeout propio, desacoplada de la
// cancelación del caller: una vez despachada corre hasta terminar (o vencer
// su timeout) y su resultado se registra igual, para no perder escrituras
// del registro de procedencia.
func (c *Coordinator) attempt(ctx context.Context, a StoreAdapter, rec EventRecord) (Receipt, error) {
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	rcpt, err := a.Write(sctx, rec)
	if err != nil {
		return Receipt{}, classifyStoreErr(a.Kind(), sctx, err)
	}
	return rcpt, nil
}

// classifyStoreErr normaliza cualquier error de adapter a *StoreError; un
// deadline vencido cuenta como timeout y se trata igual que un error
// reportado por el store.
func classifyStoreErr(k Kind, ctx context.Context, err error) error {
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	if ctx.Err() == context.DeadlineExceeded {
		return NewStoreError(k, ReasonTimeout, err)
	}
	return NewStoreError(k, ReasonUnavailable, err)
}
