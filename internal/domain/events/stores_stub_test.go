package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ticketchain/internal/platform/logger"
)

// -------------------------
// Stub adapters (in-memory)
// -------------------------

type stubStore struct {
	kind Kind

	mu        sync.Mutex
	recs      map[string]EventRecord
	corrupted map[string]bool
	nextIndex uint64

	writeErr   error
	readErr    error
	writeDelay time.Duration

	writeCalls int
	readCalls  int
}

func newStubStore(kind Kind) *stubStore {
	return &stubStore{
		kind:      kind,
		recs:      map[string]EventRecord{},
		corrupted: map[string]bool{},
	}
}

func (s *stubStore) Kind() Kind { return s.kind }

func (s *stubStore) Write(ctx context.Context, rec EventRecord) (Receipt, error) {
	s.mu.Lock()
	s.writeCalls++
	err := s.writeErr
	delay := s.writeDelay
	s.mu.Unlock()

	if err != nil {
		return Receipt{}, err
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return Receipt{}, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.kind {
	case KindLedger:
		if prev, ok := s.recs[rec.ID]; ok && prev.LedgerRef != nil {
			ref := *prev.LedgerRef
			return Receipt{Store: s.kind, LedgerRef: &ref, AlreadyExisted: true}, nil
		}
		ref := &LedgerRef{
			ChainID:    "stub-chain",
			Contract:   "0xstub",
			EventIndex: s.nextIndex,
			TxHash:     "0xtx-" + rec.ID,
		}
		s.nextIndex++
		rec.LedgerRef = ref
		s.recs[rec.ID] = rec
		out := *ref
		return Receipt{Store: s.kind, LedgerRef: &out}, nil

	case KindDatabase:
		prev, existed := s.recs[rec.ID]
		if existed {
			rec.Revision = prev.Revision + 1
		} else {
			rec.Revision = 1
		}
		s.recs[rec.ID] = rec
		return Receipt{Store: s.kind, Revision: rec.Revision, AlreadyExisted: existed}, nil

	default: // objectstore
		hash := stubHash(rec)
		ref := &ObjectStoreRef{Metadata: BlobRef{Hash: hash, URL: "stub://" + hash}}
		if rec.ObjectRef != nil && rec.ObjectRef.Banner != nil {
			banner := *rec.ObjectRef.Banner
			ref.Banner = &banner
		}
		_, existed := s.recs[rec.ID]
		rec.ObjectRef = ref
		s.recs[rec.ID] = rec
		delete(s.corrupted, rec.ID)
		out := *ref
		return Receipt{Store: s.kind, ObjectRef: &out, AlreadyExisted: existed}, nil
	}
}

func (s *stubStore) Read(ctx context.Context, id string) (ReadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.readCalls++
	if s.readErr != nil {
		return ReadResult{}, s.readErr
	}

	rec, ok := s.recs[id]
	if !ok {
		return ReadResult{}, nil
	}
	return ReadResult{
		Record:    rec,
		Found:     true,
		Corrupted: s.kind == KindObjectStore && s.corrupted[id],
	}, nil
}

func (s *stubStore) failWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

func (s *stubStore) failReads(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErr = err
}

func (s *stubStore) seed(rec EventRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[rec.ID] = rec
}

func (s *stubStore) writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeCalls
}

func (s *stubStore) stored(id string) (EventRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[id]
	return rec, ok
}

func (s *stubStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recs)
}

// stubHash es un fingerprint determinista del contenido del blob de metadata.
func stubHash(rec EventRecord) string {
	return fmt.Sprintf("h(%s|%s|%d|%d)", rec.ID, rec.Title, rec.TicketPrice, rec.StartTime.Unix())
}

type stubStores struct {
	ledger   *stubStore
	database *stubStore
	object   *stubStore
}

func newStubStores() stubStores {
	return stubStores{
		ledger:   newStubStore(KindLedger),
		database: newStubStore(KindDatabase),
		object:   newStubStore(KindObjectStore),
	}
}

func (s stubStores) stores() Stores {
	return Stores{Ledger: s.ledger, Database: s.database, ObjectStore: s.object}
}

func testLogger() logger.Logger {
	return logger.New(logger.Options{Level: logger.Error})
}

func validInput(id string) CreateInput {
	start := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	return CreateInput{
		ID:             id,
		Title:          "Cumbre Web3 Lima",
		Description:    "Dos días de charlas",
		Location:       "Lima, PE",
		StartTime:      start,
		EndTime:        start.Add(8 * time.Hour),
		MaxCapacity:    300,
		TicketPrice:    50_000,
		Visibility:     VisibilityPublic,
		CreatorAddress: "0xc0ffee254729296a45a3885639ac7e10f9d54979",
	}
}
