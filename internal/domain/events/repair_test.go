package events

import (
	"context"
	"errors"
	"testing"
)

func newRepairEngine(ss stubStores) *RepairEngine {
	log := testLogger()
	return NewRepairEngine(ss.stores(), NewVerifier(ss.stores(), log), log)
}

func TestRepair_BackfillsStoreMissedDuringCreation(t *testing.T) {
	ss := newStubStores()
	c := NewCoordinator(ss.stores(), testLogger())

	ss.database.failWrites(errors.New("db down"))
	res, err := c.Create(context.Background(), validInput("evt-bf"))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if res.Provenance.Database {
		t.Fatalf("precondition: database write must have failed")
	}

	ss.database.failWrites(nil)
	ledgerWrites, objWrites := ss.ledger.writes(), ss.object.writes()

	e := newRepairEngine(ss)
	rr, err := e.Repair(context.Background(), res.ID)
	if err != nil {
		t.Fatalf("Repair error: %v", err)
	}
	if !rr.Success {
		t.Fatalf("expected success, errors: %+v", rr.Errors)
	}
	if len(rr.Actions) != 1 || rr.Actions[0].Store != KindDatabase || rr.Actions[0].Op != RepairOpBackfill {
		t.Fatalf("expected exactly one database backfill, got %+v", rr.Actions)
	}
	// Los stores sanos no se tocan.
	if ss.ledger.writes() != ledgerWrites || ss.object.writes() != objWrites {
		t.Fatalf("repair must not rewrite healthy stores")
	}

	dbRec, ok := ss.database.stored(res.ID)
	if !ok {
		t.Fatalf("database not backfilled")
	}
	if dbRec.LedgerRef == nil || dbRec.LedgerRef.TxHash != res.LedgerRef.TxHash {
		t.Fatalf("backfilled row must cache the ledger ref, got %+v", dbRec.LedgerRef)
	}
	if dbRec.ObjectRef == nil || dbRec.ObjectRef.Metadata.Hash != res.ObjectRef.Metadata.Hash {
		t.Fatalf("backfilled row must cache the blob ref, got %+v", dbRec.ObjectRef)
	}

	resolved, err := NewVerifier(ss.stores(), testLogger()).Resolve(context.Background(), res.ID)
	if err != nil {
		t.Fatalf("Resolve after repair: %v", err)
	}
	if resolved.State() != StateFullyWritten {
		t.Fatalf("expected FULLY_WRITTEN after repair, got %s (%+v)", resolved.State(), resolved.Divergences)
	}
}

func TestRepair_OverwritesNonAuthoritativeCopy(t *testing.T) {
	ss := newStubStores()
	seedConsistent(ss, "evt-fix")

	dbRec, _ := ss.database.stored("evt-fix")
	dbRec.TicketPrice = 45_000
	ss.database.seed(dbRec)

	ledgerWrites, objWrites := ss.ledger.writes(), ss.object.writes()

	e := newRepairEngine(ss)
	rr, err := e.Repair(context.Background(), "evt-fix")
	if err != nil {
		t.Fatalf("Repair error: %v", err)
	}
	if !rr.Success {
		t.Fatalf("expected success, errors: %+v", rr.Errors)
	}
	if len(rr.Actions) != 1 {
		t.Fatalf("expected one action, got %+v", rr.Actions)
	}
	a := rr.Actions[0]
	if a.Store != KindDatabase || a.Op != RepairOpOverwrite || a.Field != FieldTicketPrice {
		t.Fatalf("expected database overwrite of ticket_price, got %+v", a)
	}
	// El ledger es autoritativo: jamás se reescribe para converger.
	if ss.ledger.writes() != ledgerWrites {
		t.Fatalf("repair must never write to the authoritative store")
	}
	if ss.object.writes() != objWrites {
		t.Fatalf("object store copy already matched, must not be rewritten")
	}

	fixed, _ := ss.database.stored("evt-fix")
	if fixed.TicketPrice != 50_000 {
		t.Fatalf("expected ledger price propagated, got %d", fixed.TicketPrice)
	}
	if fixed.Revision != 2 {
		t.Fatalf("overwrite must bump the revision, got %d", fixed.Revision)
	}

	resolved, err := NewVerifier(ss.stores(), testLogger()).Resolve(context.Background(), "evt-fix")
	if err != nil {
		t.Fatalf("Resolve after repair: %v", err)
	}
	if len(resolved.Divergences) != 0 {
		t.Fatalf("expected convergence, got %+v", resolved.Divergences)
	}
}

func TestRepair_PropagatesZeroPriceToStaleCopy(t *testing.T) {
	// Evento gratis: el ledger dice 0 y la DB quedó con un precio viejo
	// distinto de cero. El 0 es valor, no ausencia; se propaga igual.
	ss := newStubStores()
	seedConsistent(ss, "evt-free")

	for _, s := range []*stubStore{ss.ledger, ss.object} {
		rec, _ := s.stored("evt-free")
		rec.TicketPrice = 0
		s.seed(rec)
	}

	e := newRepairEngine(ss)
	rr, err := e.Repair(context.Background(), "evt-free")
	if err != nil {
		t.Fatalf("Repair error: %v", err)
	}
	if !rr.Success {
		t.Fatalf("expected success, errors: %+v", rr.Errors)
	}
	if len(rr.Actions) != 1 {
		t.Fatalf("expected one action, got %+v", rr.Actions)
	}
	a := rr.Actions[0]
	if a.Store != KindDatabase || a.Op != RepairOpOverwrite || a.Field != FieldTicketPrice {
		t.Fatalf("expected database overwrite of ticket_price, got %+v", a)
	}

	fixed, _ := ss.database.stored("evt-free")
	if fixed.TicketPrice != 0 {
		t.Fatalf("expected ledger zero propagated, got %d", fixed.TicketPrice)
	}
}

func TestRepair_ContentCorruptionEscalatesWithoutWrites(t *testing.T) {
	ss := newStubStores()
	seedConsistent(ss, "evt-bad")
	ss.object.corrupted["evt-bad"] = true

	before := ss.ledger.writes() + ss.database.writes() + ss.object.writes()

	e := newRepairEngine(ss)
	rr, err := e.Repair(context.Background(), "evt-bad")
	if err != nil {
		t.Fatalf("Repair error: %v", err)
	}
	if rr.Success {
		t.Fatalf("corruption must not report success")
	}
	if len(rr.Actions) != 0 {
		t.Fatalf("expected no corrective actions, got %+v", rr.Actions)
	}
	if len(rr.Errors) != 1 || rr.Errors[0].Field != FieldContentIntegrity {
		t.Fatalf("expected a single content_integrity issue, got %+v", rr.Errors)
	}
	after := ss.ledger.writes() + ss.database.writes() + ss.object.writes()
	if after != before {
		t.Fatalf("repair must not write when there is no authority")
	}
}

func TestRepair_ConsistentRecordIsNoOp(t *testing.T) {
	ss := newStubStores()
	seedConsistent(ss, "evt-noop")
	before := ss.ledger.writes() + ss.database.writes() + ss.object.writes()

	e := newRepairEngine(ss)
	rr, err := e.Repair(context.Background(), "evt-noop")
	if err != nil {
		t.Fatalf("Repair error: %v", err)
	}
	if !rr.Success || len(rr.Actions) != 0 || len(rr.Errors) != 0 {
		t.Fatalf("expected clean no-op, got %+v", rr)
	}
	after := ss.ledger.writes() + ss.database.writes() + ss.object.writes()
	if after != before {
		t.Fatalf("no-op repair must not write")
	}
}

func TestRepair_SkipsBackfillWhenRecordInsufficient(t *testing.T) {
	// Solo existe la fila de la DB y sin creator: no hay con qué reconstruir
	// las copias del ledger ni del object store.
	ss := newStubStores()
	ss.database.seed(EventRecord{
		ID:       "evt-thin",
		Title:    "Registro incompleto",
		Revision: 1,
	})

	e := newRepairEngine(ss)
	rr, err := e.Repair(context.Background(), "evt-thin")
	if err != nil {
		t.Fatalf("Repair error: %v", err)
	}
	if len(rr.Actions) != 0 {
		t.Fatalf("expected no backfill attempts, got %+v", rr.Actions)
	}
	if ss.ledger.count() != 0 || ss.object.count() != 0 {
		t.Fatalf("insufficient record must not be propagated")
	}
}

func TestRepair_ReportsFailedWrite(t *testing.T) {
	ss := newStubStores()
	seedConsistent(ss, "evt-retry")
	ss.database.mu.Lock()
	delete(ss.database.recs, "evt-retry")
	ss.database.mu.Unlock()
	ss.database.failWrites(errors.New("still down"))

	e := newRepairEngine(ss)
	rr, err := e.Repair(context.Background(), "evt-retry")
	if err != nil {
		t.Fatalf("Repair error: %v", err)
	}
	if rr.Success {
		t.Fatalf("failed backfill must not report success")
	}
	if len(rr.Errors) != 1 || rr.Errors[0].Store != KindDatabase {
		t.Fatalf("expected a database issue, got %+v", rr.Errors)
	}
}

func TestRepair_PropagatesResolveErrors(t *testing.T) {
	ss := newStubStores()
	down := errors.New("down")
	ss.ledger.failReads(down)
	ss.database.failReads(down)
	ss.object.failReads(down)

	e := newRepairEngine(ss)
	if _, err := e.Repair(context.Background(), "evt-any"); !errors.Is(err, ErrAllStoresUnavailable) {
		t.Fatalf("expected ErrAllStoresUnavailable, got %v", err)
	}

	ss2 := newStubStores()
	e2 := newRepairEngine(ss2)
	if _, err := e2.Repair(context.Background(), "evt-ghost"); !errors.Is(err, ErrNotFoundAnywhere) {
		t.Fatalf("expected ErrNotFoundAnywhere, got %v", err)
	}
}
