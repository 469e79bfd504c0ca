package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"ticketchain/internal/domain/events"
)

func sampleRecord(id string) events.EventRecord {
	start := time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)
	return events.EventRecord{
		ID:             id,
		Title:          "Festival Andino",
		Description:    "Música en vivo",
		Location:       "Cusco, PE",
		StartTime:      start,
		EndTime:        start.Add(6 * time.Hour),
		MaxCapacity:    500,
		TicketPrice:    75_000,
		Visibility:     events.VisibilityPublic,
		CreatorAddress: "0xc0ffee254729296a45a3885639ac7e10f9d54979",
	}
}

func TestLedger_ImmutableOnRetry(t *testing.T) {
	a := NewLedger()
	ctx := context.Background()

	first, err := a.Write(ctx, sampleRecord("evt-1"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if first.AlreadyExisted {
		t.Fatalf("first write must mint a new tx")
	}
	if first.LedgerRef == nil || first.LedgerRef.TxHash == "" {
		t.Fatalf("expected ledger ref, got %+v", first)
	}

	second, err := a.Write(ctx, sampleRecord("evt-1"))
	if err != nil {
		t.Fatalf("Write retry: %v", err)
	}
	if !second.AlreadyExisted {
		t.Fatalf("retry must report the existing tx")
	}
	if second.LedgerRef.TxHash != first.LedgerRef.TxHash {
		t.Fatalf("retry minted a second tx: %q vs %q", second.LedgerRef.TxHash, first.LedgerRef.TxHash)
	}

	other, err := a.Write(ctx, sampleRecord("evt-2"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if other.LedgerRef.EventIndex == first.LedgerRef.EventIndex {
		t.Fatalf("distinct events must get distinct indexes")
	}
}

func TestLedger_SeedWithoutRefMintsOnWrite(t *testing.T) {
	// Un registro sembrado sin transacción no tiene ref que devolver: el
	// Write siguiente mina una en vez de reventar.
	a := NewLedger()
	a.Seed(sampleRecord("evt-1"))

	first, err := a.Write(context.Background(), sampleRecord("evt-1"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if first.LedgerRef == nil || first.LedgerRef.TxHash == "" {
		t.Fatalf("expected minted ref, got %+v", first)
	}

	stored, ok := a.Get("evt-1")
	if !ok || stored.LedgerRef == nil {
		t.Fatalf("stored record must carry the minted ref, got %+v", stored)
	}

	retry, err := a.Write(context.Background(), sampleRecord("evt-1"))
	if err != nil {
		t.Fatalf("Write retry: %v", err)
	}
	if !retry.AlreadyExisted || retry.LedgerRef.TxHash != first.LedgerRef.TxHash {
		t.Fatalf("retry must reuse the minted tx, got %+v", retry)
	}
}

func TestDatabase_RevisionBumpsOnUpsert(t *testing.T) {
	a := NewDatabase()
	ctx := context.Background()

	first, err := a.Write(ctx, sampleRecord("evt-1"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if first.Revision != 1 || first.AlreadyExisted {
		t.Fatalf("expected fresh row revision 1, got %+v", first)
	}

	second, err := a.Write(ctx, sampleRecord("evt-1"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if second.Revision != 2 || !second.AlreadyExisted {
		t.Fatalf("expected upsert revision 2, got %+v", second)
	}
}

func TestObjectStore_ContentAddressing(t *testing.T) {
	a := NewObjectStore()
	ctx := context.Background()

	first, err := a.Write(ctx, sampleRecord("evt-1"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if first.ObjectRef == nil || len(first.ObjectRef.Metadata.Hash) != 64 {
		t.Fatalf("expected sha256 blob ref, got %+v", first.ObjectRef)
	}

	// Mismo contenido => mismo hash.
	again, err := a.Write(ctx, sampleRecord("evt-1"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if again.ObjectRef.Metadata.Hash != first.ObjectRef.Metadata.Hash {
		t.Fatalf("same content must keep the same address")
	}

	changed := sampleRecord("evt-1")
	changed.Title = "Festival Andino 2026"
	third, err := a.Write(ctx, changed)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if third.ObjectRef.Metadata.Hash == first.ObjectRef.Metadata.Hash {
		t.Fatalf("different content must change the address")
	}
}

func TestObjectStore_CorruptionAndRewrite(t *testing.T) {
	a := NewObjectStore()
	ctx := context.Background()

	if _, err := a.Write(ctx, sampleRecord("evt-1")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	a.CorruptContent("evt-1")

	res, err := a.Read(ctx, "evt-1")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !res.Found || !res.Corrupted {
		t.Fatalf("expected found+corrupted, got %+v", res)
	}

	// Reescribir el blob limpia la marca.
	if _, err := a.Write(ctx, sampleRecord("evt-1")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	res, err = a.Read(ctx, "evt-1")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if res.Corrupted {
		t.Fatalf("rewrite must clear the corruption mark")
	}
}

func TestAdapter_InjectedFailuresAndCounters(t *testing.T) {
	a := NewDatabase()
	ctx := context.Background()
	boom := errors.New("boom")

	a.FailWrites(boom)
	if _, err := a.Write(ctx, sampleRecord("evt-1")); !errors.Is(err, boom) {
		t.Fatalf("expected injected write error, got %v", err)
	}
	a.FailWrites(nil)
	if _, err := a.Write(ctx, sampleRecord("evt-1")); err != nil {
		t.Fatalf("Write after clearing: %v", err)
	}
	if a.WriteCalls() != 2 {
		t.Fatalf("expected 2 write calls, got %d", a.WriteCalls())
	}

	a.FailReads(boom)
	if _, err := a.Read(ctx, "evt-1"); !errors.Is(err, boom) {
		t.Fatalf("expected injected read error, got %v", err)
	}
	a.FailReads(nil)
	res, err := a.Read(ctx, "evt-1")
	if err != nil || !res.Found {
		t.Fatalf("Read after clearing: %v %+v", err, res)
	}
	if a.ReadCalls() != 2 {
		t.Fatalf("expected 2 read calls, got %d", a.ReadCalls())
	}
}

func TestAdapter_WriteDelayHonorsContext(t *testing.T) {
	a := NewLedger()
	a.SetWriteDelay(200 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := a.Write(ctx, sampleRecord("evt-1")); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if _, ok := a.Get("evt-1"); ok {
		t.Fatalf("timed-out write must not persist")
	}
}
