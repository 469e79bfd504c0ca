package events

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"ticketchain/internal/platform/logger"
)

// authorityOrder define, por campo, qué store gana cuando hay copias en
// conflicto (el primero presente manda). Ledger gana los campos
// financieros/temporales inmutables una vez confirmado; la database gana el
// texto libre porque es el único store corregible; el object store gana las
// referencias de media.
var authorityOrder = map[Field][]Kind{
	FieldTicketPrice: {KindLedger, KindDatabase, KindObjectStore},
	FieldStartTime:   {KindLedger, KindDatabase, KindObjectStore},
	FieldEndTime:     {KindLedger, KindDatabase, KindObjectStore},
	FieldMaxCapacity: {KindLedger, KindDatabase, KindObjectStore},
	FieldCreator:     {KindLedger, KindDatabase, KindObjectStore},

	FieldTitle:       {KindDatabase, KindObjectStore},
	FieldDescription: {KindDatabase, KindObjectStore},
	FieldLocation:    {KindDatabase, KindObjectStore},
	FieldVisibility:  {KindDatabase, KindObjectStore},

	FieldLedgerRef:    {KindLedger, KindDatabase},
	FieldMetadataBlob: {KindObjectStore, KindDatabase},
}

// storeCarries dice si un store mantiene copia propia de un campo. Un store
// que no lleva el campo no participa ni del merge ni de la detección de
// divergencias para ese campo.
func storeCarries(k Kind, f Field) bool {
	order, ok := authorityOrder[f]
	if !ok {
		return false
	}
	for _, s := range order {
		if s == k {
			return true
		}
	}
	return false
}

// contentField dice si el valor del campo vive en el contenido del registro.
// Una lectura Corrupted no aporta contenido (los bytes no coinciden con su
// dirección); las refs sí se conocen igual porque vienen del índice, no de los
// bytes corruptos.
func contentField(f Field) bool {
	switch f {
	case FieldLedgerRef, FieldMetadataBlob:
		return false
	}
	return true
}

// AuthorityFor devuelve el store autoritativo para un campo dada la
// procedencia viva. false cuando no hay autoridad posible (p.ej. corrupción
// de contenido) o ningún store con el campo tiene registro.
func AuthorityFor(f Field, prov ProvenanceFlags) (Kind, bool) {
	for _, k := range authorityOrder[f] {
		if prov.Has(k) {
			return k, true
		}
	}
	return "", false
}

// Verifier lee los tres stores, mergea la vista canónica y marca divergencias.
type Verifier struct {
	stores  Stores
	log     logger.Logger
	timeout time.Duration
}

func NewVerifier(stores Stores, log logger.Logger) *Verifier {
	return &Verifier{
		stores:  stores,
		log:     log,
		timeout: DefaultStoreTimeout,
	}
}

type storeRead struct {
	res ReadResult
	err error
}

// Resolve lee los tres stores en paralelo, tolerando que cualquier
// subconjunto devuelva not-found o error, y construye la vista canónica.
//
// Taxonomía de fallo: ErrNotFoundAnywhere solo cuando los tres stores
// respondieron limpio "no existe". Si ningún store tiene registro pero alguno
// falló, no se puede probar la inexistencia y el resultado es
// ErrAllStoresUnavailable (el caller reintenta, no concluye que no existe).
func (v *Verifier) Resolve(ctx context.Context, id string) (ResolvedEvent, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return ResolvedEvent{}, ErrInvalidInput
	}

	var (
		mu    sync.Mutex
		reads = make(map[Kind]storeRead, len(Kinds))
		wg    sync.WaitGroup
	)
	for _, a := range v.stores.All() {
		wg.Add(1)
		go func(a StoreAdapter) {
			defer wg.Done()
			res, err := v.attemptRead(ctx, a, id)
			mu.Lock()
			reads[a.Kind()] = storeRead{res: res, err: err}
			mu.Unlock()
		}(a)
	}
	wg.Wait()

	var errCount, foundCount int
	for _, k := range Kinds {
		r := reads[k]
		if r.err != nil {
			errCount++
			v.log.Warn("store read failed", map[string]any{
				"event_id": id, "store": string(k), "reason": string(reasonOf(r.err)),
			})
			continue
		}
		if r.res.Found {
			foundCount++
		}
	}

	if errCount == len(Kinds) {
		return ResolvedEvent{}, ErrAllStoresUnavailable
	}
	if foundCount == 0 {
		if errCount == 0 {
			return ResolvedEvent{}, ErrNotFoundAnywhere
		}
		return ResolvedEvent{}, fmt.Errorf("%d store(s) unreadable for %s: %w", errCount, id, ErrAllStoresUnavailable)
	}

	resolved := ResolvedEvent{
		Provenance: ProvenanceFlags{
			Ledger:      reads[KindLedger].err == nil && reads[KindLedger].res.Found,
			Database:    reads[KindDatabase].err == nil && reads[KindDatabase].res.Found,
			ObjectStore: reads[KindObjectStore].err == nil && reads[KindObjectStore].res.Found,
		},
	}

	resolved.Record = v.merge(id, reads, resolved.Provenance)
	resolved.Divergences = v.detect(reads, resolved.Provenance)

	if len(resolved.Divergences) > 0 {
		v.log.Warn("divergence detected", map[string]any{
			"event_id": id, "divergences": len(resolved.Divergences),
		})
	}
	return resolved, nil
}

func (v *Verifier) attemptRead(ctx context.Context, a StoreAdapter, id string) (ReadResult, error) {
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), v.timeout)
	defer cancel()

	res, err := a.Read(sctx, id)
	if err != nil {
		return ReadResult{}, classifyStoreErr(a.Kind(), sctx, err)
	}
	return res, nil
}

// merge arma el registro canónico campo por campo según authorityOrder:
// para cada campo gana la copia del store autoritativo presente; un campo
// ausente en todos lados queda en cero.
func (v *Verifier) merge(id string, reads map[Kind]storeRead, prov ProvenanceFlags) EventRecord {
	merged := EventRecord{ID: id}

	recOf := func(k Kind) (EventRecord, bool) {
		r := reads[k]
		if r.err != nil || !r.res.Found {
			return EventRecord{}, false
		}
		return r.res.Record, true
	}

	// Igual que AuthorityFor, pero una lectura corrupta no puede aportar
	// contenido: se sigue con el siguiente store en el orden de autoridad.
	pick := func(f Field) (EventRecord, bool) {
		for _, k := range authorityOrder[f] {
			if !prov.Has(k) {
				continue
			}
			if contentField(f) && reads[k].res.Corrupted {
				continue
			}
			return reads[k].res.Record, true
		}
		return EventRecord{}, false
	}

	if r, ok := pick(FieldTitle); ok {
		merged.Title = r.Title
	}
	if r, ok := pick(FieldDescription); ok {
		merged.Description = r.Description
	}
	if r, ok := pick(FieldLocation); ok {
		merged.Location = r.Location
	}
	if r, ok := pick(FieldVisibility); ok {
		merged.Visibility = r.Visibility
	}
	if r, ok := pick(FieldStartTime); ok {
		merged.StartTime = r.StartTime
	}
	if r, ok := pick(FieldEndTime); ok {
		merged.EndTime = r.EndTime
	}
	if r, ok := pick(FieldMaxCapacity); ok {
		merged.MaxCapacity = r.MaxCapacity
	}
	if r, ok := pick(FieldTicketPrice); ok {
		merged.TicketPrice = r.TicketPrice
	}
	if r, ok := pick(FieldCreator); ok {
		merged.CreatorAddress = r.CreatorAddress
	}

	// Refs: autoritativas de su propio store, con fallback a la copia cacheada
	// en la database.
	if r, ok := pick(FieldLedgerRef); ok && r.LedgerRef != nil {
		ref := *r.LedgerRef
		merged.LedgerRef = &ref
	}
	if r, ok := pick(FieldMetadataBlob); ok && r.ObjectRef != nil {
		ref := *r.ObjectRef
		merged.ObjectRef = &ref
	}

	// Revision la lleva solo la database.
	if r, ok := recOf(KindDatabase); ok {
		merged.Revision = r.Revision
	}

	return merged
}

// detect compara, campo por campo, las copias de los stores que tienen
// registro. Un mismatch se registra como Divergence sin resolverse en
// silencio; la corrupción de contenido del object store se marca aparte como
// FieldContentIntegrity (sin autoridad, irreparable por sobreescritura).
func (v *Verifier) detect(reads map[Kind]storeRead, prov ProvenanceFlags) []Divergence {
	var out []Divergence

	for _, f := range []Field{
		FieldTitle, FieldDescription, FieldLocation, FieldVisibility,
		FieldStartTime, FieldEndTime, FieldMaxCapacity, FieldTicketPrice,
		FieldCreator, FieldLedgerRef, FieldMetadataBlob,
	} {
		var values []StoreValue
		distinct := map[string]struct{}{}

		for _, k := range authorityOrder[f] {
			r := reads[k]
			if r.err != nil || !r.res.Found {
				continue
			}
			if r.res.Corrupted && contentField(f) {
				continue
			}
			val, present := fieldValue(r.res.Record, f)
			if !present {
				continue
			}
			values = append(values, StoreValue{Store: k, Value: val})
			distinct[val] = struct{}{}
		}

		if len(distinct) > 1 {
			out = append(out, Divergence{Field: f, Values: values})
		}
	}

	if os := reads[KindObjectStore]; os.err == nil && os.res.Found && os.res.Corrupted {
		val := "content hash mismatch"
		if os.res.Record.ObjectRef != nil {
			val = "content hash mismatch at " + os.res.Record.ObjectRef.Metadata.Hash
		}
		out = append(out, Divergence{
			Field:  FieldContentIntegrity,
			Values: []StoreValue{{Store: KindObjectStore, Value: val}},
		})
	}

	return out
}

// fieldValue devuelve la representación comparable de un campo y si el store
// realmente lo reporta. Tiempos en UTC RFC3339 para que el mismo instante
// serializado por stores distintos compare igual. Capacity y price participan
// siempre que el store tenga registro: 0 es un valor válido (evento gratis,
// sin tope de cupo), no la ausencia del campo.
func fieldValue(r EventRecord, f Field) (string, bool) {
	switch f {
	case FieldTitle:
		return r.Title, r.Title != ""
	case FieldDescription:
		return r.Description, r.Description != ""
	case FieldLocation:
		return r.Location, r.Location != ""
	case FieldVisibility:
		return string(r.Visibility), r.Visibility != ""
	case FieldStartTime:
		return r.StartTime.UTC().Format(time.RFC3339), !r.StartTime.IsZero()
	case FieldEndTime:
		return r.EndTime.UTC().Format(time.RFC3339), !r.EndTime.IsZero()
	case FieldMaxCapacity:
		return strconv.Itoa(r.MaxCapacity), true
	case FieldTicketPrice:
		return strconv.FormatInt(int64(r.TicketPrice), 10), true
	case FieldCreator:
		return r.CreatorAddress, r.CreatorAddress != ""
	case FieldLedgerRef:
		if r.LedgerRef == nil {
			return "", false
		}
		lr := r.LedgerRef
		return fmt.Sprintf("%s/%s/%d/%s", lr.ChainID, lr.Contract, lr.EventIndex, lr.TxHash), true
	case FieldMetadataBlob:
		if r.ObjectRef == nil || r.ObjectRef.Metadata.Hash == "" {
			return "", false
		}
		return r.ObjectRef.Metadata.Hash, true
	}
	return "", false
}
