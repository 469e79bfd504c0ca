package events

import (
	"context"
	"strings"
	"time"

	"ticketchain/internal/platform/logger"
)

// RepairEngine propaga la copia autoritativa disponible hacia los stores que
// quedaron atrás. Nunca fuerza un cambio en un store autoritativo ni toca una
// transacción ya minada; solo crea o actualiza registros rezagados.
type RepairEngine struct {
	stores   Stores
	verifier *Verifier
	log      logger.Logger
	timeout  time.Duration
}

func NewRepairEngine(stores Stores, verifier *Verifier, log logger.Logger) *RepairEngine {
	return &RepairEngine{
		stores:   stores,
		verifier: verifier,
		log:      log,
		timeout:  DefaultStoreTimeout,
	}
}

type repairTarget struct {
	op     RepairOp
	fields []Field
}

// Repair re-deriva su plan de un Resolve fresco en cada llamada, por eso es
// seguro re-ejecutarla: reparar un registro ya consistente es un no-op y dos
// repairs concurrentes no planifican escrituras distintas.
func (e *RepairEngine) Repair(ctx context.Context, id string) (RepairResult, error) {
	resolved, err := e.verifier.Resolve(ctx, id)
	if err != nil {
		// NotFoundAnywhere / AllStoresUnavailable suben tal cual.
		return RepairResult{}, err
	}

	var res RepairResult
	targets := map[Kind]*repairTarget{}

	// Caso común: el store no tiene registro y el canónico alcanza para
	// reconstruirlo (p.ej. falló el write a la DB en la creación pero el
	// ledger quedó escrito).
	for _, k := range Kinds {
		if resolved.Provenance.Has(k) {
			continue
		}
		if !canReconstruct(k, resolved.Record) {
			e.log.Warn("store missing but record insufficient to backfill", map[string]any{
				"event_id": id, "store": string(k),
			})
			continue
		}
		targets[k] = &repairTarget{op: RepairOpBackfill}
	}

	// Divergencias: si hay autoridad clara, se sobreescribe la copia vieja del
	// store no-autoritativo. Sin autoridad (p.ej. hash de contenido que no
	// cuadra) no se toca nada y se escala.
	for _, d := range resolved.Divergences {
		auth, ok := AuthorityFor(d.Field, resolved.Provenance)
		if !ok {
			res.Errors = append(res.Errors, RepairIssue{
				Field:  d.Field,
				Reason: "no authoritative store for divergent field; manual escalation required",
			})
			continue
		}

		authVal := ""
		for _, sv := range d.Values {
			if sv.Store == auth {
				authVal = sv.Value
				break
			}
		}

		for _, sv := range d.Values {
			if sv.Store == auth || sv.Value == authVal {
				continue
			}
			t := targets[sv.Store]
			if t == nil {
				t = &repairTarget{op: RepairOpOverwrite}
				targets[sv.Store] = t
			}
			t.fields = append(t.fields, d.Field)
		}
	}

	// Ejecutar el plan. El registro que se escribe es siempre el canónico
	// completo; los adapters son upserts idempotentes.
	for _, k := range Kinds {
		t := targets[k]
		if t == nil {
			continue
		}

		if t.op == RepairOpBackfill {
			res.Actions = append(res.Actions, RepairAction{Store: k, Op: RepairOpBackfill})
		} else {
			for _, f := range t.fields {
				res.Actions = append(res.Actions, RepairAction{Store: k, Op: RepairOpOverwrite, Field: f})
			}
		}

		if _, err := e.attemptWrite(ctx, e.stores.ByKind(k), resolved.Record); err != nil {
			res.Errors = append(res.Errors, RepairIssue{
				Store:  k,
				Reason: err.Error(),
			})
			continue
		}

		e.log.Info("store repaired", map[string]any{
			"event_id": id, "store": string(k), "op": string(t.op),
		})
	}

	res.Success = len(res.Errors) == 0
	return res, nil
}

func (e *RepairEngine) attemptWrite(ctx context.Context, a StoreAdapter, rec EventRecord) (Receipt, error) {
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	defer cancel()

	rcpt, err := a.Write(sctx, rec)
	if err != nil {
		return Receipt{}, classifyStoreErr(a.Kind(), sctx, err)
	}
	return rcpt, nil
}

// canReconstruct dice si el registro canónico tiene datos suficientes para
// re-crear la copia de un store.
func canReconstruct(k Kind, rec EventRecord) bool {
	switch k {
	case KindLedger:
		return strings.TrimSpace(rec.CreatorAddress) != "" &&
			!rec.StartTime.IsZero() && !rec.EndTime.IsZero()
	case KindDatabase:
		return rec.ID != ""
	case KindObjectStore:
		return strings.TrimSpace(rec.CreatorAddress) != "" && !rec.StartTime.IsZero()
	}
	return false
}
