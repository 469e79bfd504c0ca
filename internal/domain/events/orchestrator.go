package events

import (
	"context"

	"golang.org/x/sync/singleflight"

	"ticketchain/internal/platform/logger"
)

// Orchestrator es la fachada del motor de consistencia. Es el único punto de
// integración que ven las capas CRUD: no tiene lógica propia más allá del
// ruteo y de colapsar repairs concurrentes del mismo id.
type Orchestrator struct {
	coordinator *Coordinator
	verifier    *Verifier
	repairer    *RepairEngine

	// repairs del mismo id en vuelo comparten una sola ejecución; las
	// escrituras de los adapters ya son idempotentes, esto solo evita tráfico
	// redundante contra los stores.
	repairGroup singleflight.Group
}

func NewOrchestrator(stores Stores, log logger.Logger) *Orchestrator {
	verifier := NewVerifier(stores, log)
	return &Orchestrator{
		coordinator: NewCoordinator(stores, log),
		verifier:    verifier,
		repairer:    NewRepairEngine(stores, verifier, log),
	}
}

func (o *Orchestrator) CreateEvent(ctx context.Context, in CreateInput) (CreationResult, error) {
	return o.coordinator.Create(ctx, in)
}

// GetEventByID devuelve la vista mergeada; las divergencias van como metadata,
// no como error fatal, para que la lectura siga disponible aun sin
// consistencia perfecta.
func (o *Orchestrator) GetEventByID(ctx context.Context, id string) (ResolvedEvent, error) {
	return o.verifier.Resolve(ctx, id)
}

func (o *Orchestrator) RepairEventConsistency(ctx context.Context, id string) (RepairResult, error) {
	v, err, _ := o.repairGroup.Do(id, func() (any, error) {
		return o.repairer.Repair(ctx, id)
	})
	if err != nil {
		return RepairResult{}, err
	}
	return v.(RepairResult), nil
}
