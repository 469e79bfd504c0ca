package ledger

import (
	"context"
	"errors"
	"net/http"
	"time"

	"ticketchain/internal/domain/events"
	"ticketchain/internal/platform/httpclient"
)

type Adapter struct {
	client *Client
}

func NewAdapter(client *Client) *Adapter {
	return &Adapter{client: client}
}

func (a *Adapter) Kind() events.Kind { return events.KindLedger }

// Write envía el evento al contrato vía gateway. Un duplicado (409 o
// existing=true) se resuelve con la ref ya minada: un retry del cliente no
// puede producir dos transacciones.
func (a *Adapter) Write(ctx context.Context, rec events.EventRecord) (events.Receipt, error) {
	if !a.client.IsConfigured() {
		return events.Receipt{}, events.NewStoreError(events.KindLedger, events.ReasonUnavailable, ErrNotConfigured)
	}

	out, err := a.client.submit(ctx, submitRequest{
		ID:             rec.ID,
		CreatorAddress: rec.CreatorAddress,
		StartTime:      rec.StartTime.UTC().Format(time.RFC3339),
		EndTime:        rec.EndTime.UTC().Format(time.RFC3339),
		TicketPrice:    int64(rec.TicketPrice),
		MaxCapacity:    rec.MaxCapacity,
	})
	if err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusConflict {
			// Ya existe on-chain: recuperar la ref existente.
			existing, gerr := a.client.get(ctx, rec.ID)
			if gerr != nil {
				return events.Receipt{}, classify(gerr)
			}
			return events.Receipt{
				Store:          events.KindLedger,
				LedgerRef:      refOf(existing),
				AlreadyExisted: true,
			}, nil
		}
		return events.Receipt{}, classify(err)
	}

	return events.Receipt{
		Store: events.KindLedger,
		LedgerRef: &events.LedgerRef{
			ChainID:    out.ChainID,
			Contract:   out.Contract,
			EventIndex: out.EventIndex,
			TxHash:     out.TxHash,
		},
		AlreadyExisted: out.Existing,
	}, nil
}

func (a *Adapter) Read(ctx context.Context, id string) (events.ReadResult, error) {
	if !a.client.IsConfigured() {
		return events.ReadResult{}, events.NewStoreError(events.KindLedger, events.ReasonUnavailable, ErrNotConfigured)
	}

	out, err := a.client.get(ctx, id)
	if err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return events.ReadResult{}, nil
		}
		return events.ReadResult{}, classify(err)
	}

	rec := events.EventRecord{
		ID:             out.ID,
		CreatorAddress: out.CreatorAddress,
		TicketPrice:    events.Amount(out.TicketPrice),
		MaxCapacity:    out.MaxCapacity,
		LedgerRef:      refOf(out),
	}
	if t, perr := time.Parse(time.RFC3339, out.StartTime); perr == nil {
		rec.StartTime = t
	}
	if t, perr := time.Parse(time.RFC3339, out.EndTime); perr == nil {
		rec.EndTime = t
	}

	return events.ReadResult{Record: rec, Found: true}, nil
}

func refOf(out eventResponse) *events.LedgerRef {
	return &events.LedgerRef{
		ChainID:    out.ChainID,
		Contract:   out.Contract,
		EventIndex: out.EventIndex,
		TxHash:     out.TxHash,
	}
}

// classify mapea errores del gateway a la taxonomía del core: 4xx es rechazo
// del store, 5xx y fallos de red son indisponibilidad, deadline es timeout.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return events.NewStoreError(events.KindLedger, events.ReasonTimeout, err)
	}
	var httpErr *httpclient.HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode >= 400 && httpErr.StatusCode < 500 {
		return events.NewStoreError(events.KindLedger, events.ReasonRejected, err)
	}
	return events.NewStoreError(events.KindLedger, events.ReasonUnavailable, err)
}
