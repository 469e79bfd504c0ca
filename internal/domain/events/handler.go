package events

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"ticketchain/internal/middleware"
)

func RegisterRoutes(r chi.Router, orch *Orchestrator) {
	r.Route("/events", func(er chi.Router) {
		er.Post("/", createEventHandler(orch))
		er.Get("/{eventID}", getEventHandler(orch))

		// Endpoint administrativo de reparación; la autorización fina
		// (quién puede reparar) vive en la capa de arriba.
		er.Post("/{eventID}/repair", repairEventHandler(orch))
	})
}

// createEventRequest es el cuerpo para crear un evento en los tres stores.
type createEventRequest struct {
	// ID opcional: un retry del cliente manda el mismo id y la creación es
	// idempotente (no se duplica transacción ni fila).
	ID string `json:"id,omitempty"`

	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	StartTime   string `json:"start_time"` // RFC3339
	EndTime     string `json:"end_time"`   // RFC3339
	MaxCapacity int    `json:"max_capacity"`
	TicketPrice int64  `json:"ticket_price"` // unidades mínimas (wei)
	Visibility  string `json:"visibility" enums:"public,unlisted,private"`

	// Banner ya pineado por el uploader (opcional).
	BannerHash string `json:"banner_hash,omitempty"`
	BannerURL  string `json:"banner_url,omitempty"`
}

type provenanceResponse struct {
	Ledger      bool `json:"ledger"`
	Database    bool `json:"database"`
	ObjectStore bool `json:"objectstore"`
}

type ledgerRefResponse struct {
	ChainID    string `json:"chain_id"`
	Contract   string `json:"contract"`
	EventIndex uint64 `json:"event_index"`
	TxHash     string `json:"tx_hash"`
}

type blobRefResponse struct {
	Hash string `json:"hash"`
	URL  string `json:"url"`
}

// creationResponse expone el éxito por store para que el front pueda decir
// "creado en todos lados" vs "creado parcialmente".
type creationResponse struct {
	ID         string             `json:"id"`
	Provenance provenanceResponse `json:"provenance"`

	LedgerRef *ledgerRefResponse `json:"ledger_ref,omitempty"`
	Metadata  *blobRefResponse   `json:"metadata,omitempty"`
	Banner    *blobRefResponse   `json:"banner,omitempty"`
	Revision  int64              `json:"revision,omitempty"`

	Failures map[string]string `json:"failures,omitempty"`
}

type divergenceResponse struct {
	Field  string            `json:"field"`
	Values map[string]string `json:"values"` // store -> valor reportado
}

// eventResponse es la vista mergeada y verificada de un evento.
type eventResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	MaxCapacity int    `json:"max_capacity"`
	TicketPrice int64  `json:"ticket_price"`
	Visibility  string `json:"visibility"`
	Creator     string `json:"creator_address"`

	LedgerRef *ledgerRefResponse `json:"ledger_ref,omitempty"`
	Metadata  *blobRefResponse   `json:"metadata,omitempty"`
	Banner    *blobRefResponse   `json:"banner,omitempty"`
	Revision  int64              `json:"revision,omitempty"`

	Provenance  provenanceResponse   `json:"provenance"`
	State       string               `json:"state"`
	Divergences []divergenceResponse `json:"divergences"`
}

type repairActionResponse struct {
	Store string `json:"store"`
	Op    string `json:"op"`
	Field string `json:"field,omitempty"`
}

type repairIssueResponse struct {
	Store  string `json:"store,omitempty"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason"`
}

type repairResponse struct {
	Success bool                   `json:"success"`
	Actions []repairActionResponse `json:"actions"`
	Errors  []repairIssueResponse  `json:"errors"`
}

// createEventHandler godoc
// @Summary Crear evento
// @Description Crea el evento en ledger, database y object store en paralelo (best-effort). Devuelve 201 si quedó en los tres stores y 207 si quedó parcial; la respuesta siempre dice qué store falló. Reintentar con el mismo `id` es idempotente. Autenticación: `X-Debug-Wallet` (dev) o `Authorization: Bearer <token>` (prod).
// @Tags events
// @Accept json
// @Produce json
// @Param X-Debug-Wallet header string false "Solo en modo dev, dirección de wallet para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body createEventRequest true "Datos del evento; tiempos en RFC3339"
// @Success 201 {object} creationResponse
// @Success 207 {object} creationResponse "Creación parcial: al menos un store falló"
// @Failure 400 {string} string "invalid json / reglas de negocio"
// @Failure 401 {string} string "unauthorized"
// @Failure 502 {string} string "los tres stores fallaron"
// @Router /events [post]
func createEventHandler(orch *Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.Address) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createEventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		start, err := time.Parse(time.RFC3339, req.StartTime)
		if err != nil {
			http.Error(w, "start_time must be RFC3339", http.StatusBadRequest)
			return
		}
		end, err := time.Parse(time.RFC3339, req.EndTime)
		if err != nil {
			http.Error(w, "end_time must be RFC3339", http.StatusBadRequest)
			return
		}

		in := CreateInput{
			ID:             req.ID,
			Title:          req.Title,
			Description:    req.Description,
			Location:       req.Location,
			StartTime:      start,
			EndTime:        end,
			MaxCapacity:    req.MaxCapacity,
			TicketPrice:    Amount(req.TicketPrice),
			Visibility:     Visibility(req.Visibility),
			CreatorAddress: claims.Address,
		}
		if req.BannerHash != "" {
			in.Banner = &BlobRef{Hash: req.BannerHash, URL: req.BannerURL}
		}

		res, err := orch.CreateEvent(r.Context(), in)
		switch {
		case errors.Is(err, ErrInvalidInput):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		case errors.Is(err, ErrAllStoresFailed):
			http.Error(w, "event creation failed in all stores", http.StatusBadGateway)
			return
		case err != nil:
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		status := http.StatusCreated
		if !res.Provenance.Full() {
			status = http.StatusMultiStatus
		}
		writeJSON(w, status, toCreationResponse(res))
	}
}

// getEventHandler godoc
// @Summary Obtener evento verificado
// @Description Lee los tres stores en paralelo y devuelve la vista mergeada según autoridad por campo. Las divergencias detectadas van como metadata, no como error: la lectura sigue disponible aunque los stores no estén perfectamente consistentes.
// @Tags events
// @Produce json
// @Param eventID path string true "ID del evento"
// @Success 200 {object} eventResponse
// @Failure 404 {string} string "no existe en ningún store"
// @Failure 503 {string} string "stores no disponibles"
// @Router /events/{eventID} [get]
func getEventHandler(orch *Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resolved, err := orch.GetEventByID(r.Context(), chi.URLParam(r, "eventID"))
		switch {
		case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrNotFoundAnywhere):
			http.Error(w, "event not found", http.StatusNotFound)
			return
		case errors.Is(err, ErrAllStoresUnavailable):
			http.Error(w, "stores unavailable", http.StatusServiceUnavailable)
			return
		case err != nil:
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, toEventResponse(resolved))
	}
}

// repairEventHandler godoc
// @Summary Reparar consistencia de un evento
// @Description Recalcula la vista verificada y propaga la copia autoritativa a los stores rezagados o desviados. Devuelve todas las acciones intentadas y todos los errores; 200 si no quedó ningún error (incluye el no-op de un registro ya consistente), 207 si hubo progreso parcial o divergencias sin autoridad que requieren escalamiento.
// @Tags events
// @Produce json
// @Param X-Debug-Wallet header string false "Solo en modo dev, dirección de wallet para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param eventID path string true "ID del evento"
// @Success 200 {object} repairResponse
// @Success 207 {object} repairResponse "Reparación parcial"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "no existe en ningún store"
// @Failure 503 {string} string "stores no disponibles"
// @Router /events/{eventID}/repair [post]
func repairEventHandler(orch *Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.Address) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		res, err := orch.RepairEventConsistency(r.Context(), chi.URLParam(r, "eventID"))
		switch {
		case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrNotFoundAnywhere):
			http.Error(w, "event not found", http.StatusNotFound)
			return
		case errors.Is(err, ErrAllStoresUnavailable):
			http.Error(w, "stores unavailable", http.StatusServiceUnavailable)
			return
		case err != nil:
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		status := http.StatusOK
		if !res.Success {
			status = http.StatusMultiStatus
		}
		writeJSON(w, status, toRepairResponse(res))
	}
}

func toProvenanceResponse(p ProvenanceFlags) provenanceResponse {
	return provenanceResponse{
		Ledger:      p.Ledger,
		Database:    p.Database,
		ObjectStore: p.ObjectStore,
	}
}

func toLedgerRefResponse(ref *LedgerRef) *ledgerRefResponse {
	if ref == nil {
		return nil
	}
	return &ledgerRefResponse{
		ChainID:    ref.ChainID,
		Contract:   ref.Contract,
		EventIndex: ref.EventIndex,
		TxHash:     ref.TxHash,
	}
}

func toBlobRefResponses(ref *ObjectStoreRef) (meta, banner *blobRefResponse) {
	if ref == nil {
		return nil, nil
	}
	if ref.Metadata.Hash != "" {
		meta = &blobRefResponse{Hash: ref.Metadata.Hash, URL: ref.Metadata.URL}
	}
	if ref.Banner != nil {
		banner = &blobRefResponse{Hash: ref.Banner.Hash, URL: ref.Banner.URL}
	}
	return meta, banner
}

func toCreationResponse(res CreationResult) creationResponse {
	out := creationResponse{
		ID:         res.ID,
		Provenance: toProvenanceResponse(res.Provenance),
		LedgerRef:  toLedgerRefResponse(res.LedgerRef),
		Revision:   res.Revision,
	}
	out.Metadata, out.Banner = toBlobRefResponses(res.ObjectRef)

	if len(res.Failures) > 0 {
		out.Failures = make(map[string]string, len(res.Failures))
		for k, err := range res.Failures {
			out.Failures[string(k)] = err.Error()
		}
	}
	return out
}

func toEventResponse(resolved ResolvedEvent) eventResponse {
	rec := resolved.Record
	out := eventResponse{
		ID:          rec.ID,
		Title:       rec.Title,
		Description: rec.Description,
		Location:    rec.Location,
		StartTime:   rec.StartTime,
		EndTime:     rec.EndTime,
		MaxCapacity: rec.MaxCapacity,
		TicketPrice: int64(rec.TicketPrice),
		Visibility:  string(rec.Visibility),
		Creator:     rec.CreatorAddress,
		LedgerRef:   toLedgerRefResponse(rec.LedgerRef),
		Revision:    rec.Revision,
		Provenance:  toProvenanceResponse(resolved.Provenance),
		State:       string(resolved.State()),
		Divergences: make([]divergenceResponse, 0, len(resolved.Divergences)),
	}
	out.Metadata, out.Banner = toBlobRefResponses(rec.ObjectRef)

	for _, d := range resolved.Divergences {
		values := make(map[string]string, len(d.Values))
		for _, sv := range d.Values {
			values[string(sv.Store)] = sv.Value
		}
		out.Divergences = append(out.Divergences, divergenceResponse{
			Field:  string(d.Field),
			Values: values,
		})
	}
	return out
}

func toRepairResponse(res RepairResult) repairResponse {
	out := repairResponse{
		Success: res.Success,
		Actions: make([]repairActionResponse, 0, len(res.Actions)),
		Errors:  make([]repairIssueResponse, 0, len(res.Errors)),
	}
	for _, a := range res.Actions {
		out.Actions = append(out.Actions, repairActionResponse{
			Store: string(a.Store),
			Op:    string(a.Op),
			Field: string(a.Field),
		})
	}
	for _, e := range res.Errors {
		out.Errors = append(out.Errors, repairIssueResponse{
			Store:  string(e.Store),
			Field:  string(e.Field),
			Reason: e.Reason,
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
