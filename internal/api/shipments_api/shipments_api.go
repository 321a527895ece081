package shipments_api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/BearBump/RetailDesk/internal/api/httpmw"
	"github.com/BearBump/RetailDesk/internal/models"
	"github.com/BearBump/RetailDesk/internal/services/shipments"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Service interface {
	AddShipment(ctx context.Context, pin, userID string) (*models.TrackedShipment, error)
	RefreshShipment(ctx context.Context, id, userID string) (json.RawMessage, error)
	ListShipments(ctx context.Context, userID string) ([]*models.TrackedShipment, error)
	SweepStaleShipments(ctx context.Context, staleness time.Duration) (*shipments.SweepReport, error)
}

type ShipmentsAPI struct {
	svc       Service
	staleness time.Duration
	log       *zap.Logger
}

func New(svc Service, staleness time.Duration, log *zap.Logger) *ShipmentsAPI {
	if log == nil {
		log = zap.NewNop()
	}
	return &ShipmentsAPI{svc: svc, staleness: staleness, log: log}
}

// Routes registers the per-user endpoints. The router must already carry
// the auth middleware.
func (a *ShipmentsAPI) Routes(r chi.Router) {
	r.Get("/shipments", a.list)
	r.Post("/shipments", a.add)
	r.Post("/shipments/{id}/refresh", a.refresh)
}

type ShipmentView struct {
	ID                string          `json:"id"`
	Pin               string          `json:"pin"`
	Status            string          `json:"status"`
	StatusCode        string          `json:"status_code,omitempty"`
	Delivered         bool            `json:"delivered"`
	EstimatedDelivery string          `json:"estimated_delivery,omitempty"`
	LastEventAt       string          `json:"last_event_at,omitempty"`
	LastCheckedAt     *time.Time      `json:"last_checked_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	Details           json.RawMessage `json:"details,omitempty"`
}

func toView(sh *models.TrackedShipment, withDetails bool) ShipmentView {
	st := shipments.Normalize(sh.Details, sh.Status)
	v := ShipmentView{
		ID:                sh.ID,
		Pin:               sh.Pin,
		Status:            sh.Status,
		StatusCode:        st.Code,
		Delivered:         sh.Delivered,
		EstimatedDelivery: st.EstimatedDelivery,
		LastEventAt:       st.LastEventAt,
		LastCheckedAt:     sh.LastCheckedAt,
		CreatedAt:         sh.CreatedAt,
	}
	if withDetails && len(sh.Details) > 0 {
		v.Details = sh.Details
	}
	return v
}

type addRequest struct {
	Pin string `json:"pin"`
}

type listResponse struct {
	Shipments []ShipmentView `json:"shipments"`
}

type refreshResponse struct {
	ID      string          `json:"id"`
	Details json.RawMessage `json:"details"`
}

func (a *ShipmentsAPI) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpmw.UserID(r.Context())
	if !ok {
		httpmw.WriteError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	rows, err := a.svc.ListShipments(r.Context(), userID)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	out := listResponse{Shipments: make([]ShipmentView, 0, len(rows))}
	for _, sh := range rows {
		out.Shipments = append(out.Shipments, toView(sh, false))
	}
	httpmw.WriteJSON(w, http.StatusOK, out)
}

func (a *ShipmentsAPI) add(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpmw.UserID(r.Context())
	if !ok {
		httpmw.WriteError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	var req addRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		httpmw.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sh, err := a.svc.AddShipment(r.Context(), req.Pin, userID)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	httpmw.WriteJSON(w, http.StatusCreated, toView(sh, true))
}

func (a *ShipmentsAPI) refresh(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpmw.UserID(r.Context())
	if !ok {
		httpmw.WriteError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	id := chi.URLParam(r, "id")
	raw, err := a.svc.RefreshShipment(r.Context(), id, userID)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	httpmw.WriteJSON(w, http.StatusOK, refreshResponse{ID: id, Details: raw})
}

type cronResponse struct {
	Success bool                    `json:"success"`
	Results []shipments.SweepResult `json:"results,omitempty"`
	Message string                  `json:"message,omitempty"`
	Error   string                  `json:"error,omitempty"`
}

// Cron runs one sweep for an external scheduler. It must be guarded by
// httpmw.CronKey.
func (a *ShipmentsAPI) Cron(w http.ResponseWriter, r *http.Request) {
	rep, err := a.svc.SweepStaleShipments(r.Context(), a.staleness)
	if err != nil {
		a.log.Error("cron sweep", zap.Error(err))
		httpmw.WriteJSON(w, http.StatusInternalServerError, cronResponse{Error: err.Error()})
		return
	}
	if rep.NothingToDo {
		httpmw.WriteJSON(w, http.StatusOK, cronResponse{Success: true, Message: rep.Message})
		return
	}
	httpmw.WriteJSON(w, http.StatusOK, cronResponse{Success: true, Results: rep.Results})
}

func (a *ShipmentsAPI) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shipments.ErrInvalidInput):
		httpmw.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, shipments.ErrNotFound):
		httpmw.WriteError(w, http.StatusNotFound, "shipment not found")
	case errors.Is(err, shipments.ErrAlreadyTracked):
		httpmw.WriteError(w, http.StatusConflict, "shipment already tracked")
	case errors.Is(err, shipments.ErrCarrierUnavailable):
		httpmw.WriteError(w, http.StatusBadGateway, err.Error())
	default:
		a.log.Error("shipments request failed", zap.Error(err))
		httpmw.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
