package inventory_api

import (
	"context"
	"errors"
	"net/http"

	"github.com/BearBump/RetailDesk/internal/api/httpmw"
	"github.com/BearBump/RetailDesk/internal/services/inventory"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Service interface {
	Lookup(ctx context.Context, code string) (*inventory.LookupResult, error)
}

type InventoryAPI struct {
	svc Service
	log *zap.Logger
}

func New(svc Service, log *zap.Logger) *InventoryAPI {
	if log == nil {
		log = zap.NewNop()
	}
	return &InventoryAPI{svc: svc, log: log}
}

func (a *InventoryAPI) Routes(r chi.Router) {
	r.Get("/inventory/{code}", a.lookup)
}

func (a *InventoryAPI) lookup(w http.ResponseWriter, r *http.Request) {
	res, err := a.svc.Lookup(r.Context(), chi.URLParam(r, "code"))
	switch {
	case err == nil:
		httpmw.WriteJSON(w, http.StatusOK, res)
	case errors.Is(err, inventory.ErrInvalidCode):
		httpmw.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, inventory.ErrItemNotFound):
		httpmw.WriteError(w, http.StatusNotFound, "item not found")
	default:
		a.log.Error("inventory lookup", zap.Error(err))
		httpmw.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
