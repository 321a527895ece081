package inventory_api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BearBump/RetailDesk/internal/models"
	"github.com/BearBump/RetailDesk/internal/services/inventory"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

type stubRepo struct{ err error }

func (s stubRepo) FindInventoryByUPC(_ context.Context, upc string) ([]*models.InventoryItem, error) {
	return []*models.InventoryItem{{SKU: "420001", UPC: upc, Colour: "Navy", Size: "M"}}, s.err
}

func (s stubRepo) FindInventoryBySKU(_ context.Context, sku string) ([]*models.InventoryItem, error) {
	return nil, s.err
}

func (s stubRepo) FindInventoryByStyleNumber(_ context.Context, style string) ([]*models.InventoryItem, error) {
	return nil, s.err
}

func newRouter(repo inventory.Repository) http.Handler {
	r := chi.NewRouter()
	r.Route("/api", New(inventory.New(repo, nil), nil).Routes)
	return r
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestLookup(t *testing.T) {
	h := newRouter(stubRepo{})

	rec := get(h, "/api/inventory/062345678901")
	require.Equal(t, http.StatusOK, rec.Code)
	var res inventory.LookupResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, inventory.SearchUPC, res.SearchType)
	require.Equal(t, "0062345678901", res.Items[0].UPC)

	require.Equal(t, http.StatusNotFound, get(h, "/api/inventory/420001").Code)
	require.Equal(t, http.StatusBadRequest, get(h, "/api/inventory/12345678901").Code)
}

func TestLookup_StoreError(t *testing.T) {
	h := newRouter(stubRepo{err: errors.New("db down")})
	require.Equal(t, http.StatusInternalServerError, get(h, "/api/inventory/ABC1").Code)
}
