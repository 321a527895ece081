package shipments

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize_NoTrackingDataFallsBack(t *testing.T) {
	for _, raw := range []string{
		``,
		`not json`,
		`{}`,
		`{"SearchResults":{"SearchResult":[]}}`,
		`{"SearchResults":{"SearchResult":[{"trackingId":"1"}]}}`,
		`{"SearchResults":{"SearchResult":[{"Shipment":{"packages":{"package":[]}}}]}}`,
	} {
		st := Normalize(json.RawMessage(raw), FallbackAdd)
		require.Equal(t, FallbackAdd, st.Text, raw)
		require.False(t, st.Delivered, raw)
		require.False(t, st.FromCarrier, raw)
	}

	st := Normalize(json.RawMessage(`{}`), FallbackRefresh)
	require.Equal(t, "Unknown", st.Text)
}

func TestNormalize_DeliveredByCode(t *testing.T) {
	for _, code := range []string{"DLD", "dld", "Dld"} {
		raw := `{"SearchResults":{"SearchResult":[{"Shipment":{"status":{"code":"` + code + `"}}}]}}`
		st := Normalize(json.RawMessage(raw), FallbackRefresh)
		require.True(t, st.Delivered, code)
		require.Equal(t, FallbackRefresh, st.Text)
	}
}

func TestNormalize_DeliveredByText(t *testing.T) {
	raw := `{"SearchResults":{"SearchResult":[{"Shipment":{"packages":{"package":[
		{"lastEvent":{"description":"Package Delivered to front desk"}}]}}}]}}`
	st := Normalize(json.RawMessage(raw), FallbackAdd)
	require.True(t, st.Delivered)
	require.True(t, st.FromCarrier)
	require.Equal(t, "Package Delivered to front desk", st.Text)
	require.Empty(t, st.Code)
}

func TestNormalize_PrefersLastEventOverShipmentStatus(t *testing.T) {
	raw := `{"SearchResults":{"SearchResult":[{"Shipment":{
		"status":{"code":"ITR","description":"In Transit"},
		"packages":{"package":[
			{"estimatedDeliveryDate":"2026-10-17","lastEvent":{"description":"Arrived at sort facility","dateTime":"2026-10-15T08:00:00"}},
			{"lastEvent":{"description":"second package"}}
		]}}}]}}`
	st := Normalize(json.RawMessage(raw), FallbackAdd)
	require.Equal(t, "Arrived at sort facility", st.Text)
	require.Equal(t, "ITR", st.Code)
	require.Equal(t, "2026-10-17", st.EstimatedDelivery)
	require.Equal(t, "2026-10-15T08:00:00", st.LastEventAt)
	require.False(t, st.Delivered)
}

func TestNormalize_ShipmentStatusWhenNoEvent(t *testing.T) {
	raw := `{"SearchResults":{"SearchResult":[{"Shipment":{"status":{"code":"ITR","description":"  In Transit "}}}]}}`
	st := Normalize(json.RawMessage(raw), FallbackAdd)
	require.Equal(t, "In Transit", st.Text)
	require.True(t, st.FromCarrier)
}

func TestNormalize_SingleObjectsInsteadOfLists(t *testing.T) {
	raw := `{"SearchResults":{"SearchResult":{"Shipment":{"packages":{"package":
		{"lastEvent":{"description":"Out for delivery"}}}}}}}`
	st := Normalize(json.RawMessage(raw), FallbackAdd)
	require.Equal(t, "Out for delivery", st.Text)
	require.False(t, st.Delivered)
}
