package shipments

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	FallbackAdd     = "Initial Check"
	FallbackRefresh = "Unknown"

	deliveredCode = "DLD"
)

// Status is what the engine derives from a raw carrier snapshot.
type Status struct {
	Text              string `json:"status"`
	Code              string `json:"status_code,omitempty"`
	Delivered         bool   `json:"delivered"`
	EstimatedDelivery string `json:"estimated_delivery,omitempty"`
	LastEventAt       string `json:"last_event_at,omitempty"`
	// FromCarrier is false when Text is the fallback literal.
	FromCarrier bool `json:"-"`
}

// Normalize extracts the status fields from a snapshot shaped as
// SearchResults.SearchResult[0].Shipment.packages.package[0]. Any level may be
// missing, or be a single object instead of a list; absent data yields the
// fallback text and delivered=false.
func Normalize(raw json.RawMessage, fallback string) Status {
	var shipment, pkg gjson.Result
	if gjson.ValidBytes(raw) {
		root := gjson.ParseBytes(raw)
		shipment = first(first(root.Get("SearchResults.SearchResult")).Get("Shipment"))
		pkg = first(shipment.Get("packages.package"))
	}

	st := Status{
		Code:              strings.TrimSpace(shipment.Get("status.code").String()),
		EstimatedDelivery: strings.TrimSpace(pkg.Get("estimatedDeliveryDate").String()),
		LastEventAt:       strings.TrimSpace(pkg.Get("lastEvent.dateTime").String()),
	}

	for _, candidate := range []string{
		pkg.Get("lastEvent.description").String(),
		shipment.Get("status.description").String(),
	} {
		if c := strings.TrimSpace(candidate); c != "" {
			st.Text = c
			st.FromCarrier = true
			break
		}
	}
	if st.Text == "" {
		st.Text = fallback
	}

	st.Delivered = strings.EqualFold(st.Code, deliveredCode) ||
		strings.Contains(strings.ToLower(st.Text), "delivered")
	return st
}

// first returns the first element of an array, or r itself when r is a single value.
func first(r gjson.Result) gjson.Result {
	if r.IsArray() {
		arr := r.Array()
		if len(arr) == 0 {
			return gjson.Result{}
		}
		return arr[0]
	}
	return r
}
