package fake

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"time"

	"github.com/BearBump/RetailDesk/internal/integrations/carrier"
)

// FakeClient is an in-process carrier used when no real carrier is configured.
// The snapshot is deterministic per PIN: roughly 20% of PINs come back delivered.
type FakeClient struct {
	now func() time.Time
}

func New() *FakeClient { return &FakeClient{now: time.Now} }

func (f *FakeClient) GetShipmentStatus(ctx context.Context, pin string) (json.RawMessage, error) {
	pin, err := carrier.NormalizePin(pin)
	if err != nil {
		return nil, &carrier.Error{Kind: carrier.KindOther, Err: err}
	}
	now := f.now().UTC()

	h := fnv.New32a()
	_, _ = h.Write([]byte(pin))
	v := h.Sum32()

	code, desc, last := "ITR", "In Transit", "Departed sort facility"
	eta := now.AddDate(0, 0, int(v%4)+1).Format("2006-01-02")
	if v%5 == 0 {
		code, desc, last = "DLD", "Delivered", "Delivered to front door"
		eta = now.Format("2006-01-02")
	}

	snapshot := map[string]any{
		"SearchResults": map[string]any{
			"SearchResult": []any{
				map[string]any{
					"trackingId": pin,
					"Shipment": map[string]any{
						"pin":    pin,
						"status": map[string]any{"code": code, "description": desc},
						"packages": map[string]any{
							"package": []any{
								map[string]any{
									"pin":                   pin,
									"estimatedDeliveryDate": eta,
									"lastEvent": map[string]any{
										"description": last,
										"dateTime":    now.Format(time.RFC3339),
									},
								},
							},
						},
					},
				},
			},
		},
	}
	return json.Marshal(snapshot)
}
