package emulator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/BearBump/RetailDesk/internal/integrations/carrier"
	"github.com/pkg/errors"
)

// Client talks to the carrier emulator used in dev and staging.
// The emulator returns the same nested SearchResults snapshot the SOAP
// client produces, as JSON.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:9000"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) GetShipmentStatus(ctx context.Context, pin string) (json.RawMessage, error) {
	pin, err := carrier.NormalizePin(pin)
	if err != nil {
		return nil, &carrier.Error{Kind: carrier.KindOther, Err: err}
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, &carrier.Error{Kind: carrier.KindEndpointNotFound, Err: errors.Wrap(err, "parse base url")}
	}
	u.Path = fmt.Sprintf("/v1/shipments/%s", url.PathEscape(pin))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &carrier.Error{Kind: carrier.KindOther, Err: errors.Wrap(err, "new request")}
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, carrier.FromTransport(errors.Wrap(err, "do request"))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &carrier.Error{Kind: carrier.KindOther, Err: errors.Wrap(err, "read body")}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &carrier.Error{Kind: carrier.KindOther, Err: errors.New("carrier emulator rate limit (429)")}
	}
	if resp.StatusCode/100 != 2 {
		return nil, carrier.FromStatus(resp.StatusCode, string(body))
	}
	if !json.Valid(body) {
		return nil, &carrier.Error{Kind: carrier.KindOther, Err: errors.New("emulator returned invalid json")}
	}

	return json.RawMessage(body), nil
}
