package purolator

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/BearBump/RetailDesk/internal/integrations/carrier"
	"github.com/pkg/errors"
)

// Client calls the Purolator shipment tracking web service
// (TrackingByPinsOrReferences) over SOAP 1.1 with HTTP basic auth.
type Client struct {
	endpoint string
	key      string
	password string
	httpc    *http.Client
}

func New(endpoint, key, password string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		key:      key,
		password: password,
		httpc: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) GetShipmentStatus(ctx context.Context, pin string) (json.RawMessage, error) {
	if c.key == "" || c.password == "" {
		return nil, &carrier.Error{Kind: carrier.KindAuthFailed, Err: errors.New("carrier key or password is not configured")}
	}
	if c.endpoint == "" {
		return nil, &carrier.Error{Kind: carrier.KindEndpointNotFound, Err: errors.New("carrier endpoint is not configured")}
	}
	pin, err := carrier.NormalizePin(pin)
	if err != nil {
		return nil, &carrier.Error{Kind: carrier.KindOther, Err: err}
	}

	payload, err := xml.Marshal(newRequest(pin))
	if err != nil {
		return nil, &carrier.Error{Kind: carrier.KindOther, Err: errors.Wrap(err, "marshal request")}
	}
	body := append([]byte(xml.Header), payload...)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &carrier.Error{Kind: carrier.KindEndpointNotFound, Err: errors.Wrap(err, "new request")}
	}
	req.SetBasicAuth(c.key, c.password)
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", soapAction)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, carrier.FromTransport(errors.Wrap(err, "do request"))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &carrier.Error{Kind: carrier.KindOther, Err: errors.Wrap(err, "read body")}
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return nil, carrier.FromStatus(resp.StatusCode, string(respBody))
	}

	var env responseEnvelope
	if err := xml.Unmarshal(respBody, &env); err != nil {
		if resp.StatusCode/100 != 2 {
			return nil, carrier.FromStatus(resp.StatusCode, string(respBody))
		}
		return nil, &carrier.Error{Kind: carrier.KindOther, Err: errors.Wrap(err, "decode soap response")}
	}
	if f := env.Body.Fault; f != nil {
		return nil, &carrier.Error{Kind: carrier.KindOther, Err: fmt.Errorf("soap fault %s: %s", f.Code, f.String)}
	}
	if resp.StatusCode/100 != 2 {
		return nil, carrier.FromStatus(resp.StatusCode, string(respBody))
	}

	r := env.Body.Response
	if r == nil {
		return nil, &carrier.Error{Kind: carrier.KindOther, Err: errors.New("empty tracking response")}
	}
	if errs := r.ResponseInformation.Errors; len(errs) > 0 && len(r.SearchResults.SearchResult) == 0 {
		return nil, &carrier.Error{Kind: carrier.KindOther, Err: fmt.Errorf("%s: %s", errs[0].Code, errs[0].Description)}
	}

	out, err := json.Marshal(r)
	if err != nil {
		return nil, &carrier.Error{Kind: carrier.KindOther, Err: errors.Wrap(err, "encode snapshot")}
	}
	return out, nil
}
