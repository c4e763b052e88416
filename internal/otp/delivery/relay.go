package delivery

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// RelayGateway reaches the user through an intermediate relay endpoint with
// a parameterized GET: <endpoint>?phone=<address>&code=<message>. This is
// the indirection shape used when the messaging credential lives on a
// separate host.
type RelayGateway struct {
	endpoint string
	client   *http.Client
}

func NewRelayGateway(endpoint string, timeout time.Duration) *RelayGateway {
	return &RelayGateway{
		endpoint: endpoint,
		client:   newClient(timeout),
	}
}

func (g *RelayGateway) Send(ctx context.Context, address, text string) error {
	if g.endpoint == "" {
		return &Error{Gateway: "relay", Err: fmt.Errorf("relay endpoint not configured")}
	}

	params := url.Values{}
	params.Set("phone", address)
	params.Set("code", text)
	full := g.endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return &Error{Gateway: "relay", Err: err}
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return &Error{Gateway: "relay", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{
			Gateway: "relay",
			Err:     fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	return nil
}
