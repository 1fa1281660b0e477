package fedexcsp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tournevent/fedexcsp/pkg/shipping"
)

const (
	productionGatewayURL = "https://gateway.fedex.com/xml"
	testGatewayURL       = "https://gatewaybeta.fedex.com/xml"
)

// HTTPTransport is the production Transport implementation. It POSTs
// the XML document to the FedEx gateway and hands back the response
// body verbatim; carrier-level failures inside a well-formed reply are
// left for the response parsers.
type HTTPTransport struct {
	gatewayURL     string
	testGatewayURL string
	httpClient     *http.Client
}

// HTTPTransportConfig holds configuration for the HTTP transport.
type HTTPTransportConfig struct {
	GatewayURL     string
	TestGatewayURL string
	Timeout        time.Duration
}

// NewHTTPTransport creates a new HTTP transport for production use.
func NewHTTPTransport(cfg HTTPTransportConfig) *HTTPTransport {
	gateway := cfg.GatewayURL
	if gateway == "" {
		gateway = productionGatewayURL
	}
	testGateway := cfg.TestGatewayURL
	if testGateway == "" {
		testGateway = testGatewayURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HTTPTransport{
		gatewayURL:     gateway,
		testGatewayURL: testGateway,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Commit submits the request to the production or test gateway.
func (t *HTTPTransport) Commit(ctx context.Context, request string, test bool) (string, error) {
	url := t.gatewayURL
	if test {
		url = t.testGatewayURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(request))
	if err != nil {
		return "", &shipping.TransportError{Carrier: carrierName, Cause: err}
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", &shipping.TransportError{Carrier: carrierName, Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &shipping.TransportError{Carrier: carrierName, Cause: err}
	}

	// The gateway reports request-level failures inside the XML reply,
	// so anything with a body is handed to the parsers even on 500.
	if len(body) == 0 {
		return "", &shipping.TransportError{
			Carrier: carrierName,
			Cause:   fmt.Errorf("empty response from gateway (HTTP %d)", resp.StatusCode),
		}
	}

	return string(body), nil
}

var _ Transport = (*HTTPTransport)(nil)
