package fedexcsp

import (
	"context"
)

// Transport submits a carrier XML request and returns the raw XML
// response. This abstraction keeps the request builders and response
// parsers free of network concerns and allows fixture-backed mock
// implementations during testing.
//
// The test flag selects the carrier's test gateway; transport-level
// failures (network, timeout) are returned as *shipping.TransportError
// and are never interpreted here.
type Transport interface {
	Commit(ctx context.Context, request string, test bool) (string, error)
}
