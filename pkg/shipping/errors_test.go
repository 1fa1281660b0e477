package shipping_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tournevent/fedexcsp/pkg/shipping"
)

func TestConfigurationError_Message(t *testing.T) {
	err := &shipping.ConfigurationError{Carrier: "FedEx", Reason: "missing credentials"}
	assert.Equal(t, "FedEx configuration error: missing credentials", err.Error())
}

func TestValidationError_Message(t *testing.T) {
	err := &shipping.ValidationError{Field: "postal code", Reason: "required"}
	assert.Equal(t, "invalid postal code: required", err.Error())
}

func TestResponseError_MessageIsVerbatim(t *testing.T) {
	err := &shipping.ResponseError{
		Carrier:  "FedEx",
		Severity: "ERROR",
		Code:     "521",
		Message:  "ERROR - 521: Destination postal code missing or invalid.",
	}
	assert.Equal(t, "ERROR - 521: Destination postal code missing or invalid.", err.Error())
}

func TestResponseError_IsMatchesByCode(t *testing.T) {
	err := &shipping.ResponseError{Code: "556", Message: "no valid services"}
	target := &shipping.ResponseError{Code: "556"}
	other := &shipping.ResponseError{Code: "521"}

	assert.True(t, errors.Is(err, target))
	assert.False(t, errors.Is(err, other))
}

func TestTransportError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := &shipping.TransportError{Carrier: "FedEx", Cause: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestIsResponseError(t *testing.T) {
	respErr := &shipping.ResponseError{Code: "521", Message: "bad postal code"}
	wrapped := fmt.Errorf("find rates: %w", respErr)

	assert.True(t, shipping.IsResponseError(respErr))
	assert.True(t, shipping.IsResponseError(wrapped))
	assert.False(t, shipping.IsResponseError(errors.New("plain")))
}

func TestIsTransportError(t *testing.T) {
	transportErr := &shipping.TransportError{Cause: errors.New("timeout")}

	assert.True(t, shipping.IsTransportError(transportErr))
	assert.False(t, shipping.IsTransportError(&shipping.ValidationError{Field: "x"}))
}
