package fedexcsp

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/fedexcsp/pkg/shipping"
)

func fixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func TestParseRegistrationResponse(t *testing.T) {
	resp, err := parseRegistrationResponse(fixture(t, "registration_response.xml"), true)
	require.NoError(t, err)

	assert.Equal(t, "Generated USER KEY", resp.Key)
	assert.Equal(t, "Generated USER PWD", resp.Password)
	assert.True(t, resp.Success)
	assert.True(t, resp.Test)
	assert.NotEmpty(t, resp.XML)
	assert.NotEmpty(t, resp.Params)
}

func TestParseSubscriptionResponse(t *testing.T) {
	resp, err := parseSubscriptionResponse(fixture(t, "subscription_response.xml"), true)
	require.NoError(t, err)

	assert.Equal(t, "Generated Meter Number", resp.MeterNumber)
	assert.True(t, resp.Success)
}

func TestParseVersionCaptureResponse(t *testing.T) {
	resp, err := parseVersionCaptureResponse(fixture(t, "version_capture_response.xml"), true)
	require.NoError(t, err)

	assert.Equal(t, "Version Capture Request", resp.CustomerTransactionID)
	assert.True(t, resp.Success)
}

func TestParseRateResponse(t *testing.T) {
	packages := testPackages()
	resp, err := parseRateResponse(fixture(t, "ottawa_to_beverly_hills_rate_response.xml"), true, packages)
	require.NoError(t, err)

	require.Len(t, resp.Rates, 1)
	rate := resp.Rates[0]
	assert.Equal(t, "FedEx", rate.Carrier)
	assert.Equal(t, "FEDEX_GROUND", rate.ServiceCode)
	assert.Equal(t, "FedEx Ground®", rate.ServiceName)
	assert.Equal(t, "CAD", rate.Currency)
	assert.Equal(t, int64(3836), rate.TotalPrice)

	// The carrier did not itemize, so every package appears with an
	// absent rate rather than being dropped.
	require.Len(t, rate.PackageRates, 2)
	assert.Equal(t, packages[0], rate.PackageRates[0].Package)
	assert.Equal(t, packages[1], rate.PackageRates[1].Package)
	assert.Nil(t, rate.PackageRates[0].Price)
	assert.Nil(t, rate.PackageRates[1].Price)

	assert.True(t, resp.Success)
	assert.True(t, resp.Test)
	assert.NotEmpty(t, resp.Params)
	assert.NotEmpty(t, resp.XML)
}

func TestParseRateResponse_NormalizesLegacyUKCurrency(t *testing.T) {
	raw := strings.ReplaceAll(fixture(t, "ottawa_to_beverly_hills_rate_response.xml"), "CAD", "UKL")

	resp, err := parseRateResponse(raw, true, testPackages())
	require.NoError(t, err)

	require.NotEmpty(t, resp.Rates)
	for _, rate := range resp.Rates {
		assert.Equal(t, "GBP", rate.Currency)
		assert.Equal(t, int64(3836), rate.TotalPrice)
	}
}

func TestParseRateResponse_CarrierError(t *testing.T) {
	_, err := parseRateResponse(fixture(t, "rate_error_response.xml"), true, testPackages())

	var respErr *shipping.ResponseError
	require.ErrorAs(t, err, &respErr)
	assert.Equal(t, "521", respErr.Code)
	assert.Contains(t, respErr.Message, "postal code")
	assert.Contains(t, respErr.Message, "missing")
}

func TestParseRateResponse_WarningIsSuccess(t *testing.T) {
	resp, err := parseRateResponse(fixture(t, "empty_rate_response.xml"), true, nil)
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, "WARNING - 556: There are no valid services available. ", resp.Message)
	assert.Empty(t, resp.Rates)
}

func TestParseTrackingResponse(t *testing.T) {
	resp, err := parseTrackingResponse(fixture(t, "tracking_response.xml"), true)
	require.NoError(t, err)

	assert.Equal(t, "077973360403984", resp.TrackingNumber)
	assert.Len(t, resp.ShipmentEvents, 6)

	for i := 1; i < len(resp.ShipmentEvents); i++ {
		assert.False(t, resp.ShipmentEvents[i].Time.Before(resp.ShipmentEvents[i-1].Time))
	}

	for _, event := range resp.ShipmentEvents {
		assert.NotNil(t, event.Location)
		assert.NotEqual(t, "Shipment information sent to FedEx", event.Name)
	}

	first := resp.ShipmentEvents[0]
	assert.Equal(t, "Picked up", first.Name)
	assert.Equal(t, "DES MOINES", first.Location.City)
}

func TestParseTrackingResponse_ReprocessingIsNoop(t *testing.T) {
	resp, err := parseTrackingResponse(fixture(t, "tracking_response.xml"), true)
	require.NoError(t, err)

	assert.Equal(t, resp.ShipmentEvents, processShipmentEvents(resp.ShipmentEvents))
}

func TestParseResponse_MalformedXML(t *testing.T) {
	_, err := parseRateResponse("not xml at all <", true, nil)
	var transportErr *shipping.TransportError
	assert.ErrorAs(t, err, &transportErr)
}

func TestMinorUnits(t *testing.T) {
	cases := map[string]int64{
		"38.36":  3836,
		"38.355": 3836, // rounded, not truncated
		"0.005":  1,
		"100":    10000,
		"0":      0,
	}
	for input, expected := range cases {
		got, err := minorUnits(input)
		require.NoError(t, err, input)
		assert.Equal(t, expected, got, input)
	}

	_, err := minorUnits("not-a-number")
	assert.Error(t, err)
}

func TestXMLToMap_RepeatedElements(t *testing.T) {
	raw := `<Reply><Item>a</Item><Item>b</Item><Single>c</Single></Reply>`

	params, err := xmlToMap(raw)
	require.NoError(t, err)

	reply := params["Reply"].(map[string]any)
	assert.Equal(t, []any{"a", "b"}, reply["Item"])
	assert.Equal(t, "c", reply["Single"])
}

func TestXMLToMap_NestedStructure(t *testing.T) {
	raw := fixture(t, "registration_response.xml")

	params, err := xmlToMap(raw)
	require.NoError(t, err)

	reply := params["RegisterWebCspUserReply"].(map[string]any)
	credential := reply["Credential"].(map[string]any)
	assert.Equal(t, "Generated USER KEY", credential["Key"])
	assert.Equal(t, "Generated USER PWD", credential["Password"])
}
