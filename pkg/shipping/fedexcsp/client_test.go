package fedexcsp_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/fedexcsp/pkg/shipping"
	"github.com/tournevent/fedexcsp/pkg/shipping/fedexcsp"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func testConfig() fedexcsp.Config {
	return fedexcsp.Config{
		Credentials: fedexcsp.Credentials{
			Account:              "3333",
			Login:                "4444",
			Key:                  "5555",
			Password:             "6666",
			CSPKey:               "1111",
			CSPPassword:          "2222",
			ClientProductID:      "7777",
			ClientProductVersion: "8888",
		},
	}
}

func newTestClient(t *testing.T, mock *fedexcsp.MockTransport) *fedexcsp.Client {
	t.Helper()
	logger := otelzap.New(zap.NewNop())
	client, err := fedexcsp.NewWithTransport(testConfig(), mock, logger, nil)
	require.NoError(t, err)
	return client
}

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func fixtureTransport(t *testing.T, name string) *fedexcsp.MockTransport {
	t.Helper()
	mock := fedexcsp.NewMockTransport()
	mock.OnCommit = func(ctx context.Context, request string, test bool) (string, error) {
		return loadFixture(t, name), nil
	}
	return mock
}

func userAddressFixture() shipping.Location {
	return shipping.Location{
		Phone:       "user_phone",
		Fax:         "user_fax",
		Address1:    "user_street_lines",
		City:        "user_city",
		Province:    "user_state_code",
		CountryCode: "CA",
		PostalCode:  "user_postal_code",
		CompanyName: "user_company_name",
	}
}

func shippingOriginFixture() shipping.Location {
	return shipping.Location{
		Phone:       "shipping_phone",
		Fax:         "shipping_fax",
		Address1:    "shipping_street_lines",
		City:        "shipping_city",
		Province:    "shipping_state_code",
		CountryCode: "CA",
		PostalCode:  "shipping_postal_code",
	}
}

func registrationParamsFixture() fedexcsp.RegistrationParams {
	return fedexcsp.RegistrationParams{
		Account:            "000000000",
		ClientRegion:       "US",
		UserAddress:        userAddressFixture(),
		UserShippingOrigin: shippingOriginFixture(),
		UserFirstName:      "Your F!st Name",
		UserLastName:       "Your last name",
		UserEmail:          "abc@xyz.com",
		Test:               true,
	}
}

func TestNew_CredentialRequirements(t *testing.T) {
	logger := otelzap.New(zap.NewNop())

	cases := []struct {
		name  string
		creds fedexcsp.Credentials
		valid bool
	}{
		{"empty", fedexcsp.Credentials{}, false},
		{"login only", fedexcsp.Credentials{Login: "999999999"}, false},
		{"password only", fedexcsp.Credentials{Password: "7777777"}, false},
		{"login and password", fedexcsp.Credentials{Login: "999999999", Password: "7777777"}, true},
		{"csp pair", fedexcsp.Credentials{CSPKey: "999999999", CSPPassword: "7777777"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := fedexcsp.New(fedexcsp.Config{Credentials: tc.creds, UseMock: true}, logger, nil)
			if tc.valid {
				assert.NoError(t, err)
			} else {
				var configErr *shipping.ConfigurationError
				assert.ErrorAs(t, err, &configErr)
			}
		})
	}
}

func TestClient_Name(t *testing.T) {
	client := newTestClient(t, fedexcsp.NewMockTransport())
	assert.Equal(t, "FedEx", client.Name())
}

func TestClient_RegisterUser(t *testing.T) {
	mock := fixtureTransport(t, "registration_response.xml")
	client := newTestClient(t, mock)

	resp, err := client.RegisterUser(context.Background(), registrationParamsFixture())
	require.NoError(t, err)

	assert.Equal(t, "Generated USER KEY", resp.Key)
	assert.Equal(t, "Generated USER PWD", resp.Password)
	assert.True(t, resp.Success)
	assert.True(t, resp.Test)

	require.Len(t, mock.Requests, 1)
	assert.Contains(t, mock.Requests[0], "<RegisterWebCspUserRequest")
	assert.Contains(t, mock.Requests[0], "<AccountNumber>000000000</AccountNumber>")
}

func TestClient_RegisterUser_ValidationFailsBeforeCommit(t *testing.T) {
	mock := fedexcsp.NewMockTransport()
	client := newTestClient(t, mock)

	params := registrationParamsFixture()
	params.UserEmail = ""

	_, err := client.RegisterUser(context.Background(), params)

	var validationErr *shipping.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Empty(t, mock.Requests, "no network call should be attempted")
}

func TestClient_SubscribeUser(t *testing.T) {
	mock := fixtureTransport(t, "subscription_response.xml")
	client := newTestClient(t, mock)

	resp, err := client.SubscribeUser(context.Background(), fedexcsp.SubscriptionParams{
		UserFirstName:      "Your",
		UserLastName:       "Name",
		UserEmail:          "abc@xyz.com",
		UserAddress:        userAddressFixture(),
		UserShippingOrigin: shippingOriginFixture(),
		Test:               true,
	})
	require.NoError(t, err)

	assert.Equal(t, "Generated Meter Number", resp.MeterNumber)
	assert.True(t, resp.Success)
	assert.True(t, resp.Test)
}

func TestClient_VersionCapture(t *testing.T) {
	mock := fixtureTransport(t, "version_capture_response.xml")
	client := newTestClient(t, mock)

	resp, err := client.VersionCapture(context.Background(), "Version Capture Request", fedexcsp.VersionCaptureParams{
		OriginLocationID:      "VXYZ",
		VendorProductPlatform: "Windows OS",
		Test:                  true,
	})
	require.NoError(t, err)

	assert.Equal(t, "Version Capture Request", resp.CustomerTransactionID)
	assert.True(t, resp.Success)
}

func ottawaFixture() shipping.Location {
	return shipping.Location{
		CountryCode: "CA",
		Province:    "ON",
		City:        "Ottawa",
		Address1:    "110 Laurier Avenue West",
		PostalCode:  "K1R6A7",
	}
}

func bareBeverlyHillsFixture() shipping.Location {
	return shipping.Location{CountryCode: "US", PostalCode: "90210"}
}

func packagesFixture() []shipping.Package {
	return []shipping.Package{
		{ID: "book", Weight: 0.25, WeightUnit: shipping.WeightKG},
		{ID: "wii", Weight: 3.401, WeightUnit: shipping.WeightKG},
	}
}

func TestClient_FindRates_OttawaToBeverlyHills(t *testing.T) {
	mock := fixtureTransport(t, "ottawa_to_beverly_hills_rate_response.xml")
	client := newTestClient(t, mock)

	resp, err := client.FindRates(context.Background(),
		ottawaFixture(), bareBeverlyHillsFixture(), packagesFixture(),
		fedexcsp.RateParams{Test: true, ShipTime: time.Date(2009, 7, 20, 12, 1, 55, 0, time.UTC)})
	require.NoError(t, err)

	require.Len(t, resp.Rates, 1)
	rate := resp.Rates[0]
	assert.Equal(t, "FedEx Ground®", rate.ServiceName)
	assert.Equal(t, int64(3836), rate.TotalPrice)
	assert.Equal(t, "CAD", rate.Currency)
	assert.Equal(t, "FedEx", rate.Carrier)

	require.Len(t, rate.PackageRates, 2)
	assert.Equal(t, "book", rate.PackageRates[0].Package.ID)
	assert.Equal(t, "wii", rate.PackageRates[1].Package.ID)
	assert.Nil(t, rate.PackageRates[0].Price)

	assert.True(t, resp.Success, resp.Message)
	assert.True(t, resp.Test)
	assert.NotEmpty(t, resp.Params)
	assert.NotEmpty(t, resp.XML)
}

func TestClient_FindRates_LegacyUKCurrency(t *testing.T) {
	mock := fedexcsp.NewMockTransport()
	mock.OnCommit = func(ctx context.Context, request string, test bool) (string, error) {
		return strings.ReplaceAll(loadFixture(t, "ottawa_to_beverly_hills_rate_response.xml"), "CAD", "UKL"), nil
	}
	client := newTestClient(t, mock)

	resp, err := client.FindRates(context.Background(),
		ottawaFixture(), bareBeverlyHillsFixture(), packagesFixture(),
		fedexcsp.RateParams{Test: true})
	require.NoError(t, err)

	require.NotEmpty(t, resp.Rates)
	for _, rate := range resp.Rates {
		assert.Equal(t, "GBP", rate.Currency)
		assert.Equal(t, int64(3836), rate.TotalPrice)
	}
}

func TestClient_FindRates_CarrierReportsMissingPostalCode(t *testing.T) {
	mock := fixtureTransport(t, "rate_error_response.xml")
	client := newTestClient(t, mock)

	_, err := client.FindRates(context.Background(),
		shipping.Location{PostalCode: "40524"}, shipping.Location{PostalCode: "40515"},
		packagesFixture(), fedexcsp.RateParams{Test: true})

	var respErr *shipping.ResponseError
	require.ErrorAs(t, err, &respErr)
	assert.Contains(t, strings.ToLower(respErr.Message), "postal code")
	assert.Contains(t, strings.ToLower(respErr.Message), "missing")
}

func TestClient_FindRates_TransportErrorPassesThrough(t *testing.T) {
	mock := fedexcsp.NewMockTransport()
	mock.SimulateErrors = true
	client := newTestClient(t, mock)

	_, err := client.FindRates(context.Background(),
		ottawaFixture(), bareBeverlyHillsFixture(), packagesFixture(),
		fedexcsp.RateParams{Test: true})

	assert.True(t, shipping.IsTransportError(err))
}

func TestClient_FindRates_TestModeReachesTransport(t *testing.T) {
	var committedTest bool
	mock := fedexcsp.NewMockTransport()
	mock.OnCommit = func(ctx context.Context, request string, test bool) (string, error) {
		committedTest = test
		return loadFixture(t, "ottawa_to_beverly_hills_rate_response.xml"), nil
	}
	client := newTestClient(t, mock)

	resp, err := client.FindRates(context.Background(),
		ottawaFixture(), bareBeverlyHillsFixture(), packagesFixture(),
		fedexcsp.RateParams{Test: true})
	require.NoError(t, err)

	assert.True(t, committedTest)
	assert.True(t, resp.Test)
}

func TestClient_FindTrackingInfo(t *testing.T) {
	mock := fixtureTransport(t, "tracking_response.xml")
	client := newTestClient(t, mock)

	resp, err := client.FindTrackingInfo(context.Background(), "077973360403984", fedexcsp.TrackingParams{Test: true})
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
}

func TestClient_FindTrackingInfo_EmptyNumberFailsFast(t *testing.T) {
	mock := fedexcsp.NewMockTransport()
	client := newTestClient(t, mock)

	_, err := client.FindTrackingInfo(context.Background(), "", fedexcsp.TrackingParams{})

	var validationErr *shipping.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Empty(t, mock.Requests)
}

func TestClient_New_WithMockTransport(t *testing.T) {
	logger := otelzap.New(zap.NewNop())
	cfg := testConfig()
	cfg.UseMock = true

	client, err := fedexcsp.New(cfg, logger, nil)
	require.NoError(t, err)

	resp, err := client.FindRates(context.Background(),
		ottawaFixture(), bareBeverlyHillsFixture(), packagesFixture(),
		fedexcsp.RateParams{Test: true})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.Rates)
}
