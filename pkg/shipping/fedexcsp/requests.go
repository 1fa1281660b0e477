package fedexcsp

import (
	"encoding/xml"
	"time"

	"github.com/tournevent/fedexcsp/pkg/shipping"
)

// Credentials holds the FedEx account identity used on every call.
// A credential set is usable only if it supplies either {Login,
// Password} or {CSPKey, CSPPassword}; New enforces this.
type Credentials struct {
	Account              string
	Login                string // meter number issued on subscription
	Key                  string
	Password             string
	CSPKey               string
	CSPPassword          string
	CSPSolutionID        string
	ClientProductID      string
	ClientProductVersion string
	ClientRegion         string // "US" or "CA"
}

func (c Credentials) valid() bool {
	if c.Login != "" && c.Password != "" {
		return true
	}
	return c.CSPKey != "" && c.CSPPassword != ""
}

// RegistrationParams are the inputs to RegisterUser.
type RegistrationParams struct {
	Account            string
	UserAddress        shipping.Location
	UserShippingOrigin shipping.Location
	UserFirstName      string
	UserLastName       string
	UserEmail          string
	ClientRegion       string
	Test               bool
}

// SubscriptionParams are the inputs to SubscribeUser. The key and
// password issued by a prior registration must already be present on
// the client's credentials.
type SubscriptionParams struct {
	UserFirstName      string
	UserLastName       string
	UserEmail          string
	UserAddress        shipping.Location
	UserShippingOrigin shipping.Location
	Test               bool
}

// VersionCaptureParams are the inputs to VersionCapture.
type VersionCaptureParams struct {
	OriginLocationID      string
	VendorProductPlatform string
	Test                  bool
}

// RateParams are the per-call options for FindRates. ShipTime defaults
// to the client clock when zero.
type RateParams struct {
	ShipTime time.Time
	Test     bool
}

// TrackingParams are the per-call options for FindTrackingInfo.
type TrackingParams struct {
	Test bool
}

// ============================================================================
// XML request structures (FedEx published schema)
// ============================================================================

type credential struct {
	Key      string `xml:"Key"`
	Password string `xml:"Password"`
}

type webAuthenticationDetail struct {
	XMLName        xml.Name    `xml:"WebAuthenticationDetail"`
	CSPCredential  *credential `xml:"CspCredential,omitempty"`
	UserCredential *credential `xml:"UserCredential,omitempty"`
}

type clientDetail struct {
	XMLName              xml.Name `xml:"ClientDetail"`
	AccountNumber        string   `xml:"AccountNumber,omitempty"`
	MeterNumber          string   `xml:"MeterNumber,omitempty"`
	ClientProductID      string   `xml:"ClientProductId,omitempty"`
	ClientProductVersion string   `xml:"ClientProductVersion,omitempty"`
	Region               string   `xml:"Region,omitempty"`
}

type transactionDetail struct {
	XMLName               xml.Name `xml:"TransactionDetail"`
	CustomerTransactionID string   `xml:"CustomerTransactionId"`
}

type versionBlock struct {
	XMLName      xml.Name `xml:"Version"`
	ServiceID    string   `xml:"ServiceId"`
	Major        int      `xml:"Major"`
	Intermediate int      `xml:"Intermediate"`
	Minor        int      `xml:"Minor"`
}

type xmlAddress struct {
	StreetLines         []string `xml:"StreetLines,omitempty"`
	City                string   `xml:"City,omitempty"`
	StateOrProvinceCode string   `xml:"StateOrProvinceCode,omitempty"`
	PostalCode          string   `xml:"PostalCode,omitempty"`
	CountryCode         string   `xml:"CountryCode,omitempty"`
}

type personName struct {
	FirstName string `xml:"FirstName"`
	LastName  string `xml:"LastName"`
}

type xmlContact struct {
	PersonName   *personName `xml:"PersonName,omitempty"`
	CompanyName  string      `xml:"CompanyName,omitempty"`
	PhoneNumber  string      `xml:"PhoneNumber,omitempty"`
	FaxNumber    string      `xml:"FaxNumber,omitempty"`
	EmailAddress string      `xml:"EMailAddress,omitempty"`
}

type contactAndAddress struct {
	Contact xmlContact `xml:"Contact"`
	Address xmlAddress `xml:"Address"`
}

type registrationRequest struct {
	XMLName               xml.Name `xml:"RegisterWebCspUserRequest"`
	Xmlns                 string   `xml:"xmlns,attr"`
	WebAuthentication     webAuthenticationDetail
	ClientDetail          clientDetail
	TransactionDetail     transactionDetail
	Version               versionBlock
	BillingAddress        xmlAddress        `xml:"BillingAddress"`
	UserContactAndAddress contactAndAddress `xml:"UserContactAndAddress"`
}

type subscriptionRequest struct {
	XMLName           xml.Name `xml:"SubscriptionRequest"`
	Xmlns             string   `xml:"xmlns,attr"`
	WebAuthentication webAuthenticationDetail
	ClientDetail      clientDetail
	TransactionDetail transactionDetail
	Version           versionBlock
	CSPSolutionID          string            `xml:"CspSolutionId,omitempty"`
	CSPType                string            `xml:"CspType"`
	Subscriber             contactAndAddress `xml:"Subscriber"`
	AccountShippingAddress xmlAddress        `xml:"AccountShippingAddress"`
}

type versionCaptureRequest struct {
	XMLName               xml.Name `xml:"VersionCaptureRequest"`
	Xmlns                 string   `xml:"xmlns,attr"`
	WebAuthentication     webAuthenticationDetail
	ClientDetail          clientDetail
	TransactionDetail     transactionDetail
	Version               versionBlock
	OriginLocationID      string `xml:"OriginLocationId"`
	VendorProductPlatform string `xml:"VendorProductPlatform"`
}

type weightBlock struct {
	Units string  `xml:"Units"`
	Value float64 `xml:"Value"`
}

type dimensionsBlock struct {
	Length float64 `xml:"Length"`
	Width  float64 `xml:"Width"`
	Height float64 `xml:"Height"`
	Units  string  `xml:"Units"`
}

type requestedPackage struct {
	SequenceNumber int              `xml:"SequenceNumber"`
	Weight         weightBlock      `xml:"Weight"`
	Dimensions     *dimensionsBlock `xml:"Dimensions,omitempty"`
}

type shipmentParty struct {
	Address xmlAddress `xml:"Address"`
}

type requestedShipment struct {
	XMLName           xml.Name           `xml:"RequestedShipment"`
	ShipTimestamp     string             `xml:"ShipTimestamp"`
	DropoffType       string             `xml:"DropoffType"`
	PackagingType     string             `xml:"PackagingType"`
	Shipper           shipmentParty      `xml:"Shipper"`
	Recipient         shipmentParty      `xml:"Recipient"`
	RateRequestTypes  []string           `xml:"RateRequestTypes"`
	PackageCount      int                `xml:"PackageCount"`
	RequestedPackages []requestedPackage `xml:"RequestedPackages"`
}

type rateRequest struct {
	XMLName                     xml.Name `xml:"RateRequest"`
	Xmlns                       string   `xml:"xmlns,attr"`
	WebAuthentication           webAuthenticationDetail
	ClientDetail                clientDetail
	TransactionDetail           transactionDetail
	Version                     versionBlock
	ReturnTransitAndCommitTimes bool              `xml:"ReturnTransitAndCommitTimes"`
	RequestedShipment           requestedShipment `xml:"RequestedShipment"`
}

type packageIdentifier struct {
	Value string `xml:"Value"`
	Type  string `xml:"Type"`
}

type trackRequest struct {
	XMLName              xml.Name `xml:"TrackRequest"`
	Xmlns                string   `xml:"xmlns,attr"`
	WebAuthentication    webAuthenticationDetail
	ClientDetail         clientDetail
	TransactionDetail    transactionDetail
	Version              versionBlock
	PackageIdentifier    packageIdentifier `xml:"PackageIdentifier"`
	IncludeDetailedScans bool              `xml:"IncludeDetailedScans"`
}

// ============================================================================
// Request builders
// ============================================================================

const (
	registrationNamespace = "http://fedex.com/ws/registration/v2"
	rateNamespace         = "http://fedex.com/ws/rate/v6"
	trackNamespace        = "http://fedex.com/ws/track/v3"
)

func marshalRequest(v any) (string, error) {
	out, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return xml.Header + string(out), nil
}

func (c Credentials) authDetail() webAuthenticationDetail {
	detail := webAuthenticationDetail{}
	if c.CSPKey != "" {
		detail.CSPCredential = &credential{Key: c.CSPKey, Password: c.CSPPassword}
	}
	if c.Key != "" {
		detail.UserCredential = &credential{Key: c.Key, Password: c.Password}
	}
	return detail
}

func (c Credentials) clientDetail(account string) clientDetail {
	if account == "" {
		account = c.Account
	}
	return clientDetail{
		AccountNumber:        account,
		MeterNumber:          c.Login,
		ClientProductID:      c.ClientProductID,
		ClientProductVersion: c.ClientProductVersion,
		Region:               c.ClientRegion,
	}
}

func locationAddress(loc shipping.Location) xmlAddress {
	var streets []string
	for _, line := range []string{loc.Address1, loc.Address2, loc.Address3} {
		if line != "" {
			streets = append(streets, line)
		}
	}
	return xmlAddress{
		StreetLines:         streets,
		City:                loc.City,
		StateOrProvinceCode: loc.Province,
		PostalCode:          loc.PostalCode,
		CountryCode:         loc.CountryCode,
	}
}

func validateRegistrationParams(p RegistrationParams) error {
	switch {
	case p.Account == "":
		return &shipping.ValidationError{Field: "account", Reason: "required"}
	case p.UserFirstName == "":
		return &shipping.ValidationError{Field: "user first name", Reason: "required"}
	case p.UserLastName == "":
		return &shipping.ValidationError{Field: "user last name", Reason: "required"}
	case p.UserEmail == "":
		return &shipping.ValidationError{Field: "user email", Reason: "required"}
	case p.UserAddress.CountryCode == "" || p.UserAddress.PostalCode == "":
		return &shipping.ValidationError{Field: "user address", Reason: "postal code and country code are required"}
	case p.UserShippingOrigin.CountryCode == "" || p.UserShippingOrigin.PostalCode == "":
		return &shipping.ValidationError{Field: "user shipping origin", Reason: "postal code and country code are required"}
	}
	return nil
}

// buildRegistrationRequest produces the RegisterWebCspUser document.
// Registration runs before any end-user credential exists, so the
// authentication block carries only the CSP credential.
func buildRegistrationRequest(creds Credentials, p RegistrationParams) (string, error) {
	if err := validateRegistrationParams(p); err != nil {
		return "", err
	}

	region := p.ClientRegion
	if region == "" {
		region = creds.ClientRegion
	}

	req := registrationRequest{
		Xmlns: registrationNamespace,
		WebAuthentication: webAuthenticationDetail{
			CSPCredential: &credential{Key: creds.CSPKey, Password: creds.CSPPassword},
		},
		ClientDetail: clientDetail{
			AccountNumber:        p.Account,
			ClientProductID:      creds.ClientProductID,
			ClientProductVersion: creds.ClientProductVersion,
			Region:               region,
		},
		TransactionDetail: transactionDetail{CustomerTransactionID: "RegisterWebCspUserRequest"},
		Version:           versionBlock{ServiceID: "fcas", Major: 2},
		BillingAddress:    locationAddress(p.UserAddress),
		UserContactAndAddress: contactAndAddress{
			Contact: xmlContact{
				PersonName:   &personName{FirstName: p.UserFirstName, LastName: p.UserLastName},
				CompanyName:  p.UserAddress.CompanyName,
				PhoneNumber:  p.UserAddress.Phone,
				FaxNumber:    p.UserAddress.Fax,
				EmailAddress: p.UserEmail,
			},
			Address: locationAddress(p.UserShippingOrigin),
		},
	}

	return marshalRequest(req)
}

// buildSubscriptionRequest produces the Subscription document using
// the key and password issued by a prior registration.
func buildSubscriptionRequest(creds Credentials, p SubscriptionParams) (string, error) {
	req := subscriptionRequest{
		Xmlns:             registrationNamespace,
		WebAuthentication: creds.authDetail(),
		ClientDetail:      creds.clientDetail(""),
		TransactionDetail: transactionDetail{CustomerTransactionID: "SubscriptionRequest"},
		Version:           versionBlock{ServiceID: "fcas", Major: 2},
		CSPSolutionID:     creds.CSPSolutionID,
		CSPType:           "CERTIFIED_SOLUTION_PROVIDER",
		Subscriber: contactAndAddress{
			Contact: xmlContact{
				PersonName:   &personName{FirstName: p.UserFirstName, LastName: p.UserLastName},
				CompanyName:  p.UserAddress.CompanyName,
				PhoneNumber:  p.UserAddress.Phone,
				FaxNumber:    p.UserAddress.Fax,
				EmailAddress: p.UserEmail,
			},
			Address: locationAddress(p.UserAddress),
		},
		AccountShippingAddress: locationAddress(p.UserShippingOrigin),
	}

	return marshalRequest(req)
}

// buildVersionCaptureRequest produces the VersionCapture document.
// Purely informational; the carrier always acknowledges it.
func buildVersionCaptureRequest(creds Credentials, transactionID string, p VersionCaptureParams) (string, error) {
	req := versionCaptureRequest{
		Xmlns:                 registrationNamespace,
		WebAuthentication:     creds.authDetail(),
		ClientDetail:          creds.clientDetail(""),
		TransactionDetail:     transactionDetail{CustomerTransactionID: transactionID},
		Version:               versionBlock{ServiceID: "fcas", Major: 2},
		OriginLocationID:      p.OriginLocationID,
		VendorProductPlatform: p.VendorProductPlatform,
	}

	return marshalRequest(req)
}

// buildRateRequest produces the Rate Available Services document. The
// carrier enforces address completeness itself and reports missing or
// invalid fields in the reply, so no local address validation happens
// here.
func buildRateRequest(creds Credentials, origin, destination shipping.Location, packages []shipping.Package, shipTime time.Time) (string, error) {
	requested := make([]requestedPackage, len(packages))
	for i, pkg := range packages {
		rp := requestedPackage{
			SequenceNumber: i + 1,
			Weight: weightBlock{
				Units: string(weightUnitOrDefault(pkg.WeightUnit)),
				Value: pkg.Weight,
			},
		}
		if pkg.Length > 0 || pkg.Width > 0 || pkg.Height > 0 {
			rp.Dimensions = &dimensionsBlock{
				Length: pkg.Length,
				Width:  pkg.Width,
				Height: pkg.Height,
				Units:  string(dimensionUnitOrDefault(pkg.DimensionUnit)),
			}
		}
		requested[i] = rp
	}

	req := rateRequest{
		Xmlns:                       rateNamespace,
		WebAuthentication:           creds.authDetail(),
		ClientDetail:                creds.clientDetail(""),
		TransactionDetail:           transactionDetail{CustomerTransactionID: "RateRequest"},
		Version:                     versionBlock{ServiceID: "crs", Major: 6},
		ReturnTransitAndCommitTimes: true,
		RequestedShipment: requestedShipment{
			ShipTimestamp:     shipTime.Format("2006-01-02T15:04:05-07:00"),
			DropoffType:       "REGULAR_PICKUP",
			PackagingType:     "YOUR_PACKAGING",
			Shipper:           shipmentParty{Address: locationAddress(origin)},
			Recipient:         shipmentParty{Address: locationAddress(destination)},
			RateRequestTypes:  []string{"ACCOUNT"},
			PackageCount:      len(packages),
			RequestedPackages: requested,
		},
	}

	return marshalRequest(req)
}

// buildTrackingRequest produces the Track document for one tracking
// number.
func buildTrackingRequest(creds Credentials, trackingNumber string) (string, error) {
	if trackingNumber == "" {
		return "", &shipping.ValidationError{Field: "tracking number", Reason: "required"}
	}

	req := trackRequest{
		Xmlns:             trackNamespace,
		WebAuthentication: creds.authDetail(),
		ClientDetail:      creds.clientDetail(""),
		TransactionDetail: transactionDetail{CustomerTransactionID: "TrackRequest"},
		Version:           versionBlock{ServiceID: "trck", Major: 3},
		PackageIdentifier: packageIdentifier{
			Value: trackingNumber,
			Type:  "TRACKING_NUMBER_OR_DOORTAG",
		},
		IncludeDetailedScans: true,
	}

	return marshalRequest(req)
}

func weightUnitOrDefault(u shipping.WeightUnit) shipping.WeightUnit {
	if u == "" {
		return shipping.WeightKG
	}
	return u
}

func dimensionUnitOrDefault(u shipping.DimensionUnit) shipping.DimensionUnit {
	if u == "" {
		return shipping.DimensionCM
	}
	return u
}
