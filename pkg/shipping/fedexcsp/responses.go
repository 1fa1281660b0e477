package fedexcsp

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tournevent/fedexcsp/pkg/shipping"
)

// Response is the generic carrier response contract. Every typed
// response embeds it, so callers can always read Success, Message and
// Test regardless of which concrete type they hold. Params and XML are
// the raw escape hatch for carrier fields not modeled here.
type Response struct {
	Success bool
	Message string
	Test    bool
	Params  map[string]any
	XML     string
}

// RegistrationResponse carries the end-user credential pair issued by
// a successful registration.
type RegistrationResponse struct {
	Response
	Key      string
	Password string
}

// SubscriptionResponse carries the meter number issued by a successful
// subscription, used as the login on later calls.
type SubscriptionResponse struct {
	Response
	MeterNumber string
}

// VersionCaptureResponse echoes back the customer transaction id.
type VersionCaptureResponse struct {
	Response
	CustomerTransactionID string
}

// RateResponse carries one Rate per service the carrier quoted.
type RateResponse struct {
	Response
	Rates []shipping.Rate
}

// TrackingResponse carries the filtered, chronologically ordered
// shipment event timeline.
type TrackingResponse struct {
	Response
	TrackingNumber string
	ShipmentEvents []shipping.ShipmentEvent
}

// ============================================================================
// XML reply structures
// ============================================================================

type notification struct {
	Severity string `xml:"Severity"`
	Source   string `xml:"Source"`
	Code     string `xml:"Code"`
	Message  string `xml:"Message"`
}

type registrationReply struct {
	XMLName         xml.Name       `xml:"RegisterWebCspUserReply"`
	HighestSeverity string         `xml:"HighestSeverity"`
	Notifications   []notification `xml:"Notifications"`
	Credential      credential     `xml:"Credential"`
}

type subscriptionReply struct {
	XMLName         xml.Name       `xml:"SubscriptionReply"`
	HighestSeverity string         `xml:"HighestSeverity"`
	Notifications   []notification `xml:"Notifications"`
	MeterNumber     string         `xml:"MeterNumber"`
}

type versionCaptureReply struct {
	XMLName           xml.Name          `xml:"VersionCaptureReply"`
	HighestSeverity   string            `xml:"HighestSeverity"`
	Notifications     []notification    `xml:"Notifications"`
	TransactionDetail transactionDetail `xml:"TransactionDetail"`
}

type charge struct {
	Currency string `xml:"Currency"`
	Amount   string `xml:"Amount"`
}

type ratedPackage struct {
	PackageRateDetail struct {
		NetCharge *charge `xml:"NetCharge"`
	} `xml:"PackageRateDetail"`
}

type ratedShipmentDetail struct {
	ShipmentRateDetail struct {
		RateType       string `xml:"RateType"`
		TotalNetCharge charge `xml:"TotalNetCharge"`
	} `xml:"ShipmentRateDetail"`
	RatedPackages []ratedPackage `xml:"RatedPackages"`
}

type rateReplyDetail struct {
	ServiceType          string                `xml:"ServiceType"`
	PackagingType        string                `xml:"PackagingType"`
	RatedShipmentDetails []ratedShipmentDetail `xml:"RatedShipmentDetails"`
}

type rateReply struct {
	XMLName          xml.Name          `xml:"RateReply"`
	HighestSeverity  string            `xml:"HighestSeverity"`
	Notifications    []notification    `xml:"Notifications"`
	RateReplyDetails []rateReplyDetail `xml:"RateReplyDetails"`
}

type trackEventAddress struct {
	City                string `xml:"City"`
	StateOrProvinceCode string `xml:"StateOrProvinceCode"`
	PostalCode          string `xml:"PostalCode"`
	CountryCode         string `xml:"CountryCode"`
}

type trackEvent struct {
	Timestamp        string            `xml:"Timestamp"`
	EventType        string            `xml:"EventType"`
	EventDescription string            `xml:"EventDescription"`
	Address          trackEventAddress `xml:"Address"`
}

type trackDetail struct {
	TrackingNumber string       `xml:"TrackingNumber"`
	Events         []trackEvent `xml:"Events"`
}

type trackReply struct {
	XMLName         xml.Name       `xml:"TrackReply"`
	HighestSeverity string         `xml:"HighestSeverity"`
	Notifications   []notification `xml:"Notifications"`
	TrackDetails    []trackDetail  `xml:"TrackDetails"`
}

// ============================================================================
// Response parsers
// ============================================================================

func formatNotification(n notification) string {
	return fmt.Sprintf("%s - %s: %s", n.Severity, n.Code, n.Message)
}

// checkSeverity inspects the reply's overall status indicator. FAILURE
// and ERROR raise a ResponseError carrying the carrier's diagnostic
// text verbatim; SUCCESS, NOTE and WARNING pass.
func checkSeverity(severity string, notifications []notification) error {
	switch severity {
	case "SUCCESS", "NOTE", "WARNING":
		return nil
	}

	respErr := &shipping.ResponseError{Carrier: carrierName, Severity: severity}
	if len(notifications) > 0 {
		respErr.Code = notifications[0].Code
		respErr.Message = formatNotification(notifications[0])
	} else {
		respErr.Message = fmt.Sprintf("%s - unknown error", severity)
	}
	return respErr
}

func statusMessage(notifications []notification) string {
	if len(notifications) == 0 {
		return ""
	}
	return formatNotification(notifications[0])
}

func newResponse(notifications []notification, test bool, raw string) (Response, error) {
	params, err := xmlToMap(raw)
	if err != nil {
		return Response{}, err
	}
	return Response{
		Success: true,
		Message: statusMessage(notifications),
		Test:    test,
		Params:  params,
		XML:     raw,
	}, nil
}

func parseRegistrationResponse(raw string, test bool) (*RegistrationResponse, error) {
	var reply registrationReply
	if err := xml.Unmarshal([]byte(raw), &reply); err != nil {
		return nil, &shipping.TransportError{Carrier: carrierName, Cause: err}
	}
	if err := checkSeverity(reply.HighestSeverity, reply.Notifications); err != nil {
		return nil, err
	}

	base, err := newResponse(reply.Notifications, test, raw)
	if err != nil {
		return nil, err
	}
	return &RegistrationResponse{
		Response: base,
		Key:      reply.Credential.Key,
		Password: reply.Credential.Password,
	}, nil
}

func parseSubscriptionResponse(raw string, test bool) (*SubscriptionResponse, error) {
	var reply subscriptionReply
	if err := xml.Unmarshal([]byte(raw), &reply); err != nil {
		return nil, &shipping.TransportError{Carrier: carrierName, Cause: err}
	}
	if err := checkSeverity(reply.HighestSeverity, reply.Notifications); err != nil {
		return nil, err
	}

	base, err := newResponse(reply.Notifications, test, raw)
	if err != nil {
		return nil, err
	}
	return &SubscriptionResponse{
		Response:    base,
		MeterNumber: reply.MeterNumber,
	}, nil
}

func parseVersionCaptureResponse(raw string, test bool) (*VersionCaptureResponse, error) {
	var reply versionCaptureReply
	if err := xml.Unmarshal([]byte(raw), &reply); err != nil {
		return nil, &shipping.TransportError{Carrier: carrierName, Cause: err}
	}
	if err := checkSeverity(reply.HighestSeverity, reply.Notifications); err != nil {
		return nil, err
	}

	base, err := newResponse(reply.Notifications, test, raw)
	if err != nil {
		return nil, err
	}
	return &VersionCaptureResponse{
		Response:              base,
		CustomerTransactionID: reply.TransactionDetail.CustomerTransactionID,
	}, nil
}

// parseRateResponse extracts one Rate per returned service estimate.
// Service codes resolve to display names through the service table,
// currencies are normalized, and prices land in minor units. The
// per-package breakdown zips the request's packages with any itemized
// charges in request order; a package the carrier did not itemize
// still appears, paired with a nil price.
func parseRateResponse(raw string, test bool, packages []shipping.Package) (*RateResponse, error) {
	var reply rateReply
	if err := xml.Unmarshal([]byte(raw), &reply); err != nil {
		return nil, &shipping.TransportError{Carrier: carrierName, Cause: err}
	}
	if err := checkSeverity(reply.HighestSeverity, reply.Notifications); err != nil {
		return nil, err
	}

	rates := make([]shipping.Rate, 0, len(reply.RateReplyDetails))
	for _, detail := range reply.RateReplyDetails {
		if len(detail.RatedShipmentDetails) == 0 {
			continue
		}
		shipmentDetail := detail.RatedShipmentDetails[0]
		total := shipmentDetail.ShipmentRateDetail.TotalNetCharge

		price, err := minorUnits(total.Amount)
		if err != nil {
			return nil, &shipping.ValidationError{Field: "total net charge", Reason: err.Error()}
		}

		packageRates := make([]shipping.PackageRate, len(packages))
		for i, pkg := range packages {
			pr := shipping.PackageRate{Package: pkg}
			if i < len(shipmentDetail.RatedPackages) {
				if netCharge := shipmentDetail.RatedPackages[i].PackageRateDetail.NetCharge; netCharge != nil {
					itemized, err := minorUnits(netCharge.Amount)
					if err != nil {
						return nil, &shipping.ValidationError{Field: "package net charge", Reason: err.Error()}
					}
					pr.Price = &itemized
				}
			}
			packageRates[i] = pr
		}

		rates = append(rates, shipping.Rate{
			Carrier:      carrierName,
			ServiceCode:  detail.ServiceType,
			ServiceName:  ServiceNameForCode(detail.ServiceType),
			Currency:     NormalizeCurrency(total.Currency),
			TotalPrice:   price,
			PackageRates: packageRates,
		})
	}

	base, err := newResponse(reply.Notifications, test, raw)
	if err != nil {
		return nil, err
	}
	return &RateResponse{
		Response: base,
		Rates:    rates,
	}, nil
}

func parseTrackingResponse(raw string, test bool) (*TrackingResponse, error) {
	var reply trackReply
	if err := xml.Unmarshal([]byte(raw), &reply); err != nil {
		return nil, &shipping.TransportError{Carrier: carrierName, Cause: err}
	}
	if err := checkSeverity(reply.HighestSeverity, reply.Notifications); err != nil {
		return nil, err
	}

	var trackingNumber string
	var events []shipping.ShipmentEvent
	if len(reply.TrackDetails) > 0 {
		detail := reply.TrackDetails[0]
		trackingNumber = detail.TrackingNumber
		for _, raw := range detail.Events {
			event, err := shipmentEvent(raw)
			if err != nil {
				return nil, err
			}
			events = append(events, event)
		}
	}

	base, err := newResponse(reply.Notifications, test, raw)
	if err != nil {
		return nil, err
	}
	return &TrackingResponse{
		Response:       base,
		TrackingNumber: trackingNumber,
		ShipmentEvents: processShipmentEvents(events),
	}, nil
}

func shipmentEvent(raw trackEvent) (shipping.ShipmentEvent, error) {
	when, err := parseEventTime(raw.Timestamp)
	if err != nil {
		return shipping.ShipmentEvent{}, &shipping.ValidationError{
			Field:  "event timestamp",
			Reason: err.Error(),
		}
	}

	event := shipping.ShipmentEvent{
		Name: raw.EventDescription,
		Time: when,
	}
	if addr := raw.Address; addr.City != "" || addr.PostalCode != "" || addr.CountryCode != "" {
		event.Location = &shipping.Location{
			City:        addr.City,
			Province:    addr.StateOrProvinceCode,
			PostalCode:  addr.PostalCode,
			CountryCode: addr.CountryCode,
		}
	}
	return event, nil
}

// Scan timestamps arrive with or without a UTC offset depending on the
// scanning facility.
func parseEventTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", value)
}

// minorUnits parses the carrier's decimal charge string into integer
// minor currency units, rounding (not truncating) to the nearest unit.
// The parse works on the decimal text directly so amounts never pass
// through binary floating point.
func minorUnits(amount string) (int64, error) {
	s := strings.TrimSpace(amount)
	if s == "" {
		return 0, fmt.Errorf("malformed charge amount %q", amount)
	}

	negative := false
	if s[0] == '+' || s[0] == '-' {
		negative = s[0] == '-'
		s = s[1:]
	}

	intPart, fracPart, _ := strings.Cut(s, ".")
	if intPart == "" {
		intPart = "0"
	}
	whole, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed charge amount %q", amount)
	}
	for _, r := range fracPart {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("malformed charge amount %q", amount)
		}
	}

	padded := fracPart + "00"
	cents := int64(padded[0]-'0')*10 + int64(padded[1]-'0')
	if len(fracPart) > 2 && padded[2] >= '5' {
		cents++
	}

	total := whole*100 + cents
	if negative {
		total = -total
	}
	return total, nil
}
