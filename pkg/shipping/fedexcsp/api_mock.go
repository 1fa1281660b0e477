package fedexcsp

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tournevent/fedexcsp/pkg/shipping"
)

// MockTransport is a canned-response Transport for testing. By default
// it inspects the request's root element and answers with a plausible
// success reply for that operation; OnCommit overrides everything.
type MockTransport struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnCommit func(ctx context.Context, request string, test bool) (string, error)

	// Requests records every committed request in order.
	Requests []string
}

// NewMockTransport creates a new mock transport with default behavior.
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// Commit records the request and returns a canned reply.
func (m *MockTransport) Commit(ctx context.Context, request string, test bool) (string, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	m.Requests = append(m.Requests, request)

	if m.SimulateErrors {
		return "", &shipping.TransportError{
			Carrier: carrierName,
			Cause:   fmt.Errorf("simulated transport error"),
		}
	}

	if m.OnCommit != nil {
		return m.OnCommit(ctx, request, test)
	}

	switch rootElement(request) {
	case "RegisterWebCspUserRequest":
		return mockRegistrationReply(), nil
	case "SubscriptionRequest":
		return mockSubscriptionReply(), nil
	case "VersionCaptureRequest":
		return mockVersionCaptureReply(request), nil
	case "RateRequest":
		return mockRateReply(), nil
	case "TrackRequest":
		return mockTrackReply(request), nil
	}
	return "", &shipping.TransportError{
		Carrier: carrierName,
		Cause:   fmt.Errorf("mock transport: unrecognized request"),
	}
}

func rootElement(request string) string {
	dec := xml.NewDecoder(strings.NewReader(request))
	for {
		tok, err := dec.Token()
		if err != nil {
			return ""
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start.Name.Local
		}
	}
}

// requestValue pulls the text of the first occurrence of an element
// from the committed request, so canned replies can echo request
// fields the way the real gateway does.
func requestValue(request, element string) string {
	dec := xml.NewDecoder(strings.NewReader(request))
	inTarget := false
	for {
		tok, err := dec.Token()
		if err != nil {
			return ""
		}
		switch t := tok.(type) {
		case xml.StartElement:
			inTarget = t.Name.Local == element
		case xml.CharData:
			if inTarget {
				return strings.TrimSpace(string(t))
			}
		case xml.EndElement:
			inTarget = false
		}
	}
}

func mockRegistrationReply() string {
	key := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:16]
	password := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:25]
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<RegisterWebCspUserReply xmlns="http://fedex.com/ws/registration/v2">
  <HighestSeverity>SUCCESS</HighestSeverity>
  <Notifications>
    <Severity>SUCCESS</Severity>
    <Source>fcas</Source>
    <Code>0</Code>
    <Message>Request was successfully processed.</Message>
  </Notifications>
  <Credential>
    <Key>%s</Key>
    <Password>%s</Password>
  </Credential>
</RegisterWebCspUserReply>`, key, password)
}

func mockSubscriptionReply() string {
	meter := 100000000 + time.Now().UnixNano()%900000000
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<SubscriptionReply xmlns="http://fedex.com/ws/registration/v2">
  <HighestSeverity>SUCCESS</HighestSeverity>
  <Notifications>
    <Severity>SUCCESS</Severity>
    <Source>fcas</Source>
    <Code>0</Code>
    <Message>Request was successfully processed.</Message>
  </Notifications>
  <MeterNumber>%d</MeterNumber>
</SubscriptionReply>`, meter)
}

func mockVersionCaptureReply(request string) string {
	transactionID := requestValue(request, "CustomerTransactionId")
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<VersionCaptureReply xmlns="http://fedex.com/ws/registration/v2">
  <HighestSeverity>SUCCESS</HighestSeverity>
  <Notifications>
    <Severity>SUCCESS</Severity>
    <Source>fcas</Source>
    <Code>0</Code>
    <Message>Request was successfully processed.</Message>
  </Notifications>
  <TransactionDetail>
    <CustomerTransactionId>%s</CustomerTransactionId>
  </TransactionDetail>
</VersionCaptureReply>`, transactionID)
}

func mockRateReply() string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<RateReply xmlns="http://fedex.com/ws/rate/v6">
  <HighestSeverity>SUCCESS</HighestSeverity>
  <Notifications>
    <Severity>SUCCESS</Severity>
    <Source>crs</Source>
    <Code>0</Code>
    <Message>Request was successfully processed.</Message>
  </Notifications>
  <RateReplyDetails>
    <ServiceType>FEDEX_GROUND</ServiceType>
    <PackagingType>YOUR_PACKAGING</PackagingType>
    <RatedShipmentDetails>
      <ShipmentRateDetail>
        <RateType>PAYOR_ACCOUNT</RateType>
        <TotalNetCharge>
          <Currency>CAD</Currency>
          <Amount>38.36</Amount>
        </TotalNetCharge>
      </ShipmentRateDetail>
    </RatedShipmentDetails>
  </RateReplyDetails>
  <RateReplyDetails>
    <ServiceType>FEDEX_2_DAY</ServiceType>
    <PackagingType>YOUR_PACKAGING</PackagingType>
    <RatedShipmentDetails>
      <ShipmentRateDetail>
        <RateType>PAYOR_ACCOUNT</RateType>
        <TotalNetCharge>
          <Currency>CAD</Currency>
          <Amount>79.04</Amount>
        </TotalNetCharge>
      </ShipmentRateDetail>
    </RatedShipmentDetails>
  </RateReplyDetails>
</RateReply>`
}

func mockTrackReply(request string) string {
	trackingNumber := requestValue(request, "Value")
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<TrackReply xmlns="http://fedex.com/ws/track/v3">
  <HighestSeverity>SUCCESS</HighestSeverity>
  <Notifications>
    <Severity>SUCCESS</Severity>
    <Source>trck</Source>
    <Code>0</Code>
    <Message>Request was successfully processed.</Message>
  </Notifications>
  <TrackDetails>
    <TrackingNumber>%s</TrackingNumber>
    <Events>
      <Timestamp>2024-03-01T08:00:00</Timestamp>
      <EventType>PU</EventType>
      <EventDescription>Picked up</EventDescription>
      <Address>
        <City>OTTAWA</City>
        <StateOrProvinceCode>ON</StateOrProvinceCode>
        <PostalCode>K1R6A7</PostalCode>
        <CountryCode>CA</CountryCode>
      </Address>
    </Events>
    <Events>
      <Timestamp>2024-03-02T14:30:00</Timestamp>
      <EventType>DL</EventType>
      <EventDescription>Delivered</EventDescription>
      <Address>
        <City>TORONTO</City>
        <StateOrProvinceCode>ON</StateOrProvinceCode>
        <PostalCode>M5V1A1</PostalCode>
        <CountryCode>CA</CountryCode>
      </Address>
    </Events>
  </TrackDetails>
</TrackReply>`, trackingNumber)
}

var _ Transport = (*MockTransport)(nil)
