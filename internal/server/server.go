package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tournevent/fedexcsp/internal/telemetry"
	"github.com/tournevent/fedexcsp/pkg/shipping"
	"github.com/tournevent/fedexcsp/pkg/shipping/fedexcsp"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Server is the HTTP bridge in front of the FedEx CSP client.
type Server struct {
	port    int
	client  *fedexcsp.Client
	logger  *otelzap.Logger
	metrics *telemetry.Metrics
	handler http.Handler
}

// Config holds server configuration.
type Config struct {
	Port int
}

// New creates a new server instance.
func New(cfg Config, client *fedexcsp.Client, logger *otelzap.Logger, metrics *telemetry.Metrics) *Server {
	s := &Server{
		port:    cfg.Port,
		client:  client,
		logger:  logger,
		metrics: metrics,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/register", s.handleRegister)
	mux.HandleFunc("/api/subscribe", s.handleSubscribe)
	mux.HandleFunc("/api/version-capture", s.handleVersionCapture)
	mux.HandleFunc("/api/rates", s.handleRates)
	mux.HandleFunc("/api/track", s.handleTrack)
	s.handler = mux

	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run starts the HTTP server and blocks until the context is
// cancelled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Wire payloads. Amounts are integer minor units; times are RFC 3339.

type addressPayload struct {
	CountryCode string `json:"countryCode"`
	Province    string `json:"province,omitempty"`
	City        string `json:"city,omitempty"`
	PostalCode  string `json:"postalCode,omitempty"`
	Line1       string `json:"line1,omitempty"`
	Line2       string `json:"line2,omitempty"`
	Line3       string `json:"line3,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Fax         string `json:"fax,omitempty"`
	Company     string `json:"company,omitempty"`
	Name        string `json:"name,omitempty"`
}

func (a addressPayload) location() shipping.Location {
	return shipping.Location{
		CountryCode: a.CountryCode,
		Province:    a.Province,
		City:        a.City,
		PostalCode:  a.PostalCode,
		Address1:    a.Line1,
		Address2:    a.Line2,
		Address3:    a.Line3,
		Phone:       a.Phone,
		Fax:         a.Fax,
		CompanyName: a.Company,
		PersonName:  a.Name,
	}
}

func addressFrom(loc *shipping.Location) *addressPayload {
	if loc == nil {
		return nil
	}
	return &addressPayload{
		CountryCode: loc.CountryCode,
		Province:    loc.Province,
		City:        loc.City,
		PostalCode:  loc.PostalCode,
		Line1:       loc.Address1,
		Line2:       loc.Address2,
		Line3:       loc.Address3,
		Phone:       loc.Phone,
		Fax:         loc.Fax,
		Company:     loc.CompanyName,
		Name:        loc.PersonName,
	}
}

type packagePayload struct {
	ID            string  `json:"id,omitempty"`
	Weight        float64 `json:"weight"`
	WeightUnit    string  `json:"weightUnit,omitempty"`
	Length        float64 `json:"length,omitempty"`
	Width         float64 `json:"width,omitempty"`
	Height        float64 `json:"height,omitempty"`
	DimensionUnit string  `json:"dimensionUnit,omitempty"`
}

func (p packagePayload) model() shipping.Package {
	return shipping.Package{
		ID:            p.ID,
		Weight:        p.Weight,
		WeightUnit:    shipping.WeightUnit(p.WeightUnit),
		Length:        p.Length,
		Width:         p.Width,
		Height:        p.Height,
		DimensionUnit: shipping.DimensionUnit(p.DimensionUnit),
	}
}

type registerRequest struct {
	Account        string         `json:"account"`
	ClientRegion   string         `json:"clientRegion,omitempty"`
	FirstName      string         `json:"firstName"`
	LastName       string         `json:"lastName"`
	Email          string         `json:"email"`
	Address        addressPayload `json:"address"`
	ShippingOrigin addressPayload `json:"shippingOrigin"`
	Test           bool           `json:"test,omitempty"`
}

type registerResponse struct {
	Key      string `json:"key"`
	Password string `json:"password"`
	Message  string `json:"message,omitempty"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req registerRequest
	if !s.decode(w, r, "register", &req) {
		return
	}

	resp, err := s.client.RegisterUser(r.Context(), fedexcsp.RegistrationParams{
		Account:            req.Account,
		ClientRegion:       req.ClientRegion,
		UserFirstName:      req.FirstName,
		UserLastName:       req.LastName,
		UserEmail:          req.Email,
		UserAddress:        req.Address.location(),
		UserShippingOrigin: req.ShippingOrigin.location(),
		Test:               req.Test,
	})
	if err != nil {
		s.fail(w, "register", started, err)
		return
	}

	s.ok(w, "register", started, registerResponse{
		Key:      resp.Key,
		Password: resp.Password,
		Message:  resp.Message,
	})
}

type subscribeRequest struct {
	FirstName      string         `json:"firstName"`
	LastName       string         `json:"lastName"`
	Email          string         `json:"email"`
	Address        addressPayload `json:"address"`
	ShippingOrigin addressPayload `json:"shippingOrigin"`
	Test           bool           `json:"test,omitempty"`
}

type subscribeResponse struct {
	MeterNumber string `json:"meterNumber"`
	Message     string `json:"message,omitempty"`
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req subscribeRequest
	if !s.decode(w, r, "subscribe", &req) {
		return
	}

	resp, err := s.client.SubscribeUser(r.Context(), fedexcsp.SubscriptionParams{
		UserFirstName:      req.FirstName,
		UserLastName:       req.LastName,
		UserEmail:          req.Email,
		UserAddress:        req.Address.location(),
		UserShippingOrigin: req.ShippingOrigin.location(),
		Test:               req.Test,
	})
	if err != nil {
		s.fail(w, "subscribe", started, err)
		return
	}

	s.ok(w, "subscribe", started, subscribeResponse{
		MeterNumber: resp.MeterNumber,
		Message:     resp.Message,
	})
}

type versionCaptureRequest struct {
	TransactionID         string `json:"transactionId"`
	OriginLocationID      string `json:"originLocationId,omitempty"`
	VendorProductPlatform string `json:"vendorProductPlatform,omitempty"`
	Test                  bool   `json:"test,omitempty"`
}

type versionCaptureResponse struct {
	TransactionID string `json:"transactionId"`
	Message       string `json:"message,omitempty"`
}

func (s *Server) handleVersionCapture(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req versionCaptureRequest
	if !s.decode(w, r, "version_capture", &req) {
		return
	}

	resp, err := s.client.VersionCapture(r.Context(), req.TransactionID, fedexcsp.VersionCaptureParams{
		OriginLocationID:      req.OriginLocationID,
		VendorProductPlatform: req.VendorProductPlatform,
		Test:                  req.Test,
	})
	if err != nil {
		s.fail(w, "version_capture", started, err)
		return
	}

	s.ok(w, "version_capture", started, versionCaptureResponse{
		TransactionID: resp.CustomerTransactionID,
		Message:       resp.Message,
	})
}

type ratesRequest struct {
	Origin      addressPayload   `json:"origin"`
	Destination addressPayload   `json:"destination"`
	Packages    []packagePayload `json:"packages"`
	ShipTime    string           `json:"shipTime,omitempty"`
	Test        bool             `json:"test,omitempty"`
}

type packageRatePayload struct {
	PackageID string `json:"packageId,omitempty"`
	Price     *int64 `json:"price,omitempty"`
}

type ratePayload struct {
	ServiceCode  string               `json:"serviceCode"`
	ServiceName  string               `json:"serviceName"`
	Currency     string               `json:"currency"`
	TotalPrice   int64                `json:"totalPrice"`
	PackageRates []packageRatePayload `json:"packageRates,omitempty"`
}

type ratesResponse struct {
	Rates   []ratePayload `json:"rates"`
	Message string        `json:"message,omitempty"`
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req ratesRequest
	if !s.decode(w, r, "rates", &req) {
		return
	}

	params := fedexcsp.RateParams{Test: req.Test}
	if req.ShipTime != "" {
		shipTime, err := time.Parse(time.RFC3339, req.ShipTime)
		if err != nil {
			s.badRequest(w, "rates", started, fmt.Sprintf("invalid shipTime: %v", err))
			return
		}
		params.ShipTime = shipTime
	}

	packages := make([]shipping.Package, 0, len(req.Packages))
	for _, p := range req.Packages {
		packages = append(packages, p.model())
	}

	resp, err := s.client.FindRates(r.Context(),
		req.Origin.location(), req.Destination.location(), packages, params)
	if err != nil {
		s.fail(w, "rates", started, err)
		return
	}

	out := ratesResponse{Rates: make([]ratePayload, 0, len(resp.Rates)), Message: resp.Message}
	for _, rate := range resp.Rates {
		payload := ratePayload{
			ServiceCode: rate.ServiceCode,
			ServiceName: rate.ServiceName,
			Currency:    rate.Currency,
			TotalPrice:  rate.TotalPrice,
		}
		for _, pr := range rate.PackageRates {
			payload.PackageRates = append(payload.PackageRates, packageRatePayload{
				PackageID: pr.Package.ID,
				Price:     pr.Price,
			})
		}
		out.Rates = append(out.Rates, payload)
	}

	s.ok(w, "rates", started, out)
}

type trackRequest struct {
	TrackingNumber string `json:"trackingNumber"`
	Test           bool   `json:"test,omitempty"`
}

type eventPayload struct {
	Name     string          `json:"name"`
	Time     time.Time       `json:"time"`
	Location *addressPayload `json:"location,omitempty"`
}

type trackResponse struct {
	TrackingNumber string         `json:"trackingNumber"`
	Events         []eventPayload `json:"events"`
	Message        string         `json:"message,omitempty"`
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req trackRequest
	if !s.decode(w, r, "track", &req) {
		return
	}

	resp, err := s.client.FindTrackingInfo(r.Context(), req.TrackingNumber,
		fedexcsp.TrackingParams{Test: req.Test})
	if err != nil {
		s.fail(w, "track", started, err)
		return
	}

	out := trackResponse{
		TrackingNumber: resp.TrackingNumber,
		Events:         make([]eventPayload, 0, len(resp.ShipmentEvents)),
		Message:        resp.Message,
	}
	for _, event := range resp.ShipmentEvents {
		out.Events = append(out.Events, eventPayload{
			Name:     event.Name,
			Time:     event.Time,
			Location: addressFrom(event.Location),
		})
	}

	s.ok(w, "track", started, out)
}

type errorResponse struct {
	Error    string `json:"error"`
	Severity string `json:"severity,omitempty"`
	Code     string `json:"code,omitempty"`
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, operation string, v any) bool {
	if r.Method != http.MethodPost {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		json.NewEncoder(w).Encode(errorResponse{Error: "method not allowed, use POST"})
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.badRequest(w, operation, time.Now(), "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func (s *Server) ok(w http.ResponseWriter, operation string, started time.Time, v any) {
	s.metrics.RecordRequest(operation, "success", time.Since(started).Seconds())
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (s *Server) badRequest(w http.ResponseWriter, operation string, started time.Time, message string) {
	s.metrics.RecordRequest(operation, "error", time.Since(started).Seconds())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(errorResponse{Error: message})
}

// fail translates client errors onto HTTP statuses. Input problems map
// to 400, carrier rejections to 422, network failures to 502.
func (s *Server) fail(w http.ResponseWriter, operation string, started time.Time, err error) {
	s.metrics.RecordRequest(operation, "error", time.Since(started).Seconds())

	w.Header().Set("Content-Type", "application/json")

	var validationErr *shipping.ValidationError
	var responseErr *shipping.ResponseError
	var transportErr *shipping.TransportError

	switch {
	case errors.As(err, &validationErr):
		s.metrics.RecordError("validation")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(errorResponse{Error: validationErr.Error()})

	case errors.As(err, &responseErr):
		s.metrics.RecordError("carrier")
		s.logger.Warn("Carrier rejected request",
			zap.String("operation", operation),
			zap.String("severity", responseErr.Severity),
			zap.String("code", responseErr.Code),
		)
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(errorResponse{
			Error:    responseErr.Message,
			Severity: responseErr.Severity,
			Code:     responseErr.Code,
		})

	case errors.As(err, &transportErr):
		s.metrics.RecordError("transport")
		s.logger.Error("Carrier unreachable",
			zap.String("operation", operation),
			zap.Error(err),
		)
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(errorResponse{Error: transportErr.Error()})

	default:
		s.metrics.RecordError("internal")
		s.logger.Error("Request failed",
			zap.String("operation", operation),
			zap.Error(err),
		)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
	}
}
