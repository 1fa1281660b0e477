package shipping

import (
	"time"
)

// WeightUnit represents weight measurement unit.
type WeightUnit string

const (
	WeightKG WeightUnit = "KG"
	WeightLB WeightUnit = "LB"
)

// DimensionUnit represents dimension measurement unit.
type DimensionUnit string

const (
	DimensionCM DimensionUnit = "CM"
	DimensionIN DimensionUnit = "IN"
)

// Package represents a physical parcel to be quoted or shipped.
type Package struct {
	ID            string
	Length        float64
	Width         float64
	Height        float64
	DimensionUnit DimensionUnit
	Weight        float64
	WeightUnit    WeightUnit
	Description   string
	DeclaredValue int64 // minor currency units
	Currency      string
}

// Rate represents a single carrier service quote. TotalPrice is held in
// minor currency units (cents) to avoid floating-point price math.
type Rate struct {
	Carrier      string
	ServiceCode  string
	ServiceName  string
	Currency     string // ISO-4217
	TotalPrice   int64  // minor currency units
	PackageRates []PackageRate
}

// PackageRate pairs a requested package with its itemized charge.
// Price is nil when the carrier does not itemize per package.
type PackageRate struct {
	Package Package
	Price   *int64 // minor currency units
}

// Packages returns the packages this rate applies to, in request order.
func (r Rate) Packages() []Package {
	pkgs := make([]Package, len(r.PackageRates))
	for i, pr := range r.PackageRates {
		pkgs[i] = pr.Package
	}
	return pkgs
}

// ShipmentEvent is one entry in a shipment's public timeline. An event
// with a nil Location is a carrier-internal bookkeeping event and is
// never shown to end users.
type ShipmentEvent struct {
	Name     string
	Time     time.Time
	Location *Location
}
