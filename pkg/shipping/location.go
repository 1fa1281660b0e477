package shipping

import (
	"strings"
)

// Location is a postal address. It is treated as immutable after
// construction; comparison is plain field equality.
type Location struct {
	CountryCode string // ISO 3166-1 alpha-2, e.g., "CA", "US"
	Province    string
	City        string
	PostalCode  string
	Address1    string
	Address2    string
	Address3    string
	Phone       string
	Fax         string
	CompanyName string
	PersonName  string
	AddressType string
}

// locationKeyAliases maps the alternate key names accepted by
// LocationFrom onto the canonical field names.
var locationKeyAliases = map[string]string{
	"country":        "country_code",
	"zip":            "postal_code",
	"postal":         "postal_code",
	"state":          "province",
	"state_code":     "province",
	"territory":      "province",
	"territory_code": "province",
	"province_code":  "province",
	"town":           "city",
	"address":        "address1",
	"street":         "address1",
	"phone_number":   "phone",
	"fax_number":     "fax",
	"company":        "company_name",
	"name":           "person_name",
}

// LocationFrom builds a Location from a free-form mapping. Alternate
// key names ("town", "zip", "territory_code", ...) are normalized onto
// the canonical fields; unknown keys are ignored.
func LocationFrom(attrs map[string]string) Location {
	var loc Location
	for key, value := range attrs {
		canonical := strings.ToLower(key)
		if alias, ok := locationKeyAliases[canonical]; ok {
			canonical = alias
		}
		switch canonical {
		case "country_code":
			loc.CountryCode = value
		case "province":
			loc.Province = value
		case "city":
			loc.City = value
		case "postal_code":
			loc.PostalCode = value
		case "address1":
			loc.Address1 = value
		case "address2":
			loc.Address2 = value
		case "address3":
			loc.Address3 = value
		case "phone":
			loc.Phone = value
		case "fax":
			loc.Fax = value
		case "company_name":
			loc.CompanyName = value
		case "person_name":
			loc.PersonName = value
		case "address_type":
			loc.AddressType = value
		}
	}
	return loc
}

// ToMap returns the location as a canonical-key mapping. Round-trips
// through LocationFrom.
func (l Location) ToMap() map[string]string {
	return map[string]string{
		"country_code": l.CountryCode,
		"province":     l.Province,
		"city":         l.City,
		"postal_code":  l.PostalCode,
		"address1":     l.Address1,
		"address2":     l.Address2,
		"address3":     l.Address3,
		"phone":        l.Phone,
		"fax":          l.Fax,
		"company_name": l.CompanyName,
		"person_name":  l.PersonName,
		"address_type": l.AddressType,
	}
}

// Name returns the person name, falling back to the company name.
func (l Location) Name() string {
	if l.PersonName != "" {
		return l.PersonName
	}
	return l.CompanyName
}

// String renders the address in a human-readable multi-line form.
func (l Location) String() string {
	var b strings.Builder
	for _, line := range []string{l.Address1, l.Address2, l.Address3} {
		if line != "" {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	cityLine := make([]string, 0, 3)
	for _, part := range []string{l.City, l.Province, l.PostalCode} {
		if part != "" {
			cityLine = append(cityLine, part)
		}
	}
	if len(cityLine) > 0 {
		b.WriteString(strings.Join(cityLine, ", "))
		b.WriteString("\n")
	}
	b.WriteString(l.CountryCode)
	return strings.TrimRight(b.String(), "\n")
}
