package fedexcsp

import (
	"strings"
)

// ServiceTypes maps FedEx service codes to their official display
// names, covering every code the rating service is known to return.
var ServiceTypes = map[string]string{
	"PRIORITY_OVERNIGHT":                       "FedEx Priority Overnight®",
	"PRIORITY_OVERNIGHT_SATURDAY_DELIVERY":     "FedEx Priority Overnight® Saturday Delivery",
	"FEDEX_2_DAY":                              "FedEx 2Day®",
	"FEDEX_2_DAY_SATURDAY_DELIVERY":            "FedEx 2Day® Saturday Delivery",
	"STANDARD_OVERNIGHT":                       "FedEx Standard Overnight®",
	"FIRST_OVERNIGHT":                          "FedEx First Overnight®",
	"FEDEX_EXPRESS_SAVER":                      "FedEx Express Saver®",
	"FEDEX_1_DAY_FREIGHT":                      "FedEx 1Day® Freight",
	"FEDEX_1_DAY_FREIGHT_SATURDAY_DELIVERY":    "FedEx 1Day® Freight Saturday Delivery",
	"FEDEX_2_DAY_FREIGHT":                      "FedEx 2Day® Freight",
	"FEDEX_2_DAY_FREIGHT_SATURDAY_DELIVERY":    "FedEx 2Day® Freight Saturday Delivery",
	"FEDEX_3_DAY_FREIGHT":                      "FedEx 3Day® Freight",
	"FEDEX_3_DAY_FREIGHT_SATURDAY_DELIVERY":    "FedEx 3Day® Freight Saturday Delivery",
	"INTERNATIONAL_PRIORITY":                   "FedEx International Priority®",
	"INTERNATIONAL_PRIORITY_SATURDAY_DELIVERY": "FedEx International Priority® Saturday Delivery",
	"INTERNATIONAL_ECONOMY":                    "FedEx International Economy®",
	"INTERNATIONAL_FIRST":                      "FedEx International First®",
	"INTERNATIONAL_PRIORITY_FREIGHT":           "FedEx International Priority® Freight",
	"INTERNATIONAL_ECONOMY_FREIGHT":            "FedEx International Economy® Freight",
	"GROUND_HOME_DELIVERY":                     "FedEx Home Delivery®",
	"FEDEX_GROUND":                             "FedEx Ground®",
	"INTERNATIONAL_GROUND":                     "FedEx International Ground®",
	"EUROPE_FIRST_INTERNATIONAL_PRIORITY":      "FedEx Europe First International Priority®",
	"SMART_POST":                               "FedEx SmartPost®",
}

// ServiceNameForCode resolves a FedEx service code to its display
// name. Codes not in the table are converted to a readable fallback:
// underscore-split words are title-cased, joined with spaces, and
// prefixed with the brand name so unmapped future codes still render.
func ServiceNameForCode(code string) string {
	if name, ok := ServiceTypes[code]; ok {
		return name
	}

	words := strings.Split(code, "_")
	for i, word := range words {
		words[i] = titleCase(word)
	}
	name := strings.Join(words, " ")
	name = strings.TrimPrefix(name, "Fedex ")
	return "FedEx " + name
}

func titleCase(word string) string {
	if word == "" {
		return word
	}
	lower := strings.ToLower(word)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

// currencyOverrides maps the legacy currency tokens FedEx reports that
// are not valid ISO-4217 codes onto the canonical codes.
var currencyOverrides = map[string]string{
	"UKL": "GBP", // pound sterling
	"DHS": "AED", // UAE dirham
	"JYE": "JPY", // Japanese yen
	"NMP": "MXN", // Mexican peso
	"NTD": "TWD", // new Taiwan dollar
	"SFR": "CHF", // Swiss franc
	"SID": "SGD", // Singapore dollar
	"WON": "KRW", // South Korean won
}

// NormalizeCurrency corrects a carrier-reported currency token to its
// ISO-4217 code. Tokens not in the override table pass through
// unchanged.
func NormalizeCurrency(code string) string {
	if iso, ok := currencyOverrides[code]; ok {
		return iso
	}
	return code
}
