package vat

import (
	"strings"

	"github.com/dukerupert/vanir/internal/domain"
)

// euCountries is the closed list of EU member state ISO 3166-1 alpha-2 codes.
var euCountries = map[string]struct{}{
	"AT": {}, "BE": {}, "BG": {}, "HR": {}, "CY": {}, "CZ": {}, "DK": {},
	"EE": {}, "FI": {}, "FR": {}, "DE": {}, "GR": {}, "HU": {}, "IE": {},
	"IT": {}, "LV": {}, "LT": {}, "LU": {}, "MT": {}, "NL": {}, "PL": {},
	"PT": {}, "RO": {}, "SK": {}, "SI": {}, "ES": {}, "SE": {},
}

// StatusResolver derives a customer's tax status from country code and
// optional VAT registration number. Pure; unknown country codes fall through
// to rest-of-world treatment.
type StatusResolver struct {
	homeCountry string
}

// NewStatusResolver creates a resolver for the given home (store) country.
func NewStatusResolver(homeCountry string) *StatusResolver {
	return &StatusResolver{homeCountry: normalizeCountry(homeCountry)}
}

// Resolve classifies a customer. A non-empty VAT number marks a business;
// validation of the number itself (VIES etc.) happens upstream.
func (r *StatusResolver) Resolve(countryCode, vatNumber string) domain.CustomerTaxStatus {
	country := normalizeCountry(countryCode)
	hasVatNumber := strings.TrimSpace(vatNumber) != ""

	if country == r.homeCountry {
		if hasVatNumber {
			return domain.StatusDomesticBusiness
		}
		return domain.StatusDomesticConsumer
	}

	if _, ok := euCountries[country]; ok {
		if hasVatNumber {
			return domain.StatusEUBusiness
		}
		return domain.StatusEUConsumer
	}

	return domain.StatusNonEUBusiness
}

// HomeCountry returns the resolver's home country code.
func (r *StatusResolver) HomeCountry() string {
	return r.homeCountry
}

func normalizeCountry(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
