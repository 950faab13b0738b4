// Package phone canonicalizes payer phone numbers into the comparable
// forms used for customer matching. Inbound gateways deliver the same
// subscriber as "0711000000", "254711000000" or "+254711000000" depending
// on the provider; all three must resolve to one canonical key.
package phone

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ttacon/libphonenumber"
)

var ErrInvalidPhone = errors.New("invalid phone number")

// Normalizer parses and canonicalizes phone numbers for a default region.
type Normalizer struct {
	defaultRegion string
}

// NewNormalizer creates a normalizer. region is an ISO 3166-1 alpha-2
// country code (e.g. "KE") applied to numbers without a country prefix.
func NewNormalizer(region string) *Normalizer {
	return &Normalizer{defaultRegion: strings.ToUpper(region)}
}

// Canonical returns the E.164 digits of the number without the leading "+",
// e.g. "254711000000". This is the form stored on customer records.
func (n *Normalizer) Canonical(raw string) (string, error) {
	parsed, err := n.parse(raw)
	if err != nil {
		return "", err
	}
	e164 := libphonenumber.Format(parsed, libphonenumber.E164)
	return strings.TrimPrefix(e164, "+"), nil
}

// Variants returns every representational form a gateway may deliver for
// the number: local ("0711000000"), international digits ("254711000000")
// and "+"-prefixed E.164. The canonical form is always included. Callers
// use the set for customer lookups against unnormalized historical data.
func (n *Normalizer) Variants(raw string) ([]string, error) {
	parsed, err := n.parse(raw)
	if err != nil {
		return nil, err
	}

	e164 := libphonenumber.Format(parsed, libphonenumber.E164)
	international := strings.TrimPrefix(e164, "+")
	national := libphonenumber.Format(parsed, libphonenumber.NATIONAL)
	local := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(national)

	variants := []string{international, e164}
	if local != "" && local != international {
		variants = append(variants, local)
	}
	return variants, nil
}

// Valid reports whether raw parses to a valid number for the region.
func (n *Normalizer) Valid(raw string) bool {
	parsed, err := n.parse(raw)
	if err != nil {
		return false
	}
	return libphonenumber.IsValidNumber(parsed)
}

func (n *Normalizer) parse(raw string) (*libphonenumber.PhoneNumber, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, ErrInvalidPhone
	}
	// Bare international digits ("2547...") are not parseable without a
	// leading "+"; detect them by attempting a "+"-prefixed parse first.
	if !strings.HasPrefix(trimmed, "+") && !strings.HasPrefix(trimmed, "0") {
		if parsed, err := libphonenumber.Parse("+"+trimmed, n.defaultRegion); err == nil && libphonenumber.IsValidNumber(parsed) {
			return parsed, nil
		}
	}
	parsed, err := libphonenumber.Parse(trimmed, n.defaultRegion)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPhone, raw, err)
	}
	if !libphonenumber.IsValidNumber(parsed) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPhone, raw)
	}
	return parsed, nil
}
