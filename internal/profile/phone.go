package profile

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// NormalizeE164 formats raw as an E.164 number. Numbers without a leading '+' are parsed
// relative to region. ok is false when raw is not a phone number.
func NormalizeE164(raw, region string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	num, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return "", false
	}
	return phonenumbers.Format(num, phonenumbers.E164), true
}
