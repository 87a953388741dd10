package utils

import (
	"fmt"
	"strings"

	"github.com/ttacon/libphonenumber"
)

// NormalizePhone validates a phone number for the given region (e.g. "VN") and
// returns it in E.164 form. An empty input is returned unchanged.
func NormalizePhone(phoneNumber, regionCode string) (string, error) {
	phoneNumber = strings.TrimSpace(phoneNumber)
	if phoneNumber == "" {
		return "", nil
	}
	p, err := libphonenumber.Parse(phoneNumber, regionCode)
	if err != nil {
		return "", fmt.Errorf("phone number %q: %w", phoneNumber, err)
	}
	if !libphonenumber.IsValidNumber(p) {
		return "", fmt.Errorf("phone number %q is not valid for region %s", phoneNumber, regionCode)
	}
	return libphonenumber.Format(p, libphonenumber.E164), nil
}
