package services

import (
	"fmt"
	"regexp"
	"strings"
)

const mobileNumberReason = "must be an 8-digit subscriber number prefixed by 01, 05 or 07, optionally preceded by +225"

var (
	mobileNumberPattern = regexp.MustCompile(`^(?:\+225|00225|225)?(0[157])(\d{8})$`)
	mobileNumberNoise   = strings.NewReplacer(" ", "", "-", "", ".", "")
)

// NormalizeMobileMoneyNumber validates a mobile money number and returns it
// in the canonical +225XXXXXXXXXX form.
func NormalizeMobileMoneyNumber(number string) (string, error) {
	m := mobileNumberPattern.FindStringSubmatch(mobileNumberNoise.Replace(strings.TrimSpace(number)))
	if m == nil {
		return "", fmt.Errorf("invalid mobile money number %q: %s", number, mobileNumberReason)
	}
	return "+225" + m[1] + m[2], nil
}
