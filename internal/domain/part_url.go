package domain

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	BaseURL         = "https://www.partselect.com"
	partURLTemplate = BaseURL + "/%s-1.htm"
)

var partNumberRegex = regexp.MustCompile(`^[A-Z0-9][A-Z0-9-]{1,31}$`)

// NormalizePartNumber trims and uppercases a user supplied part identifier
// (e.g. "ps11752778 ") and rejects anything that is not a plain code.
func NormalizePartNumber(partNumber string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(partNumber))
	if !partNumberRegex.MatchString(normalized) {
		return "", fmt.Errorf("invalid part number %q", partNumber)
	}
	return normalized, nil
}

// BuildPartURL returns the canonical product page for a part number.
func BuildPartURL(partNumber string) (string, error) {
	normalized, err := NormalizePartNumber(partNumber)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(partURLTemplate, normalized), nil
}
