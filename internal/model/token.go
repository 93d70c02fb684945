package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var ErrNoVerificationToken = errors.New("no verification token in url")

var verificationPath = regexp.MustCompile(`/verification/([0-9A-Fa-f-]{36})$`)

// ExtractToken returns the UUID ending a verification URL such as
// http://54.247.95.108/fr/verification/019465c1-3f61-766c-9652-706e32dfb436
func ExtractToken(verificationURL string) (string, error) {
	m := verificationPath.FindStringSubmatch(verificationURL)
	if m == nil {
		return "", ErrNoVerificationToken
	}
	if _, err := uuid.Parse(m[1]); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoVerificationToken, err)
	}
	return m[1], nil
}

// BuildVerificationURL returns the public verification page of token.
// productionURL is ignored in test mode.
func BuildVerificationURL(token string, testMode bool, productionURL string) string {
	base := TestVerificationBaseURL
	if !testMode && productionURL != "" {
		base = productionURL
	}
	return strings.TrimRight(base, "/") + "/fr/verification/" + token
}
