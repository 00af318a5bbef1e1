// Package signing issues and checks HMAC signed links for report exports, so
// a PDF can be downloaded for a short time without a session.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrExpired          = errors.New("link expired")
)

// Signer generates and validates HMAC based signatures.
type Signer struct {
	secret []byte
	now    func() time.Time
}

// NewSigner creates a Signer.
func NewSigner(secret []byte) *Signer {
	return &Signer{secret: secret, now: time.Now}
}

// Sign returns the hex signature over a report id and expiry.
func (s *Signer) Sign(reportID string, expiresUnix int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "report:%s:%d", reportID, expiresUnix)
	return hex.EncodeToString(mac.Sum(nil))
}

// Validate compares the provided signature with the expected one. It does not
// look at the expiry; Verify does.
func (s *Signer) Validate(reportID, expires, signature string) bool {
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return false
	}
	expected := s.Sign(reportID, exp)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Verify checks the signature and that the link has not expired.
func (s *Signer) Verify(reportID, expires, signature string) error {
	if !s.Validate(reportID, expires, signature) {
		return ErrInvalidSignature
	}
	exp, _ := strconv.ParseInt(expires, 10, 64)
	if s.now().Unix() > exp {
		return ErrExpired
	}
	return nil
}

// ExportURL builds "<base>/exports/report?id=..&expires=..&sig=..".
func (s *Signer) ExportURL(baseURL, reportID string, ttl time.Duration) (string, time.Time) {
	expiresAt := s.now().Add(ttl).UTC().Truncate(time.Second)
	exp := expiresAt.Unix()
	q := url.Values{}
	q.Set("id", reportID)
	q.Set("expires", strconv.FormatInt(exp, 10))
	q.Set("sig", s.Sign(reportID, exp))
	return baseURL + "/exports/report?" + q.Encode(), expiresAt
}
