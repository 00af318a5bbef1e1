package signing

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigner(t *testing.T) {
	s := NewSigner([]byte("topsecret"))
	sig := s.Sign("report123", 1700000000)
	require.NotEmpty(t, sig)

	assert.True(t, s.Validate("report123", "1700000000", sig))
	assert.False(t, s.Validate("wrong", "1700000000", sig), "wrong report id")
	assert.False(t, s.Validate("report123", "42", sig), "wrong expiry")
	assert.False(t, s.Validate("report123", "soon", sig), "unparsable expiry")
	assert.False(t, NewSigner([]byte("other")).Validate("report123", "1700000000", sig), "other secret")
}

func TestVerifyExpiry(t *testing.T) {
	now := time.Unix(1700000000, 0)
	s := NewSigner([]byte("topsecret"))
	s.now = func() time.Time { return now }

	sig := s.Sign("r1", now.Unix()+60)
	assert.NoError(t, s.Verify("r1", "1700000060", sig))

	s.now = func() time.Time { return now.Add(2 * time.Minute) }
	assert.ErrorIs(t, s.Verify("r1", "1700000060", sig), ErrExpired)
	assert.ErrorIs(t, s.Verify("r1", "1700000060", "bad"), ErrInvalidSignature)
}

func TestExportURL(t *testing.T) {
	s := NewSigner([]byte("topsecret"))
	link, expiresAt := s.ExportURL("http://localhost:8080", "r1", 5*time.Minute)
	require.True(t, strings.HasPrefix(link, "http://localhost:8080/exports/report?"))
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), expiresAt, 2*time.Second)

	u, err := url.Parse(link)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "r1", q.Get("id"))
	assert.NoError(t, s.Verify(q.Get("id"), q.Get("expires"), q.Get("sig")))
}
