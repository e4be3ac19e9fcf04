package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager() *TokenManager {
	return NewTokenManager("access-secret", "refresh-secret", "ledger-test", time.Minute, time.Hour)
}

func TestPairRoundTrip(t *testing.T) {
	tm := newManager()
	p, err := tm.GeneratePair(42)
	require.NoError(t, err)

	c, err := tm.ParseAccess(p.Access)
	require.NoError(t, err)
	assert.Equal(t, int64(42), c.UserID)
	assert.Equal(t, "ledger-test", c.Issuer)

	c, err = tm.ParseRefresh(p.Refresh)
	require.NoError(t, err)
	assert.Equal(t, int64(42), c.UserID)
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	tm := newManager()
	p, err := tm.GeneratePair(42)
	require.NoError(t, err)

	_, err = tm.ParseAccess(p.Refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = tm.ParseRefresh(p.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRejectsForeignIssuerAndExpired(t *testing.T) {
	other := NewTokenManager("access-secret", "refresh-secret", "someone-else", time.Minute, time.Hour)
	p, err := other.GeneratePair(1)
	require.NoError(t, err)
	_, err = newManager().ParseAccess(p.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokenManager("access-secret", "refresh-secret", "ledger-test", -time.Minute, time.Hour)
	p, err = expired.GeneratePair(1)
	require.NoError(t, err)
	_, err = newManager().ParseAccess(p.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
