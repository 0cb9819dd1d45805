package token

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/municipal-dp/digital-profile/internal/db/models"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func newClock() *clock {
	return &clock{now: time.Now().Truncate(time.Second)}
}

func staffConfig() Config {
	return Config{
		Secret:     []byte(strings.Repeat("s", 32)),
		Issuer:     "digital-profile",
		Audience:   "digital-profile-staff",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	}
}

func citizenConfig() Config {
	return Config{
		Secret:     []byte(strings.Repeat("c", 32)),
		Issuer:     "digital-profile",
		Audience:   "digital-profile-citizen",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	}
}

func newStaff(t *testing.T, opts ...Option) (*StaffService, *MemoryBlacklist) {
	t.Helper()

	bl := NewMemoryBlacklist()
	svc, err := NewStaffService(staffConfig(), bl, opts...)
	require.NoError(t, err)

	return svc, bl
}

func staffUser() *models.User {
	u := models.NewUser("officer@example.com", "hash", "Officer")
	u.Permissions = []models.Permission{{Type: "VIEW_USER"}, {Type: "EDIT_USER"}}

	return u
}

func TestNewValidatesConfig(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"no secret", func(c *Config) { c.Secret = nil }},
		{"no issuer", func(c *Config) { c.Issuer = "" }},
		{"no audience", func(c *Config) { c.Audience = "" }},
		{"zero ttl", func(c *Config) { c.AccessTTL = 0 }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := staffConfig()
			tc.mutate(&cfg)

			_, err := NewStaffService(cfg, NewMemoryBlacklist())
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	_, err := NewStaffService(staffConfig(), nil)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestTokenPairValidates(t *testing.T) {
	ctx := context.Background()
	svc, _ := newStaff(t)
	user := staffUser()

	pair, err := svc.GenerateTokenPair(user)
	require.NoError(t, err)

	assert.Equal(t, int64(900), pair.ExpiresIn)
	assert.True(t, svc.ValidateToken(ctx, pair.AccessToken))
	assert.True(t, svc.ValidateToken(ctx, pair.RefreshToken))
	assert.True(t, svc.IsTokenValid(ctx, pair.AccessToken, user))

	access, err := svc.VerifyKind(ctx, pair.AccessToken, KindAccess)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), access.UserID)
	assert.ElementsMatch(t, []string{"PERMISSION_VIEW_USER", "PERMISSION_EDIT_USER"}, access.Authorities)
	assert.NotEmpty(t, access.ID)

	_, err = svc.VerifyKind(ctx, pair.RefreshToken, KindAccess)
	require.ErrorIs(t, err, ErrWrongKind)
}

func TestIsTokenValidBindsSubject(t *testing.T) {
	ctx := context.Background()
	svc, _ := newStaff(t)

	tok, err := svc.GenerateToken(staffUser())
	require.NoError(t, err)

	other := models.NewUser("someone@example.com", "hash", "Someone")
	assert.False(t, svc.IsTokenValid(ctx, tok, other))
}

func TestBlacklistedTokenFailsValidation(t *testing.T) {
	ctx := context.Background()
	svc, bl := newStaff(t)

	tok, err := svc.GenerateToken(staffUser())
	require.NoError(t, err)

	require.NoError(t, svc.InvalidateToken(ctx, tok))
	require.NoError(t, svc.InvalidateToken(ctx, tok))
	assert.Equal(t, 1, bl.Len())

	assert.False(t, svc.ValidateToken(ctx, tok))

	_, err = svc.Verify(ctx, tok)
	require.ErrorIs(t, err, ErrBlacklisted)

	// signature and expiry are still fine
	claims, err := svc.ExtractAllClaims(tok)
	require.NoError(t, err)
	assert.Equal(t, "officer@example.com", claims.Subject)
}

func TestExpiredTokenIsRejected(t *testing.T) {
	ctx := context.Background()
	svc, bl := newStaff(t)
	user := staffUser()

	tok, err := svc.GenerateExpiredToken(user)
	require.NoError(t, err)

	assert.False(t, svc.IsTokenValid(ctx, tok, user))

	_, err = svc.Verify(ctx, tok)
	require.ErrorIs(t, err, ErrExpired)

	email, err := svc.ExtractEmail(tok)
	require.NoError(t, err)
	assert.Equal(t, user.Email, email)

	require.NoError(t, svc.InvalidateToken(ctx, tok))
	assert.Equal(t, 0, bl.Len())
}

func TestTokenExpiresWithClock(t *testing.T) {
	ctx := context.Background()
	clk := newClock()
	svc, _ := newStaff(t, WithClock(clk.Now))

	tok, err := svc.GenerateToken(staffUser())
	require.NoError(t, err)
	assert.True(t, svc.ValidateToken(ctx, tok))

	clk.Advance(15*time.Minute + time.Second)
	assert.False(t, svc.ValidateToken(ctx, tok))
}

func TestAuthoritiesAreFixedAtIssuance(t *testing.T) {
	ctx := context.Background()
	svc, _ := newStaff(t)
	user := staffUser()

	tok, err := svc.GenerateToken(user)
	require.NoError(t, err)

	user.Permissions = []models.Permission{{Type: "VIEW_USER"}}

	claims, err := svc.Verify(ctx, tok)
	require.NoError(t, err)
	assert.Contains(t, claims.Authorities, "PERMISSION_EDIT_USER")
}

func TestRejectsForeignTokens(t *testing.T) {
	ctx := context.Background()
	staff, _ := newStaff(t)

	citizens, err := NewCitizenService(citizenConfig(), NewMemoryBlacklist())
	require.NoError(t, err)

	citizenTok, err := citizens.GenerateToken(models.NewCitizen("c@example.com", "hash", "C"))
	require.NoError(t, err)

	_, err = staff.Verify(ctx, citizenTok)
	require.ErrorIs(t, err, ErrMalformed)

	// same secret, other audience
	sameSecret := citizenConfig()
	sameSecret.Secret = staffConfig().Secret
	crossed, err := NewCitizenService(sameSecret, NewMemoryBlacklist())
	require.NoError(t, err)

	crossedTok, err := crossed.GenerateToken(models.NewCitizen("c@example.com", "hash", "C"))
	require.NoError(t, err)

	_, err = staff.Verify(ctx, crossedTok)
	require.ErrorIs(t, err, ErrMalformed)
}

func TestRejectsUnsignedAndGarbage(t *testing.T) {
	ctx := context.Background()
	svc, _ := newStaff(t)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &StaffClaims{Base: Base{
		TokenKind: KindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "officer@example.com",
			Issuer:    "digital-profile",
			Audience:  jwt.ClaimStrings{"digital-profile-staff"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for _, raw := range []string{"", "garbage", "a.b.c", unsigned} {
		_, err := svc.Verify(ctx, raw)
		require.ErrorIs(t, err, ErrMalformed, raw)

		_, ok := svc.ExtractUsername(raw)
		assert.False(t, ok)
	}

	require.ErrorIs(t, svc.InvalidateToken(ctx, "garbage"), ErrMalformed)
}

func TestExtractEmailRequiresSubject(t *testing.T) {
	svc, _ := newStaff(t)

	tok, err := svc.GenerateToken(models.NewUser("", "hash", "Nameless"))
	require.NoError(t, err)

	_, err = svc.ExtractEmail(tok)
	require.ErrorIs(t, err, ErrMissingClaim)

	_, ok := svc.ExtractUsername(tok)
	assert.False(t, ok)
}

func TestCitizenClaims(t *testing.T) {
	ctx := context.Background()

	svc, err := NewCitizenService(citizenConfig(), NewMemoryBlacklist())
	require.NoError(t, err)

	ward := 7
	citizen := models.NewCitizen("resident@example.com", "hash", "Resident")
	citizen.WardNumber = &ward

	tok, err := svc.GenerateToken(citizen)
	require.NoError(t, err)

	claims, err := svc.Verify(ctx, tok)
	require.NoError(t, err)

	id, err := claims.CitizenUUID()
	require.NoError(t, err)
	assert.Equal(t, citizen.ID, id)

	p, err := claims.Principal()
	require.NoError(t, err)
	assert.Equal(t, "resident@example.com", p.Email)
	assert.Equal(t, 7, *p.WardNumber)
	assert.Empty(t, p.Authorities)

	_, err = (&CitizenClaims{}).CitizenUUID()
	require.ErrorIs(t, err, ErrMissingClaim)
}

func TestStaffPrincipal(t *testing.T) {
	ctx := context.Background()
	svc, _ := newStaff(t)

	ward := 3
	user := staffUser()
	user.IsWardLevel = true
	user.WardNumber = &ward

	tok, err := svc.GenerateToken(user)
	require.NoError(t, err)

	claims, err := svc.Verify(ctx, tok)
	require.NoError(t, err)

	p, err := claims.Principal()
	require.NoError(t, err)
	assert.Equal(t, user.ID, p.ID)
	assert.Equal(t, 3, *p.WardNumber)
	assert.True(t, p.HasAuthority("PERMISSION_VIEW_USER"))
}
