// Package token issues and validates the JWTs of staff users and citizens.
//
// One generic Service is instantiated per principal kind. The instances differ in claim
// shape, secret and audience, so a citizen token never validates as a staff token.
package token

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	// ErrMalformed is returned for tokens that fail to parse or carry a bad signature or audience.
	ErrMalformed = errors.New("malformed token")
	// ErrExpired is returned for well-formed tokens past their expiry.
	ErrExpired = errors.New("token expired")
	// ErrBlacklisted is returned for tokens invalidated by logout.
	ErrBlacklisted = errors.New("token blacklisted")
	// ErrWrongKind is returned when a refresh token is used as access token or vice versa.
	ErrWrongKind = errors.New("wrong token kind")
	// ErrMissingClaim is returned when an expected claim is absent.
	ErrMissingClaim = errors.New("missing claim")
	// ErrInvalidConfig is returned by New for unusable settings.
	ErrInvalidConfig = errors.New("invalid token service config")
)

// Kind distinguishes access and refresh tokens.
type Kind string

const (
	// KindAccess is the short lived bearer token.
	KindAccess Kind = "access"
	// KindRefresh is the long lived token exchanged for a new access token.
	KindRefresh Kind = "refresh"
)

// Base holds the claims shared by every token.
type Base struct {
	TokenKind Kind `json:"typ"`
	jwt.RegisteredClaims
}

// Standard returns the shared claims.
func (b *Base) Standard() *Base {
	return b
}

// Claims is implemented by pointer claim types embedding Base.
type Claims interface {
	jwt.Claims
	Standard() *Base
}

// Principal is anything a token can be issued for.
type Principal interface {
	TokenSubject() string
}

// Shape builds the claim set of a principal kind.
type Shape[P Principal, C Claims] interface {
	// Empty returns zero claims to decode into.
	Empty() C
	// Fill returns the custom claims of p. Registered claims are set by the Service.
	Fill(p P) C
}

// Config holds the settings of one Service.
type Config struct {
	Name       string // label in logs and metrics, e.g. "staff"
	Secret     []byte
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Pair is the result of a login or refresh.
type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"` // seconds until the access token expires
	TokenType    string `json:"tokenType"`
}

// Option configures a Service.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Service issues and validates tokens of one principal kind.
type Service[P Principal, C Claims] struct {
	cfg       Config
	shape     Shape[P, C]
	blacklist Blacklist
	now       func() time.Time
}

// New creates a Service. The blacklist is consulted by every validation.
func New[P Principal, C Claims](cfg Config, shape Shape[P, C], bl Blacklist, opts ...Option) (*Service[P, C], error) {
	if len(cfg.Secret) == 0 || cfg.Issuer == "" || cfg.Audience == "" {
		return nil, fmt.Errorf("%w: secret, issuer and audience are required", ErrInvalidConfig)
	}

	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, fmt.Errorf("%w: lifetimes must be positive", ErrInvalidConfig)
	}

	if bl == nil {
		return nil, fmt.Errorf("%w: blacklist is required", ErrInvalidConfig)
	}

	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	return &Service[P, C]{cfg: cfg, shape: shape, blacklist: bl, now: o.now}, nil
}

// Name returns the configured service name.
func (s *Service[P, C]) Name() string {
	return s.cfg.Name
}

// AccessTTL returns the lifetime of access tokens.
func (s *Service[P, C]) AccessTTL() time.Duration {
	return s.cfg.AccessTTL
}

// GenerateToken issues an access token for p.
func (s *Service[P, C]) GenerateToken(p P) (string, error) {
	now := s.now()
	return s.issue(p, KindAccess, now, now.Add(s.cfg.AccessTTL))
}

// GenerateRefreshToken issues a refresh token for p.
func (s *Service[P, C]) GenerateRefreshToken(p P) (string, error) {
	now := s.now()
	return s.issue(p, KindRefresh, now, now.Add(s.cfg.RefreshTTL))
}

// GenerateTokenPair issues an access and a refresh token for p.
func (s *Service[P, C]) GenerateTokenPair(p P) (Pair, error) {
	access, err := s.GenerateToken(p)
	if err != nil {
		return Pair{}, err
	}

	refresh, err := s.GenerateRefreshToken(p)
	if err != nil {
		return Pair{}, err
	}

	return Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.cfg.AccessTTL.Seconds()),
		TokenType:    "Bearer",
	}, nil
}

// GenerateExpiredToken issues a correctly signed access token that expired a minute ago.
// Tests use it to exercise expiry handling.
func (s *Service[P, C]) GenerateExpiredToken(p P) (string, error) {
	now := s.now()
	return s.issue(p, KindAccess, now.Add(-s.cfg.AccessTTL-time.Minute), now.Add(-time.Minute))
}

func (s *Service[P, C]) issue(p P, kind Kind, issuedAt, expiresAt time.Time) (string, error) {
	claims := s.shape.Fill(p)

	b := claims.Standard()
	b.TokenKind = kind
	b.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    s.cfg.Issuer,
		Subject:   p.TokenSubject(),
		Audience:  jwt.ClaimStrings{s.cfg.Audience},
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		NotBefore: jwt.NewNumericDate(issuedAt),
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ID:        uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}

	issuedTotal.WithLabelValues(s.cfg.Name, string(kind)).Inc()

	return signed, nil
}

func (s *Service[P, C]) keyFunc(_ *jwt.Token) (any, error) {
	return s.cfg.Secret, nil
}

func (s *Service[P, C]) parserOptions() []jwt.ParserOption {
	return []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(s.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	}
}

// parse verifies signature and registered claims, without the blacklist.
func (s *Service[P, C]) parse(raw string) (C, error) {
	claims := s.shape.Empty()

	_, err := jwt.ParseWithClaims(raw, claims, s.keyFunc, s.parserOptions()...)
	if err != nil {
		var zero C

		if errors.Is(err, jwt.ErrTokenExpired) {
			return zero, fmt.Errorf("%w: %w", ErrExpired, err)
		}

		return zero, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	return claims, nil
}

// Verify fully validates raw and returns its claims. It fails with ErrMalformed,
// ErrExpired or ErrBlacklisted.
func (s *Service[P, C]) Verify(ctx context.Context, raw string) (C, error) {
	var zero C

	claims, err := s.parse(raw)
	if err != nil {
		validationsTotal.WithLabelValues(s.cfg.Name, outcome(err)).Inc()
		return zero, err
	}

	listed, err := s.blacklist.Contains(ctx, Hash(raw))
	if err != nil {
		// an unreachable blacklist rejects the token
		log.Error().Err(err).Str("service", s.cfg.Name).Msg("failed to query token blacklist")
		validationsTotal.WithLabelValues(s.cfg.Name, "error").Inc()

		return zero, fmt.Errorf("%w: blacklist unavailable: %w", ErrMalformed, err)
	}

	if listed {
		validationsTotal.WithLabelValues(s.cfg.Name, "blacklisted").Inc()
		return zero, ErrBlacklisted
	}

	validationsTotal.WithLabelValues(s.cfg.Name, "valid").Inc()

	return claims, nil
}

// VerifyKind is Verify restricted to one token kind.
func (s *Service[P, C]) VerifyKind(ctx context.Context, raw string, kind Kind) (C, error) {
	claims, err := s.Verify(ctx, raw)
	if err != nil {
		return claims, err
	}

	if claims.Standard().TokenKind != kind {
		var zero C
		return zero, fmt.Errorf("%w: want %s", ErrWrongKind, kind)
	}

	return claims, nil
}

// ValidateToken reports whether raw is well-formed, correctly signed, unexpired and not blacklisted.
func (s *Service[P, C]) ValidateToken(ctx context.Context, raw string) bool {
	_, err := s.Verify(ctx, raw)
	return err == nil
}

// IsTokenValid reports whether raw validates and was issued to p.
func (s *Service[P, C]) IsTokenValid(ctx context.Context, raw string, p P) bool {
	claims, err := s.Verify(ctx, raw)
	if err != nil {
		return false
	}

	b := claims.Standard()

	return b.Subject == p.TokenSubject() && b.ExpiresAt != nil && s.now().Before(b.ExpiresAt.Time)
}

// ExtractAllClaims decodes raw checking only its signature, so expired and blacklisted
// tokens still yield their claims.
func (s *Service[P, C]) ExtractAllClaims(raw string) (C, error) {
	claims := s.shape.Empty()

	opts := append(s.parserOptions(), jwt.WithoutClaimsValidation())

	if _, err := jwt.ParseWithClaims(raw, claims, s.keyFunc, opts...); err != nil {
		var zero C
		return zero, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	return claims, nil
}

// ExtractUsername returns the subject of raw, false if it can not be decoded or is empty.
func (s *Service[P, C]) ExtractUsername(raw string) (string, bool) {
	claims, err := s.ExtractAllClaims(raw)
	if err != nil {
		return "", false
	}

	sub := claims.Standard().Subject

	return sub, sub != ""
}

// ExtractEmail returns the subject of raw and fails when it is absent.
func (s *Service[P, C]) ExtractEmail(raw string) (string, error) {
	claims, err := s.ExtractAllClaims(raw)
	if err != nil {
		return "", err
	}

	if claims.Standard().Subject == "" {
		return "", fmt.Errorf("%w: sub", ErrMissingClaim)
	}

	return claims.Standard().Subject, nil
}

// InvalidateToken blacklists raw until its natural expiry. Repeated calls are no-ops and
// already expired tokens need no entry.
func (s *Service[P, C]) InvalidateToken(ctx context.Context, raw string) error {
	claims, err := s.ExtractAllClaims(raw)
	if err != nil {
		return err
	}

	exp := claims.Standard().ExpiresAt
	if exp == nil || !s.now().Before(exp.Time) {
		return nil
	}

	if err := s.blacklist.Add(ctx, Hash(raw), exp.Time); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}

	blacklistedTotal.WithLabelValues(s.cfg.Name).Inc()
	log.Debug().Str("service", s.cfg.Name).Str("sub", claims.Standard().Subject).Msg("token invalidated")

	return nil
}

// Hash returns the blacklist key of a raw token.
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrBlacklisted):
		return "blacklisted"
	default:
		return "malformed"
	}
}
