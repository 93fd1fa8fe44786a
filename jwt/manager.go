package jwt

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod selects the HMAC algorithm used for access tokens.
type SigningMethod string

const (
	// MethodHS256 signs access tokens with HMAC-SHA256.
	MethodHS256 SigningMethod = "hs256"
	// MethodHS512 signs access tokens with HMAC-SHA512.
	MethodHS512 SigningMethod = "hs512"
)

// refreshValueBytes is the entropy of an opaque refresh value. 32 bytes
// hex-encode to a 64-character string.
const refreshValueBytes = 32

var (
	// ErrInvalidToken is returned when an access token fails signature
	// verification, is malformed, or is expired.
	ErrInvalidToken = errors.New("invalid access token")
	// ErrSubjectMissing is returned when a structurally valid token carries
	// no subject claim.
	ErrSubjectMissing = errors.New("token subject missing")
)

// Config holds codec configuration. The secret and algorithm are supplied by
// the caller; the Manager never generates or rotates signing keys.
type Config struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod SigningMethod
	Secret        []byte
	Issuer        string
	Leeway        time.Duration
}

// Manager is the signed-token codec. It is immutable after construction and
// safe for concurrent use.
type Manager struct {
	config Config
	now    func() time.Time
}

// AccessClaims is the claim set carried by an access token: subject,
// issued-at, and expiry. Nothing else is embedded.
type AccessClaims struct {
	jwt.RegisteredClaims
}

// NewManager validates cfg and returns a codec bound to it.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL <= 0 {
		return nil, errors.New("invalid access TTL configuration")
	}
	if cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid refresh TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	switch cfg.SigningMethod {
	case MethodHS256, MethodHS512:
		if len(cfg.Secret) == 0 {
			return nil, errors.New("signing secret required")
		}
	default:
		return nil, fmt.Errorf("unsupported signing method %q", cfg.SigningMethod)
	}

	return &Manager{config: cfg, now: time.Now}, nil
}

// NewManagerWithClock creates a [Manager] with an injected clock. Test use
// only.
func NewManagerWithClock(cfg Config, now func() time.Time) (*Manager, error) {
	m, err := NewManager(cfg)
	if err != nil {
		return nil, err
	}
	m.now = now
	return m, nil
}

// CreateAccess mints a signed access token for subjectID with
// iat = now and exp = now + AccessTTL.
func (m *Manager) CreateAccess(subjectID string) (string, error) {
	now := m.now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.AccessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	if m.config.Issuer != "" {
		claims.Issuer = m.config.Issuer
	}

	token := jwt.NewWithClaims(m.method(), claims)
	return token.SignedString(m.config.Secret)
}

// ParseAccess verifies the signature and expiry of tokenStr and returns its
// claims. Every failure mode — bad signature, malformed payload, wrong
// algorithm, expiry — surfaces as [ErrInvalidToken]; callers must not be able
// to distinguish a forged token from an expired one.
func (m *Manager) ParseAccess(tokenStr string) (*AccessClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method().Alg()}),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &AccessClaims{}, func(t *jwt.Token) (interface{}, error) {
		return m.config.Secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// SubjectID extracts the subject claim, guarding against foreign or
// malformed tokens that verify but carry no subject.
func (m *Manager) SubjectID(claims *AccessClaims) (string, error) {
	if claims == nil || claims.Subject == "" {
		return "", ErrSubjectMissing
	}
	return claims.Subject, nil
}

// NewRefreshValue generates a cryptographically random opaque refresh value
// and its expiry time. The value embeds no claims and is never signed.
func (m *Manager) NewRefreshValue() (string, time.Time, error) {
	buf := make([]byte, refreshValueBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", time.Time{}, fmt.Errorf("refresh value generation: %w", err)
	}
	return hex.EncodeToString(buf), m.now().Add(m.config.RefreshTTL), nil
}

// DecodeUnverified decodes tokenStr without checking its signature or
// validity. Used to read the exp claim when sizing denylist TTLs; never for
// validation.
func (m *Manager) DecodeUnverified(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// AccessTTL reports the configured access-token lifetime.
func (m *Manager) AccessTTL() time.Duration {
	return m.config.AccessTTL
}

func (m *Manager) method() jwt.SigningMethod {
	switch m.config.SigningMethod {
	case MethodHS512:
		return jwt.SigningMethodHS512
	default:
		return jwt.SigningMethodHS256
	}
}
