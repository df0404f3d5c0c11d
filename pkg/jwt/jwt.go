package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultTTL = time.Hour

var ErrInvalidToken = errors.New("invalid token")

// Config holds the key material and policy for signing and verifying tokens.
// PublicKey may be omitted when PrivateKey is set.
type Config struct {
	PrivateKey ed25519.PrivateKey
	PublicKey  ed25519.PublicKey
	TTL        time.Duration
	Issuer     string
	Now        func() time.Time
}

type Claims struct {
	jwt.RegisteredClaims
}

// Manager signs tokens with an Ed25519 private key and verifies them with the
// matching public key, so verification needs neither a shared secret nor a
// database lookup.
type Manager struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
	ttl        time.Duration
	issuer     string
	now        func() time.Time
}

func NewManager(cfg Config) (*Manager, error) {
	if cfg.PrivateKey == nil && cfg.PublicKey == nil {
		return nil, errors.New("token signing key is required")
	}
	if cfg.PrivateKey != nil && len(cfg.PrivateKey) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("private key must be %d bytes", ed25519.PrivateKeySize)
	}

	publicKey := cfg.PublicKey
	if publicKey == nil {
		publicKey = cfg.PrivateKey.Public().(ed25519.PublicKey)
	}
	if len(publicKey) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes", ed25519.PublicKeySize)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Manager{
		privateKey: cfg.PrivateKey,
		publicKey:  publicKey,
		ttl:        ttl,
		issuer:     strings.TrimSpace(cfg.Issuer),
		now:        now,
	}, nil
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// GenerateToken issues a token for subject valid from now until now+TTL.
func (m *Manager) GenerateToken(subject string) (string, error) {
	if m.privateKey == nil {
		return "", errors.New("token manager has no signing key")
	}
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("token subject is required")
	}

	now := m.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	signed, err := token.SignedString(m.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// ValidateToken verifies the signature and time claims of tokenString. A token
// is rejected once the current time reaches its expiry.
func (m *Manager) ValidateToken(tokenString string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if m.issuer != "" {
		options = append(options, jwt.WithIssuer(m.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.publicKey, nil
	}, options...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
