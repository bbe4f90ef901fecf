package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MinSecretLength is the shortest signing secret accepted at construction.
const MinSecretLength = 16

// Claims is the verified payload of a bearer token.
type Claims struct {
	Subject uuid.UUID
	Extra   map[string]any
}

// TokenManager issues and verifies signed bearer tokens. It holds no
// mutable state and is safe for concurrent use.
type TokenManager struct {
	secret []byte
	method jwt.SigningMethod
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a manager with the provided secret, signing
// algorithm name (HS256, HS384, or HS512), issuer, and default lifetime.
func NewTokenManager(secret, algorithm, issuer string, ttl time.Duration) (*TokenManager, error) {
	return NewTokenManagerWithClock(secret, algorithm, issuer, ttl, time.Now)
}

// NewTokenManagerWithClock is NewTokenManager with an injected clock, used
// by tests to control expiry.
func NewTokenManagerWithClock(secret, algorithm, issuer string, ttl time.Duration, now func() time.Time) (*TokenManager, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: secret key must be at least %d characters", ErrValidation, MinSecretLength)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("%w: token ttl must be positive", ErrValidation)
	}
	method, err := signingMethod(algorithm)
	if err != nil {
		return nil, err
	}
	return &TokenManager{
		secret: []byte(secret),
		method: method,
		issuer: issuer,
		ttl:    ttl,
		now:    now,
	}, nil
}

func signingMethod(algorithm string) (jwt.SigningMethod, error) {
	switch algorithm {
	case "", jwt.SigningMethodHS256.Name:
		return jwt.SigningMethodHS256, nil
	case jwt.SigningMethodHS384.Name:
		return jwt.SigningMethodHS384, nil
	case jwt.SigningMethodHS512.Name:
		return jwt.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("%w: unsupported signing algorithm %q", ErrValidation, algorithm)
	}
}

// Issue encodes the subject and expiry into a signed token. Extra claims,
// if any, are merged in but cannot override the registered claims. A
// positive ttlOverride replaces the configured default lifetime.
func (t *TokenManager) Issue(subject uuid.UUID, extra map[string]any, ttlOverride time.Duration) (string, error) {
	ttl := t.ttl
	if ttlOverride > 0 {
		ttl = ttlOverride
	}
	now := t.now()

	claims := jwt.MapClaims{}
	for k, v := range extra {
		claims[k] = v
	}
	claims["iss"] = t.issuer
	claims["sub"] = subject.String()
	claims["iat"] = now.Unix()
	claims["exp"] = now.Add(ttl).Unix()

	token := jwt.NewWithClaims(t.method, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token string. Any failure mode, whether a
// bad signature, malformed input, elapsed expiry, or a missing or
// unparseable subject, reports ErrInvalidToken.
func (t *TokenManager) Verify(tokenString string) (Claims, error) {
	parsed, err := jwt.Parse(
		tokenString,
		func(token *jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{t.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	sub, err := mapClaims.GetSubject()
	if err != nil || sub == "" {
		return Claims{}, ErrInvalidToken
	}
	subject, err := uuid.Parse(sub)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	extra := make(map[string]any, len(mapClaims))
	for k, v := range mapClaims {
		switch k {
		case "iss", "sub", "iat", "exp":
		default:
			extra[k] = v
		}
	}
	return Claims{Subject: subject, Extra: extra}, nil
}
