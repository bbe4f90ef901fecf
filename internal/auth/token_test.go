package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-0123456789"

func testTokens(t *testing.T, now func() time.Time) *TokenManager {
	t.Helper()
	tm, err := NewTokenManagerWithClock(testSecret, "HS256", "finanbot-test", time.Hour, now)
	require.NoError(t, err)
	return tm
}

func TestNewTokenManager_Validation(t *testing.T) {
	_, err := NewTokenManager("short", "HS256", "iss", time.Hour)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewTokenManager(testSecret, "none", "iss", time.Hour)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewTokenManager(testSecret, "HS256", "iss", 0)
	assert.ErrorIs(t, err, ErrValidation)

	for _, alg := range []string{"HS256", "HS384", "HS512"} {
		_, err := NewTokenManager(testSecret, alg, "iss", time.Hour)
		assert.NoError(t, err, alg)
	}
}

func TestIssueAndVerify_RoundTrip(t *testing.T) {
	tm := testTokens(t, time.Now)
	subject := uuid.New()

	token, err := tm.Issue(subject, nil, 0)
	require.NoError(t, err)

	claims, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, subject, claims.Subject)
}

func TestIssue_ExtraClaims(t *testing.T) {
	tm := testTokens(t, time.Now)
	subject := uuid.New()

	token, err := tm.Issue(subject, map[string]any{"scope": "reports"}, 0)
	require.NoError(t, err)

	claims, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "reports", claims.Extra["scope"])
	// registered claims are not echoed through Extra
	assert.NotContains(t, claims.Extra, "sub")
	assert.NotContains(t, claims.Extra, "exp")
}

func TestIssue_ExtraClaimsCannotOverrideSubject(t *testing.T) {
	tm := testTokens(t, time.Now)
	subject := uuid.New()

	token, err := tm.Issue(subject, map[string]any{"sub": uuid.New().String()}, 0)
	require.NoError(t, err)

	claims, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, subject, claims.Subject)
}

func TestVerify_Expired(t *testing.T) {
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tm := testTokens(t, func() time.Time { return clock })

	token, err := tm.Issue(uuid.New(), nil, 0)
	require.NoError(t, err)

	// still valid just before expiry
	clock = clock.Add(time.Hour - time.Second)
	_, err = tm.Verify(token)
	require.NoError(t, err)

	clock = clock.Add(2 * time.Second)
	_, err = tm.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssue_TTLOverride(t *testing.T) {
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tm := testTokens(t, func() time.Time { return clock })

	token, err := tm.Issue(uuid.New(), nil, time.Minute)
	require.NoError(t, err)

	clock = clock.Add(2 * time.Minute)
	_, err = tm.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongSecret(t *testing.T) {
	tm := testTokens(t, time.Now)
	other, err := NewTokenManager("another-secret-key-456789", "HS256", "finanbot-test", time.Hour)
	require.NoError(t, err)

	token, err := tm.Issue(uuid.New(), nil, 0)
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_TamperedSignature(t *testing.T) {
	tm := testTokens(t, time.Now)

	token, err := tm.Issue(uuid.New(), nil, 0)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := strings.Join([]string{parts[0], parts[1], string(sig)}, ".")

	_, err = tm.Verify(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Malformed(t *testing.T) {
	tm := testTokens(t, time.Now)

	for _, tokenString := range []string{"", "not.a.jwt", "garbage", "a.b"} {
		_, err := tm.Verify(tokenString)
		assert.ErrorIs(t, err, ErrInvalidToken, tokenString)
	}
}

func TestVerify_SubjectMissingOrUnparseable(t *testing.T) {
	tm := testTokens(t, time.Now)
	exp := time.Now().Add(time.Hour).Unix()

	for name, claims := range map[string]jwt.MapClaims{
		"missing subject":  {"exp": exp},
		"non-uuid subject": {"sub": "user-42", "exp": exp},
		"empty subject":    {"sub": "", "exp": exp},
	} {
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err, name)

		_, err = tm.Verify(signed)
		assert.ErrorIs(t, err, ErrInvalidToken, name)
	}
}

func TestVerify_MissingExpiry(t *testing.T) {
	tm := testTokens(t, time.Now)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256,
		jwt.MapClaims{"sub": uuid.New().String()}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = tm.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_AlgorithmMismatch(t *testing.T) {
	tm := testTokens(t, time.Now)

	hs512, err := NewTokenManager(testSecret, "HS512", "finanbot-test", time.Hour)
	require.NoError(t, err)
	token, err := hs512.Issue(uuid.New(), nil, 0)
	require.NoError(t, err)

	_, err = tm.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
