package tokens

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/onlineexam/exam-service/internal/config"
	"github.com/onlineexam/exam-service/internal/models"
	"github.com/stretchr/testify/require"
)

func enc(b []byte) string { return base64.RawURLEncoding.EncodeToString(b) }

func testConfig(secret string) *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = secret
	return cfg
}

func TestGenerateAccessToken_VerifiesAndExposesClaims(t *testing.T) {
	cfg := testConfig("test-secret-32-bytes-should-be-long-enough")
	u := &models.User{Sub: "user-123", Name: "Test User", Email: "test@example.com"}

	tokenStr, err := GenerateAccessToken(cfg, u, 2*time.Minute)
	require.NoError(t, err)

	tok, err := NewHMACVerifier(cfg.JWT.Secret).Verify(context.Background(), tokenStr)
	require.NoError(t, err)
	var claims map[string]interface{}
	require.NoError(t, tok.Claims(&claims))
	require.Equal(t, "user-123", claims["sub"])
	require.Equal(t, "test@example.com", claims["email"])
}

func TestGenerateAccessToken_RequiresSecret(t *testing.T) {
	_, err := GenerateAccessToken(testConfig(""), &models.User{Sub: "u"}, time.Minute)
	require.Error(t, err)
}

func TestVerify_Expired(t *testing.T) {
	cfg := testConfig("another-secret-32-bytes-longgggg")
	// already past the allowed clock skew
	tokenStr, err := GenerateAccessToken(cfg, &models.User{Sub: "u2"}, -time.Minute)
	require.NoError(t, err)

	_, err = NewHMACVerifier(cfg.JWT.Secret).Verify(context.Background(), tokenStr)
	require.Error(t, err)
	require.True(t, errors.Is(err, jwt.ErrTokenExpired))
}

func TestVerify_MissingExpRejected(t *testing.T) {
	secret := "no-exp-secret-32-bytes-xxxxxxxxxxx"
	tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u"}).SignedString([]byte(secret))
	require.NoError(t, err)

	_, err = NewHMACVerifier(secret).Verify(context.Background(), tokenStr)
	require.Error(t, err)
}

func TestVerify_WrongSecretFails(t *testing.T) {
	cfg := testConfig("secret-one-32-bytes-xxxxxxxxxxxxxxxx")
	tokenStr, err := GenerateAccessToken(cfg, &models.User{Sub: "u3"}, 2*time.Minute)
	require.NoError(t, err)

	_, err = NewHMACVerifier("different-secret-xxxxxxxxxxxxxxxx").Verify(context.Background(), tokenStr)
	require.Error(t, err)
}

func TestVerify_Malformed(t *testing.T) {
	_, err := NewHMACVerifier("x").Verify(context.Background(), "not.a.jwt")
	require.Error(t, err)
}

func TestVerify_AlgNoneRejected(t *testing.T) {
	headerEnc := enc([]byte(`{"alg":"none"}`))
	payloadEnc := enc([]byte(`{"sub":"u-none","exp":9999999999}`))
	_, err := NewHMACVerifier("x").Verify(context.Background(), headerEnc+"."+payloadEnc+".")
	require.Error(t, err)
}

func TestVerify_OtherHMACAlgRejected(t *testing.T) {
	secret := "hs512-secret-32-bytes-xxxxxxxxxxxxx"
	tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub": "u", "exp": time.Now().Add(time.Minute).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	_, err = NewHMACVerifier(secret).Verify(context.Background(), tokenStr)
	require.Error(t, err)
}

func TestVerify_TamperedPayload(t *testing.T) {
	cfg := testConfig("tamper-test-secret-32-bytes-xxxxxxx")
	tokenStr, err := GenerateAccessToken(cfg, &models.User{Sub: "user-t"}, 5*time.Minute)
	require.NoError(t, err)

	parts := strings.Split(tokenStr, ".")
	require.Len(t, parts, 3)
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	parts[1] = enc([]byte(strings.Replace(string(payload), "user-t", "attacker", 1)))

	_, err = NewHMACVerifier(cfg.JWT.Secret).Verify(context.Background(), strings.Join(parts, "."))
	require.Error(t, err)
}
