package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testIssuer(now func() time.Time) *Issuer {
	return NewIssuer(Config{
		Secret:   []byte(testSecret),
		Issuer:   "burger-test",
		TokenTTL: time.Hour,
		Now:      now,
	})
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("BURGER_AUTH_SECRET", testSecret)
	t.Setenv("BURGER_AUTH_TOKEN_TTL", "30m")

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "burger", cfg.Issuer)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, []byte(testSecret), cfg.Secret)
}

func TestLoadConfigFromEnvRejectsShortSecret(t *testing.T) {
	t.Setenv("BURGER_AUTH_SECRET", "short")
	_, err := LoadConfigFromEnv()
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NoError(t, CheckPassword(hash, "hunter22"))
	assert.ErrorIs(t, CheckPassword(hash, "hunter23"), ErrInvalidCredentials)

	_, err = HashPassword("abc")
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = HashPassword(strings.Repeat("a", MaxPasswordLength+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	// 24 three-byte runes fill the limit exactly.
	long := strings.Repeat("€", MaxPasswordLength/3)
	hash, err = HashPassword(long)
	require.NoError(t, err)
	assert.NoError(t, CheckPassword(hash, long))

	_, err = HashPassword(long + "a")
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestIssueAndVerify(t *testing.T) {
	issuer := testIssuer(time.Now)

	tok, err := issuer.Issue("user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", tok.LocalID)
	assert.Equal(t, int64(3600), tok.ExpiresIn)

	claims, err := issuer.Verify(tok.IDToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestVerifyRejects(t *testing.T) {
	now := time.Now()
	issuer := testIssuer(func() time.Time { return now })
	tok, err := issuer.Issue("user-1")
	require.NoError(t, err)

	later := testIssuer(func() time.Time { return now.Add(2 * time.Hour) })
	_, err = later.Verify(tok.IDToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewIssuer(Config{Secret: []byte("another-secret-another-secret-xx"), Issuer: "burger-test", TokenTTL: time.Hour})
	_, err = other.Verify(tok.IDToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Verify("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Verify("")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/orders?auth=query-token", nil)
	assert.Equal(t, "query-token", TokenFromRequest(r))

	r.Header.Set("Authorization", "Bearer header-token")
	assert.Equal(t, "header-token", TokenFromRequest(r))

	r = httptest.NewRequest(http.MethodGet, "/orders", nil)
	r.Header.Set("Authorization", "Basic abc")
	assert.Equal(t, "", TokenFromRequest(r))
}

func TestRequireToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	issuer := testIssuer(time.Now)

	router := gin.New()
	router.GET("/private", RequireToken(issuer), func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/private", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), ErrMissingToken.Error())

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer nope")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tok, err := issuer.Issue("user-7")
	require.NoError(t, err)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+tok.IDToken)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-7", w.Body.String())
}
