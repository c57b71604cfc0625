package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// fakeToken implements Token
type fakeToken struct {
	data map[string]interface{}
}

func (t *fakeToken) Claims(v interface{}) error {
	if mm, ok := v.(*map[string]interface{}); ok {
		*mm = t.data
		return nil
	}
	return fmt.Errorf("unsupported claims type")
}

// fakeVerifier accepts only "goodtoken"
type fakeVerifier struct{}

func (f *fakeVerifier) Verify(ctx context.Context, raw string) (Token, error) {
	if raw == "goodtoken" {
		return &fakeToken{data: map[string]interface{}{"sub": "author-1", "email": "test@example.com"}}, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// downVerifier stands in for a provider that cannot be reached.
type downVerifier struct{}

func (downVerifier) Verify(ctx context.Context, raw string) (Token, error) {
	return nil, fmt.Errorf("%w: discovery failed", ErrVerifierUnavailable)
}

func serveWithAuth(t *testing.T, header string) *httptest.ResponseRecorder {
	return serveWith(t, &fakeVerifier{}, header)
}

func serveWith(t *testing.T, ver Verifier, header string) *httptest.ResponseRecorder {
	t.Helper()
	g := gin.New()
	g.GET("/", AuthMiddleware(ver), func(c *gin.Context) {
		claims, _ := c.Get(ClaimsKey)
		c.JSON(http.StatusOK, gin.H{"sub": Subject(c), "claims": claims})
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	return rw
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	for _, h := range []string{"", "BadHeader", "Bearer ", "Bearer badtoken"} {
		rw := serveWithAuth(t, h)
		require.Equal(t, http.StatusUnauthorized, rw.Code, "header %q", h)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	rw := serveWithAuth(t, "Bearer goodtoken")
	require.Equal(t, http.StatusOK, rw.Code)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &got))
	require.Equal(t, "author-1", got["sub"])
	require.Contains(t, got, "claims")
}

func TestSubjectEmptyWhenAnonymous(t *testing.T) {
	g := gin.New()
	var sub string
	g.GET("/", func(c *gin.Context) { sub = Subject(c); c.Status(http.StatusOK) })
	g.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Empty(t, sub)
}

func TestAuthMiddleware_ProviderDownFailsClosed(t *testing.T) {
	rw := serveWith(t, downVerifier{}, "Bearer goodtoken")
	require.Equal(t, http.StatusServiceUnavailable, rw.Code)

	// header checks still come first
	require.Equal(t, http.StatusUnauthorized, serveWith(t, downVerifier{}, "").Code)
}
