package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func setupAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(AuthzMiddleware(AuthzConfig{Secret: testSecret}))
	r.GET("/protected", func(c *gin.Context) {
		userID, _ := c.Get("user_id")
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})
	return r
}

func doAuthed(r *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthzMiddleware_ValidToken(t *testing.T) {
	r := setupAuthRouter()
	userID := uuid.Must(uuid.NewV4())

	token := signToken(t, jwt.MapClaims{
		"user_id": userID.String(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	w := doAuthed(r, "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
}

func TestAuthzMiddleware_MissingHeader(t *testing.T) {
	r := setupAuthRouter()

	w := doAuthed(r, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthzMiddleware_MalformedHeader(t *testing.T) {
	r := setupAuthRouter()

	for _, header := range []string{"Bearer", "Token abc", "abc"} {
		w := doAuthed(r, header)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want 401", header, w.Code)
		}
	}
}

func TestAuthzMiddleware_ExpiredToken(t *testing.T) {
	r := setupAuthRouter()

	token := signToken(t, jwt.MapClaims{
		"user_id": uuid.Must(uuid.NewV4()).String(),
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})

	w := doAuthed(r, "Bearer "+token)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthzMiddleware_RejectsRefreshToken(t *testing.T) {
	r := setupAuthRouter()

	token := signToken(t, jwt.MapClaims{
		"user_id": uuid.Must(uuid.NewV4()).String(),
		"type":    "refresh",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	w := doAuthed(r, "Bearer "+token)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 for refresh token", w.Code)
	}
}

func TestAuthzMiddleware_InvalidSubject(t *testing.T) {
	r := setupAuthRouter()

	token := signToken(t, jwt.MapClaims{
		"user_id": "not-a-uuid",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	w := doAuthed(r, "Bearer "+token)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 for bad subject", w.Code)
	}
}

func TestAuthzMiddleware_WrongSecret(t *testing.T) {
	r := setupAuthRouter()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": uuid.Must(uuid.NewV4()).String(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	w := doAuthed(r, "Bearer "+signed)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 for wrong signature", w.Code)
	}
}
