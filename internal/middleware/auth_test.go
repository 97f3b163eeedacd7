package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"modtraining_backend/internal/config"
	"modtraining_backend/internal/model"
	"modtraining_backend/internal/util"
)

const secret = "middleware-secret-middleware-secret"

type allowList map[string]bool

func (a allowList) IsAdmin(id string) bool { return a[id] }

func testConfig() *config.Config {
	return &config.Config{JWT: config.JWTConfig{Secret: secret, ExpireTime: time.Hour}}
}

func token(t *testing.T, discordID string) string {
	t.Helper()
	tok, err := util.GenerateJWT(&model.User{DiscordID: discordID, Username: "u" + discordID}, secret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append(mw, func(c *gin.Context) {
		id := ""
		if claims := util.GetUserFromContext(c); claims != nil {
			id = claims.UserID
		}
		c.String(http.StatusOK, id)
	})
	r.GET("/x", handlers...)
	return r
}

func TestAuthMiddlewareTokenSources(t *testing.T) {
	r := newRouter(AuthMiddleware(testConfig()))
	tok := token(t, "42")

	tests := []struct {
		name  string
		setup func(req *http.Request)
		code  int
	}{
		{"header", func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+tok) }, http.StatusOK},
		{"query", func(req *http.Request) { req.URL.RawQuery = "token=" + tok }, http.StatusOK},
		{"cookie", func(req *http.Request) { req.AddCookie(&http.Cookie{Name: util.SessionCookie, Value: tok}) }, http.StatusOK},
		{"missing", func(req *http.Request) {}, http.StatusUnauthorized},
		{"garbage", func(req *http.Request) { req.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			tt.setup(req)
			r.ServeHTTP(w, req)
			if w.Code != tt.code {
				t.Fatalf("status = %d, want %d", w.Code, tt.code)
			}
			if tt.code == http.StatusOK && w.Body.String() != "42" {
				t.Fatalf("claims user = %q", w.Body.String())
			}
		})
	}
}

func TestAuthMiddlewareRejectsOtherSecret(t *testing.T) {
	r := newRouter(AuthMiddleware(testConfig()))
	tok, _ := util.GenerateJWT(&model.User{DiscordID: "42"}, "another-secret-another-secret-xx", time.Hour)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestTryAuthMiddlewareAllowsAnonymous(t *testing.T) {
	r := newRouter(TryAuthMiddleware(testConfig()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusOK || w.Body.String() != "" {
		t.Fatalf("anonymous: %d %q", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "7"))
	r.ServeHTTP(w, req)
	if w.Body.String() != "7" {
		t.Fatalf("authenticated: %q", w.Body.String())
	}
}

func TestAdminMiddleware(t *testing.T) {
	r := newRouter(AuthMiddleware(testConfig()), AdminMiddleware(allowList{"1": true}))

	for id, want := range map[string]int{"1": http.StatusOK, "2": http.StatusForbidden} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Authorization", "Bearer "+token(t, id))
		r.ServeHTTP(w, req)
		if w.Code != want {
			t.Errorf("user %s: status = %d, want %d", id, w.Code, want)
		}
	}
}
