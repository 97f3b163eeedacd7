package util

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"modtraining_backend/internal/model"

	"github.com/gin-gonic/gin"
)

const testSecret = "test-secret-test-secret-test-secret"

func TestJWTRoundTrip(t *testing.T) {
	user := &model.User{DiscordID: "394600108846350346", Email: "mod@example.com", Username: "mod"}
	token, err := GenerateJWT(user, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	claims, err := ParseJWT(token, testSecret)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.UserID != user.DiscordID || claims.Subject != user.DiscordID {
		t.Fatalf("claims identity = %q/%q", claims.UserID, claims.Subject)
	}
	if claims.DisplayName != "mod" {
		t.Fatalf("display name = %q, want username fallback", claims.DisplayName)
	}
}

func TestParseJWTRejects(t *testing.T) {
	user := &model.User{DiscordID: "1"}
	good, _ := GenerateJWT(user, testSecret, time.Hour)
	expired, _ := GenerateJWT(user, testSecret, -time.Minute)
	anonymous, _ := GenerateJWT(&model.User{}, testSecret, time.Hour)

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{"wrong secret", good, "another-secret"},
		{"expired", expired, testSecret},
		{"missing user id", anonymous, testSecret},
		{"garbage", "not.a.token", testSecret},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseJWT(tt.token, tt.secret); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrValidation, http.StatusBadRequest},
		{ErrInvalidAction, http.StatusBadRequest},
		{ErrUnauthenticated, http.StatusUnauthorized},
		{ErrUnauthorized, http.StatusForbidden},
		{ErrNotFound, http.StatusNotFound},
		{ErrSessionNotFound, http.StatusNotFound},
		{ErrInvalidTransition, http.StatusConflict},
		{fmt.Errorf("%w: redis down", ErrUpstreamUnavailable), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestRespondErrorHidesInternalDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondError(c, errors.New("dsn password=secret"))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if body := w.Body.String(); body == "" || strings.Contains(body, "secret") {
		t.Fatalf("internal error leaked: %s", body)
	}
}

