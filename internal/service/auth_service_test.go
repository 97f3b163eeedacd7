package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"modtraining_backend/internal/config"
	"modtraining_backend/internal/util"
	"modtraining_backend/pkg/identity"
)

const testSecret = "test-secret-test-secret-test-secret"

func newAuthService(p *fakeProvider, users *fakeUserStore) *AuthService {
	cfg := &config.Config{
		JWT:         config.JWTConfig{Secret: testSecret, ExpireTime: time.Hour},
		SessionWait: config.SessionWaitConfig{Attempts: 3, IntervalMS: 1, TimeoutMS: 1000},
	}
	return NewAuthService(p, users, NewAdminAllowList([]string{adminID}), cfg)
}

func TestLoginURLCarriesState(t *testing.T) {
	svc := newAuthService(&fakeProvider{}, &fakeUserStore{})
	url, state := svc.LoginURL()
	if state == "" || !strings.HasSuffix(url, "state="+state) {
		t.Fatalf("url %q does not carry state %q", url, state)
	}
	if _, other := svc.LoginURL(); other == state {
		t.Fatal("state must be random per login")
	}
}

func TestCompleteLoginAfterRetry(t *testing.T) {
	p := &fakeProvider{fetch: func(calls int) (*identity.Identity, error) {
		if calls == 1 {
			return nil, identity.ErrNotReady
		}
		return &identity.Identity{UserID: adminID, Email: "a@x", Username: "admin", DisplayName: "Admin"}, nil
	}}
	users := &fakeUserStore{}
	svc := newAuthService(p, users)

	res, err := svc.CompleteLogin(context.Background(), "code")
	if err != nil {
		t.Fatalf("CompleteLogin: %v", err)
	}
	if _, ok := users.users[adminID]; !ok {
		t.Fatal("user not upserted")
	}

	claims, err := util.ParseJWT(res.Token, testSecret)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != adminID || claims.Subject != adminID || claims.DisplayName != "Admin" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	info := svc.CurrentSession(claims)
	if !info.IsAuthenticated || !info.IsAdmin || info.DisplayName != "Admin" {
		t.Fatalf("unexpected session %+v", info)
	}
}

func TestCompleteLoginFailures(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		provider *fakeProvider
		users    *fakeUserStore
		wantErr  error
	}{
		{
			name:     "missing code",
			code:     "",
			provider: &fakeProvider{},
			users:    &fakeUserStore{},
			wantErr:  util.ErrValidation,
		},
		{
			name:     "code rejected",
			code:     "bad",
			provider: &fakeProvider{exchangeErr: &oauth2.RetrieveError{ErrorCode: "invalid_grant"}},
			users:    &fakeUserStore{},
			wantErr:  util.ErrUnauthenticated,
		},
		{
			name:     "token endpoint down",
			code:     "c",
			provider: &fakeProvider{exchangeErr: errors.New("dial tcp: timeout")},
			users:    &fakeUserStore{},
			wantErr:  util.ErrUpstreamUnavailable,
		},
		{
			name: "identity never ready",
			code: "c",
			provider: &fakeProvider{fetch: func(int) (*identity.Identity, error) {
				return nil, identity.ErrNotReady
			}},
			users:   &fakeUserStore{},
			wantErr: util.ErrUpstreamUnavailable,
		},
		{
			name: "identity rejected",
			code: "c",
			provider: &fakeProvider{fetch: func(int) (*identity.Identity, error) {
				return nil, fmt.Errorf("%w: 401", identity.ErrRejected)
			}},
			users:   &fakeUserStore{},
			wantErr: util.ErrUnauthenticated,
		},
		{
			name: "user store down",
			code: "c",
			provider: &fakeProvider{fetch: func(int) (*identity.Identity, error) {
				return &identity.Identity{UserID: "1"}, nil
			}},
			users:   &fakeUserStore{fail: true},
			wantErr: util.ErrUpstreamUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newAuthService(tt.provider, tt.users)
			if _, err := svc.CompleteLogin(context.Background(), tt.code); !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCurrentSessionAnonymous(t *testing.T) {
	svc := newAuthService(&fakeProvider{}, &fakeUserStore{})
	info := svc.CurrentSession(nil)
	if info.IsAuthenticated || info.IsAdmin || info.UserID != "" {
		t.Fatalf("unexpected anonymous session %+v", info)
	}

	info = svc.CurrentSession(&util.Claims{UserID: "42", Username: "someone"})
	if !info.IsAuthenticated || info.IsAdmin || info.DisplayName != "someone" {
		t.Fatalf("unexpected session %+v", info)
	}
}
