package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"modtraining_backend/internal/config"
	"modtraining_backend/internal/model"
	"modtraining_backend/internal/util"
	"modtraining_backend/pkg/identity"
	"modtraining_backend/pkg/logger"
)

type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	FetchUser(ctx context.Context, tok *oauth2.Token) (*identity.Identity, error)
}

type UserStore interface {
	UpsertByDiscordID(ctx context.Context, user *model.User) error
}

type AuthService struct {
	provider  IdentityProvider
	users     UserStore
	admins    AdminAllowList
	jwtSecret string
	jwtExpire time.Duration
	wait      identity.Options
}

func NewAuthService(provider IdentityProvider, users UserStore, admins AdminAllowList, cfg *config.Config) *AuthService {
	return &AuthService{
		provider:  provider,
		users:     users,
		admins:    admins,
		jwtSecret: cfg.JWT.Secret,
		jwtExpire: cfg.JWT.ExpireTime,
		wait: identity.Options{
			Attempts: cfg.SessionWait.Attempts,
			Interval: cfg.SessionWaitInterval(),
			Timeout:  cfg.SessionWaitTimeout(),
		},
	}
}

// LoginURL 返回 Discord 授权地址和需要写入 cookie 的 state
func (s *AuthService) LoginURL() (string, string) {
	state := uuid.NewString()
	return s.provider.AuthCodeURL(state), state
}

type LoginResult struct {
	Token string
	User  *model.User
}

// CompleteLogin 用授权码换取 token，等待身份就绪后落库并签发 JWT。
func (s *AuthService) CompleteLogin(ctx context.Context, code string) (*LoginResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: missing authorization code", util.ErrValidation)
	}

	tok, err := s.provider.Exchange(ctx, code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return nil, fmt.Errorf("%w: discord rejected authorization code", util.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("%w: exchange code: %v", util.ErrUpstreamUnavailable, err)
	}

	res := identity.Establish(ctx, func(ctx context.Context) (*identity.Identity, error) {
		return s.provider.FetchUser(ctx, tok)
	}, s.wait)

	switch res.State {
	case identity.Pending:
		logger.Log.Warn("discord identity not ready", zap.Int("attempts", res.Attempts), zap.Error(res.Reason))
		return nil, fmt.Errorf("%w: identity not ready, try again", util.ErrUpstreamUnavailable)
	case identity.Failed:
		if errors.Is(res.Reason, identity.ErrRejected) {
			return nil, fmt.Errorf("%w: %v", util.ErrUnauthenticated, res.Reason)
		}
		return nil, fmt.Errorf("%w: fetch identity: %v", util.ErrUpstreamUnavailable, res.Reason)
	}

	id := res.Identity
	user := &model.User{
		DiscordID:   id.UserID,
		Email:       id.Email,
		Username:    id.Username,
		DisplayName: id.DisplayName,
		Avatar:      id.Avatar,
		LastLogin:   time.Now(),
	}
	if err := s.users.UpsertByDiscordID(ctx, user); err != nil {
		logger.Log.Error("failed to upsert user", zap.String("discordID", id.UserID), zap.Error(err))
		return nil, fmt.Errorf("%w: save user: %v", util.ErrUpstreamUnavailable, err)
	}

	token, err := util.GenerateJWT(user, s.jwtSecret, s.jwtExpire)
	if err != nil {
		return nil, err
	}

	logger.Log.Info("user logged in", zap.String("discordID", user.DiscordID), zap.Bool("admin", s.admins.Contains(user.DiscordID)))
	return &LoginResult{Token: token, User: user}, nil
}

// SessionInfo 对应前端 getCurrentSession() 的返回
type SessionInfo struct {
	UserID          string `json:"userId,omitempty"`
	Email           string `json:"email,omitempty"`
	DisplayName     string `json:"displayName,omitempty"`
	IsAuthenticated bool   `json:"isAuthenticated"`
	IsAdmin         bool   `json:"isAdmin"`
}

func (s *AuthService) CurrentSession(claims *util.Claims) SessionInfo {
	if claims == nil || claims.UserID == "" {
		return SessionInfo{}
	}
	name := claims.DisplayName
	if name == "" {
		name = claims.Username
	}
	return SessionInfo{
		UserID:          claims.UserID,
		Email:           claims.Email,
		DisplayName:     name,
		IsAuthenticated: true,
		IsAdmin:         s.admins.Contains(claims.UserID),
	}
}
