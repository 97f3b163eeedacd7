package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"modtraining_backend/internal/model"
	"modtraining_backend/internal/quiz"
	"modtraining_backend/internal/util"
	"modtraining_backend/pkg/logger"
)

type SessionStore interface {
	Load(ctx context.Context, userID string) (*quiz.Session, error)
	Save(ctx context.Context, userID string, s *quiz.Session) error
	Delete(ctx context.Context, userID string) error
}

// SessionView 当前题目及已填写的答案，前端据此渲染答题页
type SessionView struct {
	Index    int                 `json:"index"`
	Total    int                 `json:"total"`
	Question quiz.PublicQuestion `json:"question"`
	Answer   string              `json:"answer"`
	Answered int                 `json:"answered"`
	Progress float64             `json:"progress"`
	IsFirst  bool                `json:"isFirst"`
	IsLast   bool                `json:"isLast"`
}

type SessionService struct {
	store       SessionStore
	submissions *SubmissionService
	bank        *quiz.Bank
}

func NewSessionService(store SessionStore, submissions *SubmissionService) *SessionService {
	return &SessionService{
		store:       store,
		submissions: submissions,
		bank:        submissions.Scorer().Bank(),
	}
}

func (s *SessionService) view(sess *quiz.Session) *SessionView {
	answered := 0
	for _, t := range sess.Answers {
		if t != "" {
			answered++
		}
	}
	return &SessionView{
		Index:    sess.CurrentIndex,
		Total:    sess.Size,
		Question: s.bank.PublicAt(sess.CurrentIndex),
		Answer:   sess.Text(sess.CurrentIndex),
		Answered: answered,
		Progress: sess.Progress(),
		IsFirst:  sess.AtFirst(),
		IsLast:   sess.AtLast(),
	}
}

func (s *SessionService) load(ctx context.Context, userID string) (*quiz.Session, error) {
	if userID == "" {
		return nil, util.ErrUnauthenticated
	}
	sess, err := s.store.Load(ctx, userID)
	if errors.Is(err, util.ErrSessionNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load session: %v", util.ErrUpstreamUnavailable, err)
	}
	// 题库数量变化后旧会话作废
	if sess.Size != s.bank.Len() {
		return nil, util.ErrSessionNotFound
	}
	return sess, nil
}

func (s *SessionService) save(ctx context.Context, userID string, sess *quiz.Session) error {
	if err := s.store.Save(ctx, userID, sess); err != nil {
		logger.Log.Error("failed to save session", zap.String("userID", userID), zap.Error(err))
		return fmt.Errorf("%w: save session: %v", util.ErrUpstreamUnavailable, err)
	}
	return nil
}

// Start 开始新的答题会话，覆盖之前未提交的会话
func (s *SessionService) Start(ctx context.Context, userID string) (*SessionView, error) {
	if userID == "" {
		return nil, util.ErrUnauthenticated
	}
	sess := quiz.NewSession(s.bank.Len())
	if err := s.save(ctx, userID, sess); err != nil {
		return nil, err
	}
	return s.view(sess), nil
}

func (s *SessionService) Current(ctx context.Context, userID string) (*SessionView, error) {
	sess, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(sess), nil
}

func (s *SessionService) Next(ctx context.Context, userID, text string) (*SessionView, error) {
	sess, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	sess.Advance(text)
	if err := s.save(ctx, userID, sess); err != nil {
		return nil, err
	}
	return s.view(sess), nil
}

func (s *SessionService) Previous(ctx context.Context, userID, text string) (*SessionView, error) {
	sess, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	sess.Retreat(text)
	if err := s.save(ctx, userID, sess); err != nil {
		return nil, err
	}
	return s.view(sess), nil
}

// Submit 记录当前题答案并评分提交。写库失败时会话保留（含本次答案），可直接重试；
// 成功后删除会话。
func (s *SessionService) Submit(ctx context.Context, who Submitter, text string) (*model.Submission, error) {
	sess, err := s.load(ctx, who.UserID)
	if err != nil {
		return nil, err
	}

	sess.Record(text)
	if err := s.save(ctx, who.UserID, sess); err != nil {
		return nil, err
	}

	sub, err := s.submissions.Submit(ctx, who, sess.Texts())
	if err != nil {
		return nil, err
	}

	if err := s.store.Delete(ctx, who.UserID); err != nil {
		logger.Log.Warn("failed to clear submitted session", zap.String("userID", who.UserID), zap.Error(err))
	}
	return sub, nil
}
