package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"modtraining_backend/internal/model"
	"modtraining_backend/internal/quiz"
	"modtraining_backend/internal/repository"
	"modtraining_backend/internal/util"
	"modtraining_backend/pkg/logger"
	"modtraining_backend/pkg/monitoring"
	"modtraining_backend/pkg/tracing"
)

// SubmissionStore 提交记录存储，状态变更必须是 compare-and-set
type SubmissionStore interface {
	Create(ctx context.Context, s *model.Submission) error
	List(ctx context.Context, f repository.SubmissionFilter) ([]model.Submission, error)
	FindByID(ctx context.Context, id string) (*model.Submission, error)
	TransitionStatus(ctx context.Context, id string, from, to model.SubmissionStatus, reviewer string, at time.Time) (*model.Submission, error)
	CountByStatus(ctx context.Context) (map[model.SubmissionStatus]int64, error)
}

// Submitter 提交人身份，来自 JWT
type Submitter struct {
	UserID   string
	Email    string
	Username string
}

func SubmitterFromClaims(c *util.Claims) Submitter {
	name := c.DisplayName
	if name == "" {
		name = c.Username
	}
	return Submitter{UserID: c.UserID, Email: c.Email, Username: name}
}

type SubmissionService struct {
	store    SubmissionStore
	scorer   *quiz.Scorer
	notifier Notifier
}

func NewSubmissionService(store SubmissionStore, scorer *quiz.Scorer, notifier Notifier) *SubmissionService {
	return &SubmissionService{store: store, scorer: scorer, notifier: notifier}
}

func (s *SubmissionService) Scorer() *quiz.Scorer { return s.scorer }

// Submit 服务端重新评分后落库，客户端传来的分数一律不采信。
// 存储失败返回 ErrUpstreamUnavailable，调用方据此保留会话以便重试。
func (s *SubmissionService) Submit(ctx context.Context, who Submitter, texts []string) (_ *model.Submission, err error) {
	if who.UserID == "" {
		return nil, util.ErrUnauthenticated
	}
	if n := s.scorer.Bank().Len(); len(texts) != n {
		return nil, fmt.Errorf("%w: expected %d answers, got %d", util.ErrValidation, n, len(texts))
	}

	ctx, span := tracing.StartSpan(ctx, "SubmissionService.Submit")
	defer func() { tracing.EndSpan(span, err) }()

	grading := s.scorer.Grade(texts)
	sub := &model.Submission{
		UserID:    who.UserID,
		UserEmail: who.Email,
		Username:  who.Username,
		Answers:   datatypes.JSONSlice[model.Answer](grading.Answers),
		Score:     grading.Score,
		Passed:    grading.Passed,
		Status:    model.StatusPending,
	}

	if err := s.store.Create(ctx, sub); err != nil {
		logger.Log.Error("failed to store submission", zap.String("userID", who.UserID), zap.Error(err))
		return nil, fmt.Errorf("%w: store submission: %v", util.ErrUpstreamUnavailable, err)
	}

	monitoring.SubmissionsTotal.WithLabelValues(strconv.FormatBool(sub.Passed)).Inc()
	logger.Log.Info("submission graded",
		zap.String("submissionID", sub.ID),
		zap.String("userID", sub.UserID),
		zap.Int("correct", grading.Correct),
		zap.Float64("score", sub.Score),
		zap.Bool("passed", sub.Passed),
	)

	if s.notifier != nil {
		s.notifier.SubmissionCreated(sub)
	}
	return sub, nil
}

// ListMine 当前用户自己的提交记录，按时间倒序
func (s *SubmissionService) ListMine(ctx context.Context, userID string) ([]model.Submission, error) {
	if userID == "" {
		return nil, util.ErrUnauthenticated
	}
	subs, err := s.store.List(ctx, repository.SubmissionFilter{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("%w: list submissions: %v", util.ErrUpstreamUnavailable, err)
	}
	return subs, nil
}
