package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"modtraining_backend/internal/model"
	"modtraining_backend/internal/repository"
	"modtraining_backend/internal/util"
	"modtraining_backend/pkg/logger"
	"modtraining_backend/pkg/monitoring"
	"modtraining_backend/pkg/tracing"
)

// AdminAllowList 管理员白名单（Discord 用户 ID），启动时加载，之后只读。
type AdminAllowList struct {
	ids map[string]struct{}
}

func NewAdminAllowList(ids []string) AdminAllowList {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			set[id] = struct{}{}
		}
	}
	return AdminAllowList{ids: set}
}

func (l AdminAllowList) Contains(id string) bool {
	if id == "" {
		return false
	}
	_, ok := l.ids[id]
	return ok
}

func (l AdminAllowList) Len() int { return len(l.ids) }

type Action string

const (
	ActionAccept Action = "accept"
	ActionDeny   Action = "deny"
)

// ParseAction 兼容前端的 accepted/denied 和 Discord 按钮的 approve/deny
func ParseAction(raw string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "accept", "accepted", "approve":
		return ActionAccept, nil
	case "deny", "denied":
		return ActionDeny, nil
	}
	return "", util.ErrInvalidAction
}

func (a Action) Target() model.SubmissionStatus {
	if a == ActionAccept {
		return model.StatusAccepted
	}
	return model.StatusDenied
}

type ReviewStats struct {
	TotalSubmissions int64   `json:"total_submissions"`
	Pending          int64   `json:"pending"`
	Accepted         int64   `json:"accepted"`
	Denied           int64   `json:"denied"`
	PassRate         float64 `json:"pass_rate"`
}

type ReviewService struct {
	store    SubmissionStore
	admins   AdminAllowList
	notifier Notifier
	now      func() time.Time
}

func NewReviewService(store SubmissionStore, admins AdminAllowList, notifier Notifier) *ReviewService {
	return &ReviewService{
		store:    store,
		admins:   admins,
		notifier: notifier,
		now:      time.Now,
	}
}

func (s *ReviewService) IsAdmin(callerID string) bool {
	return s.admins.Contains(callerID)
}

// authorize 每个特权操作都重新校验，不依赖路由层的拦截
func (s *ReviewService) authorize(callerID string) error {
	if callerID == "" {
		return util.ErrUnauthenticated
	}
	if !s.admins.Contains(callerID) {
		logger.Log.Warn("review denied for caller outside allow-list", zap.String("callerID", callerID))
		return util.ErrUnauthorized
	}
	return nil
}

func (s *ReviewService) ListSubmissions(ctx context.Context, callerID, status string) ([]model.Submission, error) {
	if err := s.authorize(callerID); err != nil {
		return nil, err
	}

	f := repository.SubmissionFilter{Status: model.SubmissionStatus(strings.ToLower(strings.TrimSpace(status)))}
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", util.ErrValidation, status)
	}

	subs, err := s.store.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%w: list submissions: %v", util.ErrUpstreamUnavailable, err)
	}
	return subs, nil
}

func (s *ReviewService) GetSubmission(ctx context.Context, callerID, id string) (*model.Submission, error) {
	if err := s.authorize(callerID); err != nil {
		return nil, err
	}
	sub, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	return sub, nil
}

// ApplyAction pending -> accepted/denied，只允许一次。
// 通过审核且考核及格时触发角色授予通知。
func (s *ReviewService) ApplyAction(ctx context.Context, callerID, id, rawAction string) (_ *model.Submission, err error) {
	if err := s.authorize(callerID); err != nil {
		return nil, err
	}
	action, err := ParseAction(rawAction)
	if err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: submission_id is required", util.ErrValidation)
	}

	ctx, span := tracing.StartSpan(ctx, "ReviewService.ApplyAction")
	defer func() { tracing.EndSpan(span, err) }()

	updated, err := s.store.TransitionStatus(ctx, id, model.StatusPending, action.Target(), callerID, s.now().UTC())
	if err != nil {
		err = storeErr(err)
		monitoring.ReviewActionsTotal.WithLabelValues(string(action), resultLabel(err)).Inc()
		logger.Log.Info("review action rejected",
			zap.String("submissionID", id),
			zap.String("action", string(action)),
			zap.String("reviewer", callerID),
			zap.Error(err),
		)
		return nil, err
	}

	monitoring.ReviewActionsTotal.WithLabelValues(string(action), "ok").Inc()
	logger.Log.Info("submission reviewed",
		zap.String("submissionID", updated.ID),
		zap.String("status", string(updated.Status)),
		zap.String("reviewer", callerID),
	)

	if s.notifier != nil {
		s.notifier.SubmissionReviewed(updated, updated.Status == model.StatusAccepted && updated.Passed)
	}
	return updated, nil
}

// Stats pass_rate = accepted / (accepted + denied)，保留两位小数
func (s *ReviewService) Stats(ctx context.Context, callerID string) (*ReviewStats, error) {
	if err := s.authorize(callerID); err != nil {
		return nil, err
	}
	counts, err := s.store.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: count submissions: %v", util.ErrUpstreamUnavailable, err)
	}

	st := &ReviewStats{
		Pending:  counts[model.StatusPending],
		Accepted: counts[model.StatusAccepted],
		Denied:   counts[model.StatusDenied],
	}
	for _, n := range counts {
		st.TotalSubmissions += n
	}
	if decided := st.Accepted + st.Denied; decided > 0 {
		st.PassRate = math.Round(float64(st.Accepted)/float64(decided)*100*100) / 100
	}
	return st, nil
}

// storeErr 领域错误原样返回，其余视为存储不可用
func storeErr(err error) error {
	if errors.Is(err, util.ErrNotFound) || errors.Is(err, util.ErrInvalidTransition) {
		return err
	}
	return fmt.Errorf("%w: %v", util.ErrUpstreamUnavailable, err)
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, util.ErrNotFound):
		return "not_found"
	case errors.Is(err, util.ErrInvalidTransition):
		return "conflict"
	default:
		return "error"
	}
}
