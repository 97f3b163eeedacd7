package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"modtraining_backend/internal/model"
	"modtraining_backend/pkg/logger"
	"modtraining_backend/pkg/notify"
)

const kindArchive = "archive"

// Notifier 通知是 fire-and-forget：不阻塞请求，失败只记录日志。
type Notifier interface {
	SubmissionCreated(sub *model.Submission)
	SubmissionReviewed(sub *model.Submission, grantRole bool)
}

type Enqueuer interface {
	Enqueue(kind string, job notify.Job) bool
}

type DiscordClient interface {
	SendReviewRequest(ctx context.Context, s notify.SubmissionSummary) error
	GrantRole(ctx context.Context, userID string) error
}

type Archiver interface {
	Archive(ctx context.Context, sub *model.Submission) (string, error)
}

type NotificationService struct {
	queue    Enqueuer
	discord  DiscordClient
	archiver Archiver
	timeout  time.Duration
}

// archiver 可以为 nil，表示不归档
func NewNotificationService(queue Enqueuer, discord DiscordClient, archiver Archiver) *NotificationService {
	return &NotificationService{
		queue:    queue,
		discord:  discord,
		archiver: archiver,
		timeout:  15 * time.Second,
	}
}

func summarize(sub *model.Submission) notify.SubmissionSummary {
	return notify.SubmissionSummary{
		ID:          sub.ID,
		UserID:      sub.UserID,
		Username:    sub.Username,
		Email:       sub.UserEmail,
		Score:       sub.Score,
		Correct:     sub.CorrectCount(),
		Total:       len(sub.Answers),
		Passed:      sub.Passed,
		SubmittedAt: sub.CreatedAt,
	}
}

func (n *NotificationService) SubmissionCreated(sub *model.Submission) {
	summary := summarize(sub)
	n.queue.Enqueue(notify.KindReviewRequest, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, n.timeout)
		defer cancel()
		return n.discord.SendReviewRequest(ctx, summary)
	})
}

func (n *NotificationService) SubmissionReviewed(sub *model.Submission, grantRole bool) {
	snapshot := *sub

	if grantRole {
		userID := sub.UserID
		n.queue.Enqueue(notify.KindRoleGrant, func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, n.timeout)
			defer cancel()
			if err := n.discord.GrantRole(ctx, userID); err != nil {
				return err
			}
			logger.Log.Info("role granted", zap.String("userID", userID), zap.String("submissionID", snapshot.ID))
			return nil
		})
	}

	if n.archiver != nil {
		n.queue.Enqueue(kindArchive, func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, n.timeout)
			defer cancel()
			_, err := n.archiver.Archive(ctx, &snapshot)
			return err
		})
	}
}
