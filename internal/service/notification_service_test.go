package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"modtraining_backend/internal/model"
	"modtraining_backend/pkg/notify"
)

// syncQueue 直接执行任务，便于断言
type syncQueue struct {
	kinds []string
	errs  []error
}

func (q *syncQueue) Enqueue(kind string, job notify.Job) bool {
	q.kinds = append(q.kinds, kind)
	q.errs = append(q.errs, job(context.Background()))
	return true
}

type fakeDiscord struct {
	mu       sync.Mutex
	requests []notify.SubmissionSummary
	granted  []string
	grantErr error
}

func (d *fakeDiscord) SendReviewRequest(_ context.Context, s notify.SubmissionSummary) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.requests = append(d.requests, s)
	return nil
}

func (d *fakeDiscord) GrantRole(_ context.Context, userID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.granted = append(d.granted, userID)
	return d.grantErr
}

type fakeArchiver struct {
	archived []string
}

func (a *fakeArchiver) Archive(_ context.Context, sub *model.Submission) (string, error) {
	a.archived = append(a.archived, sub.ID)
	return "/transcripts/" + sub.ID + ".json", nil
}

func TestNotificationSubmissionCreated(t *testing.T) {
	q, d := &syncQueue{}, &fakeDiscord{}
	n := NewNotificationService(q, d, nil)

	n.SubmissionCreated(&model.Submission{
		ID: "s1", UserID: "1", Username: "cand", Score: 100, Passed: true,
		Answers: []model.Answer{{IsCorrect: true}, {IsCorrect: true}},
	})

	if len(d.requests) != 1 {
		t.Fatalf("requests = %d", len(d.requests))
	}
	got := d.requests[0]
	if got.ID != "s1" || got.Correct != 2 || got.Total != 2 || !got.Passed {
		t.Fatalf("unexpected summary %+v", got)
	}
	if q.kinds[0] != notify.KindReviewRequest {
		t.Fatalf("kind = %s", q.kinds[0])
	}
}

func TestNotificationSubmissionReviewed(t *testing.T) {
	q, d, a := &syncQueue{}, &fakeDiscord{}, &fakeArchiver{}
	n := NewNotificationService(q, d, a)

	n.SubmissionReviewed(&model.Submission{ID: "s1", UserID: "77", Status: model.StatusAccepted, Passed: true}, true)
	n.SubmissionReviewed(&model.Submission{ID: "s2", UserID: "88", Status: model.StatusDenied}, false)

	if len(d.granted) != 1 || d.granted[0] != "77" {
		t.Fatalf("granted = %v", d.granted)
	}
	if len(a.archived) != 2 {
		t.Fatalf("archived = %v", a.archived)
	}
}

func TestNotificationRoleGrantFailureIsReported(t *testing.T) {
	q, d := &syncQueue{}, &fakeDiscord{grantErr: errors.New("bot offline")}
	n := NewNotificationService(q, d, nil)

	n.SubmissionReviewed(&model.Submission{ID: "s1", UserID: "77"}, true)
	if len(q.errs) != 1 || q.errs[0] == nil {
		t.Fatalf("expected the job to report the bot failure, got %v", q.errs)
	}
}
