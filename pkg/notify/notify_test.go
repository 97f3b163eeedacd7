package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestDispatcherRunsJobs(t *testing.T) {
	d := NewDispatcher(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	var ran atomic.Int32
	done := make(chan struct{})
	d.Enqueue("test", func(ctx context.Context) error {
		ran.Add(1)
		return errors.New("failure is logged, not fatal")
	})
	d.Enqueue("test", func(ctx context.Context) error {
		ran.Add(1)
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("jobs were not executed")
	}
	if ran.Load() != 2 {
		t.Fatalf("ran %d jobs, want 2", ran.Load())
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	d := NewDispatcher(1)
	noop := func(ctx context.Context) error { return nil }

	if !d.Enqueue("test", noop) {
		t.Fatal("first enqueue should succeed")
	}
	if d.Enqueue("test", noop) {
		t.Fatal("second enqueue should be dropped while nothing consumes the queue")
	}
}

func TestDispatcherStopDrainsQueue(t *testing.T) {
	d := NewDispatcher(4)
	var ran atomic.Int32
	for i := 0; i < 3; i++ {
		d.Enqueue("test", func(ctx context.Context) error { ran.Add(1); return nil })
	}

	d.Start(context.Background())
	d.Stop()

	if ran.Load() != 3 {
		t.Fatalf("ran %d jobs before exit, want 3", ran.Load())
	}
	if d.Enqueue("test", func(ctx context.Context) error { return nil }) {
		t.Fatal("enqueue after stop should be rejected")
	}
}

func TestSendReviewRequestPayload(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "Verified Staff", "https://training.example")
	err := c.SendReviewRequest(context.Background(), SubmissionSummary{
		ID: "sub-1", UserID: "1001", Username: "mod", Score: 85.71, Correct: 6, Total: 7, Passed: true,
		SubmittedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("SendReviewRequest: %v", err)
	}

	if len(got.Embeds) != 1 || got.Embeds[0].Color != colorPassed {
		t.Fatalf("unexpected embeds %+v", got.Embeds)
	}
	if got.Embeds[0].Fields[1].Value != "86% (6/7)" {
		t.Errorf("score field = %q", got.Embeds[0].Fields[1].Value)
	}
	btns := got.Components[0].Components
	if len(btns) != 3 || btns[0].CustomID != "approve_sub-1" || btns[1].CustomID != "deny_sub-1" {
		t.Fatalf("unexpected buttons %+v", btns)
	}
	if btns[2].URL != "https://training.example/admin" {
		t.Errorf("admin link = %q", btns[2].URL)
	}
}

func TestFailedSubmissionUsesFailColor(t *testing.T) {
	c := NewClient("", "", "", "")
	p := c.reviewPayload(SubmissionSummary{ID: "x", Passed: false})
	if p.Embeds[0].Color != colorFailed {
		t.Fatalf("color = %#x, want %#x", p.Embeds[0].Color, colorFailed)
	}
	if len(p.Components[0].Components) != 2 {
		t.Fatal("admin link should be omitted without a frontend url")
	}
}

func TestGrantRole(t *testing.T) {
	var got roleGrantRequest
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient("", srv.URL+"/", "Verified Staff", "")
	if err := c.GrantRole(context.Background(), "1001"); err != nil {
		t.Fatalf("GrantRole: %v", err)
	}
	if path != "/api/assign-role" || got.UserID != "1001" || got.RoleName != "Verified Staff" {
		t.Fatalf("unexpected request path=%s body=%+v", path, got)
	}
}

func TestGrantRoleUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such guild member", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient("", srv.URL, "Verified Staff", "")
	if err := c.GrantRole(context.Background(), "1001"); err == nil {
		t.Fatal("expected error for 404 from bot")
	}
}

func TestUnconfiguredClientIsNoop(t *testing.T) {
	c := NewClient("", "", "", "")
	if err := c.SendReviewRequest(context.Background(), SubmissionSummary{}); err != nil {
		t.Fatal(err)
	}
	if err := c.GrantRole(context.Background(), "1"); err != nil {
		t.Fatal(err)
	}
}
