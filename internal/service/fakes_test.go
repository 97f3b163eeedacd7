package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"modtraining_backend/internal/model"
	"modtraining_backend/internal/quiz"
	"modtraining_backend/internal/repository"
	"modtraining_backend/internal/util"
	"modtraining_backend/pkg/identity"
)

var errStoreDown = errors.New("connection refused")

type fakeSubmissionStore struct {
	mu         sync.Mutex
	subs       map[string]*model.Submission
	seq        int
	failCreate bool
	mutations  int
}

func newFakeSubmissionStore() *fakeSubmissionStore {
	return &fakeSubmissionStore{subs: make(map[string]*model.Submission)}
}

func (f *fakeSubmissionStore) Create(_ context.Context, s *model.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return errStoreDown
	}
	f.seq++
	if s.ID == "" {
		s.ID = "sub-" + strconv.Itoa(f.seq)
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Date(2026, 1, 1, 0, 0, f.seq, 0, time.UTC)
	}
	cp := *s
	f.subs[s.ID] = &cp
	f.mutations++
	return nil
}

func (f *fakeSubmissionStore) List(_ context.Context, flt repository.SubmissionFilter) ([]model.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Submission
	for _, s := range f.subs {
		if flt.Status != "" && s.Status != flt.Status {
			continue
		}
		if flt.UserID != "" && s.UserID != flt.UserID {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeSubmissionStore) FindByID(_ context.Context, id string) (*model.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.subs[id]
	if !ok {
		return nil, util.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSubmissionStore) TransitionStatus(_ context.Context, id string, from, to model.SubmissionStatus, reviewer string, at time.Time) (*model.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.subs[id]
	if !ok {
		return nil, util.ErrNotFound
	}
	if s.Status != from {
		return nil, util.ErrInvalidTransition
	}
	s.Status = to
	s.ReviewedBy = reviewer
	s.ReviewedAt = &at
	f.mutations++
	cp := *s
	return &cp, nil
}

func (f *fakeSubmissionStore) CountByStatus(_ context.Context) (map[model.SubmissionStatus]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[model.SubmissionStatus]int64)
	for _, s := range f.subs {
		out[s.Status]++
	}
	return out, nil
}

func (f *fakeSubmissionStore) status(id string) model.SubmissionStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subs[id].Status
}

type reviewedCall struct {
	id        string
	grantRole bool
}

type fakeNotifier struct {
	mu       sync.Mutex
	created  []string
	reviewed []reviewedCall
}

func (n *fakeNotifier) SubmissionCreated(sub *model.Submission) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, sub.ID)
}

func (n *fakeNotifier) SubmissionReviewed(sub *model.Submission, grantRole bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reviewed = append(n.reviewed, reviewedCall{id: sub.ID, grantRole: grantRole})
}

// flakySessionStore 包装内存实现，可以模拟写入失败
type flakySessionStore struct {
	*repository.MemorySessionRepository
	failSave bool
}

func (s *flakySessionStore) Save(ctx context.Context, userID string, sess *quiz.Session) error {
	if s.failSave {
		return errStoreDown
	}
	return s.MemorySessionRepository.Save(ctx, userID, sess)
}

type fakeProvider struct {
	exchangeErr error
	fetch       func(calls int) (*identity.Identity, error)
	calls       int
}

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://discord.example/authorize?state=" + state
}

func (p *fakeProvider) Exchange(_ context.Context, code string) (*oauth2.Token, error) {
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	return &oauth2.Token{AccessToken: "tok-" + code}, nil
}

func (p *fakeProvider) FetchUser(_ context.Context, _ *oauth2.Token) (*identity.Identity, error) {
	p.calls++
	return p.fetch(p.calls)
}

type fakeUserStore struct {
	users map[string]model.User
	fail  bool
}

func (u *fakeUserStore) UpsertByDiscordID(_ context.Context, user *model.User) error {
	if u.fail {
		return errStoreDown
	}
	if u.users == nil {
		u.users = make(map[string]model.User)
	}
	u.users[user.DiscordID] = *user
	return nil
}
