// Package quiz holds the moderator assessment: the fixed question bank, the
// keyword-overlap scorer and the per-user answer session.
package quiz

import (
	"fmt"
	"strings"
)

// Question is one training scenario. Keywords are matched case-insensitively.
type Question struct {
	ID              int
	Scenario        string
	Prompt          string
	Task            string
	OptimalResponse string
	Keywords        []string
	AvoidGuidance   string
}

// PublicQuestion is what a trainee sees; keywords never leave the server.
type PublicQuestion struct {
	ID              int    `json:"id"`
	Number          int    `json:"number"`
	Scenario        string `json:"scenario"`
	Question        string `json:"question"`
	Task            string `json:"task"`
	OptimalResponse string `json:"optimal_response"`
	Avoid           string `json:"avoid"`
}

// Bank is an ordered, immutable set of questions.
type Bank struct {
	questions []Question
	byID      map[int]int
}

// NewBank validates and copies qs. Ids must be unique and every question needs
// at least one non-blank keyword.
func NewBank(qs []Question) (*Bank, error) {
	if len(qs) == 0 {
		return nil, fmt.Errorf("question bank is empty")
	}

	b := &Bank{
		questions: make([]Question, 0, len(qs)),
		byID:      make(map[int]int, len(qs)),
	}
	for _, q := range qs {
		if _, dup := b.byID[q.ID]; dup {
			return nil, fmt.Errorf("duplicate question id %d", q.ID)
		}
		if len(q.Keywords) == 0 {
			return nil, fmt.Errorf("question %d has no keywords", q.ID)
		}
		kws := make([]string, len(q.Keywords))
		for i, kw := range q.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				return nil, fmt.Errorf("question %d has a blank keyword", q.ID)
			}
			kws[i] = kw
		}
		q.Keywords = kws
		b.byID[q.ID] = len(b.questions)
		b.questions = append(b.questions, q)
	}
	return b, nil
}

func MustNewBank(qs []Question) *Bank {
	b, err := NewBank(qs)
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Bank) Len() int { return len(b.questions) }

// At returns the question at 0-based display position i.
func (b *Bank) At(i int) Question {
	return b.questions[i].clone()
}

func (b *Bank) Get(id int) (Question, bool) {
	i, ok := b.byID[id]
	if !ok {
		return Question{}, false
	}
	return b.questions[i].clone(), true
}

// Questions returns a copy in display order.
func (b *Bank) Questions() []Question {
	out := make([]Question, len(b.questions))
	for i, q := range b.questions {
		out[i] = q.clone()
	}
	return out
}

func (b *Bank) Public() []PublicQuestion {
	out := make([]PublicQuestion, len(b.questions))
	for i, q := range b.questions {
		out[i] = q.public(i + 1)
	}
	return out
}

// PublicAt is the trainee view of the question at position i.
func (b *Bank) PublicAt(i int) PublicQuestion {
	return b.questions[i].public(i + 1)
}

func (q Question) clone() Question {
	q.Keywords = append([]string(nil), q.Keywords...)
	return q
}

func (q Question) public(number int) PublicQuestion {
	return PublicQuestion{
		ID:              q.ID,
		Number:          number,
		Scenario:        q.Scenario,
		Question:        q.Prompt,
		Task:            q.Task,
		OptimalResponse: q.OptimalResponse,
		Avoid:           q.AvoidGuidance,
	}
}

var defaultBank = MustNewBank(builtinQuestions)

// DefaultBank is the roster-moderation bank shipped with the service.
func DefaultBank() *Bank { return defaultBank }

var builtinQuestions = []Question{
	{
		ID:              1,
		Scenario:        "General Roster Inquiry",
		Prompt:          "A user creates a roster ticket with the message: 'I want to join the team, what should I do?'",
		Task:            "Compose your initial response as the handling moderator.",
		OptimalResponse: "Hello! What's your age and how may I assist you today? Please review the requirements in 🎯┃how-to-join-roster and identify which category best fits your qualifications.",
		Keywords:        []string{"age", "hello", "hi", "greeting", "how-to-join", "requirements", "roster", "category", "qualifications", "review"},
		AvoidGuidance:   "Immediate approval, vague directions, omitting age verification.",
	},
	{
		ID:              2,
		Scenario:        "Pro/Semi-Pro Application",
		Prompt:          "A user submits an application for Pro or Semi-Pro roster position.",
		Task:            "Outline your verification and escalation procedure.",
		OptimalResponse: "Request Fortnite tracker and earnings verification. Validate authenticity. Ping @trapped or relevant senior staff for review. Maintain ticket until senior response.",
		Keywords:        []string{"fortnite", "tracker", "earnings", "verification", "verify", "ping", "staff", "senior", "review", "trapped"},
		AvoidGuidance:   "Approving without verification",
	},
	{
		ID:              3,
		Scenario:        "Academy Player Verification",
		Prompt:          "An Academy roster applicant meets PR requirements.",
		Task:            "Describe the onboarding workflow including representation requirements.",
		OptimalResponse: "1) Verify Fortnite tracker authenticity and PR. 2) Request username change to include 'Void'. 3) Require 'team.void' item shop proof. 4) Photo verification. 5) Welcome and role assignment via senior staff ping.",
		Keywords:        []string{"verify", "tracker", "pr", "username", "void", "team.void", "item shop", "proof", "photo", "welcome", "role"},
		AvoidGuidance:   "Skipping verification steps",
	},
	{
		ID:              4,
		Scenario:        "Content Creator Application",
		Prompt:          "A user applies for Streamer or Content Creator position.",
		Task:            "Formulate your review and escalation process.",
		OptimalResponse: "Confirm they meet follower/viewer requirements. Request social media links. Ping @content department for evaluation. Instruct applicant to await department review.",
		Keywords:        []string{"follower", "viewer", "requirements", "social media", "links", "ping", "content", "department", "evaluation", "review", "await"},
		AvoidGuidance:   "Immediate approval without content department review",
	},
	{
		ID:              5,
		Scenario:        "GFX/VFX Portfolio Review",
		Prompt:          "A GFX/VFX applicant submits their portfolio.",
		Task:            "Detail the verification and escalation steps.",
		OptimalResponse: "Request portfolio and proof of work. Assess quality and resolution requirements. Ping @gfx-vfx lead for technical evaluation. Notify applicant of pending review.",
		Keywords:        []string{"portfolio", "proof", "work", "quality", "resolution", "ping", "gfx", "vfx", "lead", "evaluation", "review", "pending"},
		AvoidGuidance:   "Approving without technical evaluation",
	},
	{
		ID:              6,
		Scenario:        "Creative Roster Submission",
		Prompt:          "A Creative roster applicant provides freebuilding clips.",
		Task:            "Specify the review requirements and escalation.",
		OptimalResponse: "Minimum two freebuilding clips demonstrating mechanics and uniqueness. Ping @creativedepartment for skill assessment. Inform applicant of review timeline.",
		Keywords:        []string{"two", "clips", "freebuilding", "mechanics", "unique", "ping", "creative", "department", "assessment", "skill", "timeline", "review"},
		AvoidGuidance:   "Accepting without creative department assessment",
	},
	{
		ID:              7,
		Scenario:        "Grinder Application Processing",
		Prompt:          "A Grinder applicant seeks representation.",
		Task:            "Outline the username and verification requirements.",
		OptimalResponse: "Discord and Fortnite username must include 'Void'. Proof of 'team.void' item shop usage required. Verification via screenshot before role assignment.",
		Keywords:        []string{"discord", "fortnite", "username", "void", "team.void", "item shop", "proof", "screenshot", "verification", "role"},
		AvoidGuidance:   "Skipping username verification",
	},
}
