package quiz

import (
	"strings"

	"modtraining_backend/internal/model"
)

const (
	DefaultKeywordThreshold = 0.30
	DefaultPassMark         = 80.0

	ratioEpsilon = 1e-9
)

// MatchResult explains a single evaluation.
type MatchResult struct {
	QuestionID int      `json:"question_id"`
	Matched    []string `json:"matched"`
	Total      int      `json:"total"`
	Ratio      float64  `json:"ratio"`
	Correct    bool     `json:"correct"`
}

// Grading is the outcome of scoring a full attempt.
type Grading struct {
	Answers []model.Answer
	Correct int
	Score   float64
	Passed  bool
}

// Scorer grades free-text answers by keyword overlap. It is read-only after
// construction and safe for concurrent use.
type Scorer struct {
	bank      *Bank
	threshold float64
	passMark  float64
}

type ScorerOption func(*Scorer)

func WithKeywordThreshold(t float64) ScorerOption {
	return func(s *Scorer) {
		if t > 0 && t <= 1 {
			s.threshold = t
		}
	}
}

func WithPassMark(p float64) ScorerOption {
	return func(s *Scorer) {
		if p > 0 && p <= 100 {
			s.passMark = p
		}
	}
}

func NewScorer(bank *Bank, opts ...ScorerOption) *Scorer {
	s := &Scorer{
		bank:      bank,
		threshold: DefaultKeywordThreshold,
		passMark:  DefaultPassMark,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Scorer) Bank() *Bank { return s.bank }

// Match counts how many of the question's keywords appear as substrings of
// the lowercased answer. Unknown ids yield a zero, incorrect result.
func (s *Scorer) Match(questionID int, answer string) MatchResult {
	res := MatchResult{QuestionID: questionID}

	q, ok := s.bank.Get(questionID)
	if !ok || len(q.Keywords) == 0 {
		return res
	}

	normalized := strings.ToLower(answer)
	res.Total = len(q.Keywords)
	for _, kw := range q.Keywords {
		if kw != "" && strings.Contains(normalized, kw) {
			res.Matched = append(res.Matched, kw)
		}
	}
	res.Ratio = float64(len(res.Matched)) / float64(res.Total)
	res.Correct = len(res.Matched) > 0 && res.Ratio+ratioEpsilon >= s.threshold
	return res
}

// Evaluate reports whether answer clears the keyword threshold for questionID.
func (s *Scorer) Evaluate(questionID int, answer string) bool {
	return s.Match(questionID, answer).Correct
}

// Passed applies the pass mark to a percentage score.
func (s *Scorer) Passed(score float64) bool {
	return score >= s.passMark
}

// Grade scores one text per bank question in display order. Missing entries
// count as empty answers; extra entries are ignored.
func (s *Scorer) Grade(texts []string) Grading {
	n := s.bank.Len()
	g := Grading{Answers: make([]model.Answer, n)}

	for i := 0; i < n; i++ {
		q := s.bank.questions[i]
		text := ""
		if i < len(texts) {
			text = texts[i]
		}
		correct := s.Evaluate(q.ID, text)
		if correct {
			g.Correct++
		}
		g.Answers[i] = model.Answer{
			QuestionNumber: i + 1,
			Question:       q.Prompt,
			UserAnswer:     text,
			IsCorrect:      correct,
		}
	}

	g.Score = Score(g.Correct, n)
	g.Passed = s.Passed(g.Score)
	return g
}

// Score is the percentage of correct answers, 0 for an empty bank.
func Score(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return 100 * float64(correct) / float64(total)
}
