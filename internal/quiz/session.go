package quiz

import "time"

// Session walks one user through the bank. Navigation never drops text that
// was already entered for any position.
type Session struct {
	CurrentIndex int            `json:"current_index"`
	Size         int            `json:"size"`
	Answers      map[int]string `json:"answers"`
	StartedAt    time.Time      `json:"started_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func NewSession(size int) *Session {
	now := time.Now().UTC()
	return &Session{
		Size:      size,
		Answers:   make(map[int]string, size),
		StartedAt: now,
		UpdatedAt: now,
	}
}

// Record stores text at the current position.
func (s *Session) Record(text string) {
	if s.Answers == nil {
		s.Answers = make(map[int]string, s.Size)
	}
	s.clamp()
	s.Answers[s.CurrentIndex] = text
	s.UpdatedAt = time.Now().UTC()
}

// Advance records text and moves forward unless already on the last question.
func (s *Session) Advance(text string) {
	s.Record(text)
	if !s.AtLast() {
		s.CurrentIndex++
	}
}

// Retreat records text, moves back one position unless at the first question,
// and returns the text previously entered there.
func (s *Session) Retreat(text string) string {
	s.Record(text)
	if !s.AtFirst() {
		s.CurrentIndex--
	}
	return s.Text(s.CurrentIndex)
}

// Text is the stored answer at i, or "" if never entered.
func (s *Session) Text(i int) string {
	return s.Answers[i]
}

// Texts returns one entry per question in order, "" for skipped ones.
func (s *Session) Texts() []string {
	out := make([]string, s.Size)
	for i := range out {
		out[i] = s.Answers[i]
	}
	return out
}

func (s *Session) AtFirst() bool { return s.CurrentIndex <= 0 }

func (s *Session) AtLast() bool { return s.CurrentIndex >= s.Size-1 }

// Progress is the 1-based position as a percentage, as shown in the progress bar.
func (s *Session) Progress() float64 {
	if s.Size == 0 {
		return 0
	}
	return 100 * float64(s.CurrentIndex+1) / float64(s.Size)
}

func (s *Session) clamp() {
	if s.CurrentIndex < 0 {
		s.CurrentIndex = 0
	}
	if s.Size > 0 && s.CurrentIndex > s.Size-1 {
		s.CurrentIndex = s.Size - 1
	}
}
