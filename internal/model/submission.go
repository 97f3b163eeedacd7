package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "pending"
	StatusAccepted SubmissionStatus = "accepted"
	StatusDenied   SubmissionStatus = "denied"
)

func (s SubmissionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusDenied:
		return true
	}
	return false
}

// Terminal accepted/denied 之后不允许再变更
func (s SubmissionStatus) Terminal() bool {
	return s == StatusAccepted || s == StatusDenied
}

// Answer 单题作答结果，评分后不再修改。
type Answer struct {
	QuestionNumber int    `json:"question_number"`
	Question       string `json:"question"`
	UserAnswer     string `json:"user_answer"`
	IsCorrect      bool   `json:"is_correct"`
}

// Submission 一次完整的考核提交，等待或已经过管理员审核。
// swagger:model Submission
type Submission struct {
	ID         string                      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID     string                      `gorm:"size:32;index;not null" json:"user_id"`
	UserEmail  string                      `gorm:"size:255" json:"user_email"`
	Username   string                      `gorm:"size:100" json:"username"`
	Answers    datatypes.JSONSlice[Answer] `json:"answers"`
	Score      float64                     `gorm:"not null" json:"score"`
	Passed     bool                        `gorm:"not null" json:"passed"`
	Status     SubmissionStatus            `gorm:"size:20;index;not null;default:'pending'" json:"status"`
	ReviewedBy string                      `gorm:"size:32" json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time                  `json:"reviewed_at,omitempty"`
	CreatedAt  time.Time                   `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time                   `json:"updated_at"`
}

func (Submission) TableName() string {
	return "submissions"
}

func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.Status == "" {
		s.Status = StatusPending
	}
	return nil
}

// CorrectCount 答对题数
func (s *Submission) CorrectCount() int {
	n := 0
	for _, a := range s.Answers {
		if a.IsCorrect {
			n++
		}
	}
	return n
}
