package session

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/programme-lv/classroom/structure"
)

type Status string

const (
	StatusDraft  Status = "draft"
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

// Session is a grading round an assistant runs against a course and,
// optionally, one of its exercises. The slug is its only public handle.
type Session struct {
	ID               int64
	Slug             string
	AssistantID      int64
	CourseID         int64
	ExerciseID       *int64
	Title            string
	TimeLimitMinutes int
	Structure        structure.Structure
	Status           Status
	CreatedAt        time.Time
	StartedAt        *time.Time
	EndedAt          *time.Time
}

func (s Session) DisplayTitle() string {
	if s.Title == "" {
		return "Session"
	}
	return s.Title
}

type Decision string

const (
	DecisionPending  Decision = ""
	DecisionAccepted Decision = "accepted"
	DecisionDeclined Decision = "declined"
)

// Submission is one student's answers in a session. There is at most one
// per (session, student id).
type Submission struct {
	ID                int64
	SessionID         int64
	StudentID         string
	StudentName       string
	Answers           []json.RawMessage
	TotalCheckedCount int
	GroupIndex        *int
	Score             *int

	EvidenceRequestedAt *time.Time
	EvidenceReceivedAt  *time.Time
	EvidenceFile        string
	EvidenceDecision    Decision
	EvidenceReviewedAt  *time.Time

	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time

	// EvidenceURL is a short-lived download link filled by the service.
	EvidenceURL string
}

// AwaitingReview reports whether evidence was received and not yet decided.
func (s Submission) AwaitingReview() bool {
	return s.EvidenceRequestedAt != nil && s.EvidenceReceivedAt != nil &&
		s.EvidenceFile != "" && s.EvidenceDecision == DecisionPending
}

// Grade is an assistant's verdict for one student at close time. Nil
// fields are stored as NULL.
type Grade struct {
	StudentID  string
	Score      *int
	GroupIndex *int
}

func sameStudent(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
