package http

import (
	"encoding/json"
	"time"

	"github.com/programme-lv/classroom/session"
	"github.com/programme-lv/classroom/structure"
)

type Session struct {
	ID               int64               `json:"id"`
	Slug             string              `json:"slug"`
	Title            string              `json:"title"`
	Status           string              `json:"status"`
	TimeLimitMinutes int                 `json:"time_limit_minutes"`
	Structure        structure.Structure `json:"structure"`
	CheckablePaths   []string            `json:"checkable_paths"`
	PublicURL        string              `json:"public_url"`
}

func (h *SessionHttpHandler) mapSession(s session.Session) Session {
	return Session{
		ID:               s.ID,
		Slug:             s.Slug,
		Title:            s.DisplayTitle(),
		Status:           string(s.Status),
		TimeLimitMinutes: s.TimeLimitMinutes,
		Structure:        s.Structure,
		CheckablePaths:   s.Structure.CheckablePaths(),
		PublicURL:        h.srvc.PublicURL(s.Slug),
	}
}

// PublicSession leaves out what students should not see.
type PublicSession struct {
	Slug             string              `json:"slug"`
	Title            string              `json:"title"`
	TimeLimitMinutes int                 `json:"time_limit_minutes"`
	Structure        structure.Structure `json:"structure"`
	CheckablePaths   []string            `json:"checkable_paths"`
}

func mapPublicSession(s session.Session) PublicSession {
	return PublicSession{
		Slug:             s.Slug,
		Title:            s.DisplayTitle(),
		TimeLimitMinutes: s.TimeLimitMinutes,
		Structure:        s.Structure,
		CheckablePaths:   s.Structure.CheckablePaths(),
	}
}

type Submission struct {
	ID                  int64             `json:"id"`
	StudentID           string            `json:"student_id"`
	StudentName         string            `json:"student_name"`
	Answers             []json.RawMessage `json:"answers"`
	TotalCheckedCount   int               `json:"total_checked_count"`
	SubmittedAt         time.Time         `json:"submitted_at"`
	Score               *int              `json:"score"`
	GroupIndex          *int              `json:"group_index"`
	Version             int               `json:"version"`
	EvidenceRequestedAt *time.Time        `json:"evidence_requested_at"`
	EvidenceReceivedAt  *time.Time        `json:"evidence_received_at"`
	EvidenceURL         *string           `json:"evidence_url"`
	EvidenceDecision    string            `json:"evidence_decision"`
	EvidenceReviewedAt  *time.Time        `json:"evidence_reviewed_at"`
}

func mapSubmission(s session.Submission) Submission {
	out := Submission{
		ID:                  s.ID,
		StudentID:           s.StudentID,
		StudentName:         s.StudentName,
		Answers:             s.Answers,
		TotalCheckedCount:   s.TotalCheckedCount,
		SubmittedAt:         s.UpdatedAt,
		Score:               s.Score,
		GroupIndex:          s.GroupIndex,
		Version:             s.Version,
		EvidenceRequestedAt: s.EvidenceRequestedAt,
		EvidenceReceivedAt:  s.EvidenceReceivedAt,
		EvidenceDecision:    string(s.EvidenceDecision),
		EvidenceReviewedAt:  s.EvidenceReviewedAt,
	}
	if s.EvidenceURL != "" {
		url := s.EvidenceURL
		out.EvidenceURL = &url
	}
	if out.Answers == nil {
		out.Answers = []json.RawMessage{}
	}
	return out
}

func mapSubmissions(subs []session.Submission) []Submission {
	out := make([]Submission, 0, len(subs))
	for _, s := range subs {
		out = append(out, mapSubmission(s))
	}
	return out
}
