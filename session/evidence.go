package session

import (
	"context"
	"fmt"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/programme-lv/classroom/logger"
	"github.com/programme-lv/classroom/srvcerror"
)

const evidenceURLTTL = 15 * time.Minute

// Reviewer is whoever asks for and judges evidence: the assistant running
// the session or the teacher owning its course. Exactly one id is set.
type Reviewer struct {
	AssistantID int64
	TeacherID   int64
}

// SubmissionRef names a submission by id, or by session slug and student
// id when the id is zero.
type SubmissionRef struct {
	SubmissionID int64
	Slug         string
	StudentID    string
}

func (s *SessionSrvc) locate(ctx context.Context, ref SubmissionRef) (*Session, *Submission, error) {
	if ref.SubmissionID > 0 {
		sub, err := s.repo.GetSubmission(ctx, ref.SubmissionID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get submission: %w", err)
		}
		if sub == nil {
			return nil, nil, newErrSubmissionNotFound()
		}
		sess, err := s.repo.GetSession(ctx, sub.SessionID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get session: %w", err)
		}
		if sess == nil {
			return nil, nil, newErrSubmissionNotFound()
		}
		return sess, sub, nil
	}

	sess, err := s.GetSession(ctx, ref.Slug)
	if err != nil {
		return nil, nil, err
	}
	sub, err := s.repo.FindSubmission(ctx, sess.ID, strings.TrimSpace(ref.StudentID))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find submission: %w", err)
	}
	if sub == nil {
		return nil, nil, newErrSubmissionNotFound()
	}
	return sess, sub, nil
}

func (s *SessionSrvc) authorizeReview(ctx context.Context, r Reviewer, sess *Session) error {
	if r.AssistantID > 0 {
		if sess.AssistantID != r.AssistantID {
			return newErrNotReviewer()
		}
		return nil
	}
	c, err := s.courses.GetCourse(ctx, sess.CourseID)
	if err != nil {
		return err
	}
	if r.TeacherID == 0 || c.TeacherID != r.TeacherID {
		return newErrNotReviewer()
	}
	return nil
}

// RequestEvidence asks the student behind a submission to upload evidence.
func (s *SessionSrvc) RequestEvidence(ctx context.Context, r Reviewer, ref SubmissionRef) (*Submission, error) {
	sess, sub, err := s.locate(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeReview(ctx, r, sess); err != nil {
		return nil, err
	}
	at := now()
	if err := s.repo.RequestEvidence(ctx, sub.ID, at); err != nil {
		return nil, fmt.Errorf("failed to request evidence: %w", err)
	}
	sub.EvidenceRequestedAt = &at
	logger.FromContext(ctx).Info("evidence requested",
		"submission_id", sub.ID, "assistant_id", r.AssistantID, "teacher_id", r.TeacherID)
	return sub, nil
}

// parseDecision maps the reviewer's verb onto the stored decision.
func parseDecision(verb string) (Decision, error) {
	switch strings.ToLower(strings.TrimSpace(verb)) {
	case "accept":
		return DecisionAccepted, nil
	case "decline":
		return DecisionDeclined, nil
	}
	return "", srvcerror.ErrValidation("decision must be accept or decline")
}

// DecideEvidence accepts or declines received evidence. Declining needs a
// new integer score, which replaces the stored one. A submission is
// decided at most once.
func (s *SessionSrvc) DecideEvidence(ctx context.Context, r Reviewer, submissionID int64, verb string, newScore *string) (*Submission, error) {
	decision, err := parseDecision(verb)
	if err != nil {
		return nil, err
	}
	sess, sub, err := s.locate(ctx, SubmissionRef{SubmissionID: submissionID})
	if err != nil {
		return nil, err
	}
	if err := s.authorizeReview(ctx, r, sess); err != nil {
		return nil, err
	}
	if sub.EvidenceRequestedAt == nil {
		return nil, newErrEvidenceNotRequested()
	}
	if sub.EvidenceReceivedAt == nil || sub.EvidenceFile == "" {
		return nil, newErrEvidenceNotReceived()
	}
	if sub.EvidenceDecision != DecisionPending {
		return nil, newErrDecisionAlreadyMade()
	}
	present, err := s.evidence.Exists(ctx, sub.EvidenceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to check evidence file: %w", err)
	}
	if !present {
		logger.FromContext(ctx).Warn("evidence file missing from bucket",
			"submission_id", sub.ID, "key", sub.EvidenceFile)
		return nil, newErrEvidenceNotReceived()
	}

	var score *int
	if decision == DecisionDeclined {
		if newScore == nil || strings.TrimSpace(*newScore) == "" {
			return nil, newErrNewScoreRequired()
		}
		n, err := strconv.Atoi(strings.TrimSpace(*newScore))
		if err != nil {
			return nil, newErrInvalidScore()
		}
		score = &n
	}

	at := now()
	ok, err := s.repo.DecideEvidence(ctx, sub.ID, decision, score, at)
	if err != nil {
		return nil, fmt.Errorf("failed to decide evidence: %w", err)
	}
	if !ok {
		return nil, newErrDecisionAlreadyMade()
	}
	sub.EvidenceDecision = decision
	sub.EvidenceReviewedAt = &at
	if score != nil {
		sub.Score = score
	}
	logger.FromContext(ctx).Info("evidence decided",
		"submission_id", sub.ID, "decision", decision, "assistant_id", r.AssistantID, "teacher_id", r.TeacherID)
	return sub, nil
}

// EvidenceFile is an uploaded file after content sniffing.
type EvidenceFile struct {
	Content   []byte
	MediaType string
	// Extension includes the leading dot, or is empty.
	Extension string
}

func evidenceKey(at time.Time, ext string) string {
	return fmt.Sprintf("evidence/%s/%s%s", at.Format("2006/01/02"), uuid.NewString(), ext)
}

// UploadEvidence stores the student's file for one of their submissions,
// stamps it received and resets the decision to pending. It returns a
// download link.
func (s *SessionSrvc) UploadEvidence(ctx context.Context, studentPK int64, submissionID int64, file EvidenceFile) (string, error) {
	log := logger.FromContext(ctx)

	st, err := s.accounts.GetStudent(ctx, studentPK)
	if err != nil {
		return "", err
	}
	sub, err := s.repo.GetSubmission(ctx, submissionID)
	if err != nil {
		return "", fmt.Errorf("failed to get submission: %w", err)
	}
	if sub == nil || !sameStudent(sub.StudentID, st.StudentID) {
		return "", newErrSubmissionNotFound()
	}
	if !s.opts.AllowEvidenceReopen && sub.EvidenceDecision != DecisionPending {
		return "", newErrDecisionAlreadyMade()
	}

	at := now()
	key := evidenceKey(at, file.Extension)
	if _, err := s.evidence.Upload(ctx, file.Content, key, file.MediaType); err != nil {
		return "", fmt.Errorf("failed to upload evidence: %w", err)
	}
	ok, err := s.repo.ReceiveEvidence(ctx, sub.ID, key, at, s.opts.AllowEvidenceReopen)
	if err != nil {
		return "", fmt.Errorf("failed to store evidence: %w", err)
	}
	if !ok {
		// a decision landed after the check above
		if err := s.evidence.Delete(ctx, key); err != nil {
			log.Warn("failed to remove rejected evidence", "key", key, "error", err)
		}
		return "", newErrDecisionAlreadyMade()
	}
	if sub.EvidenceDecision != DecisionPending {
		log.Info("evidence upload reopened a decided submission",
			"submission_id", sub.ID, "previous_decision", sub.EvidenceDecision)
	}
	log.Info("evidence received", "submission_id", sub.ID, "key", key, "bytes", len(file.Content))

	url, err := s.evidence.PresignedURL(ctx, key, evidenceURLTTL)
	if err != nil {
		return "", fmt.Errorf("failed to presign evidence url: %w", err)
	}
	return url, nil
}

// DownloadEvidence returns the stored evidence of a submission to its
// reviewer. MediaType is left for the caller to sniff.
func (s *SessionSrvc) DownloadEvidence(ctx context.Context, r Reviewer, submissionID int64) (*EvidenceFile, error) {
	sess, sub, err := s.locate(ctx, SubmissionRef{SubmissionID: submissionID})
	if err != nil {
		return nil, err
	}
	if err := s.authorizeReview(ctx, r, sess); err != nil {
		return nil, err
	}
	if sub.EvidenceFile == "" {
		return nil, newErrEvidenceNotReceived()
	}
	present, err := s.evidence.Exists(ctx, sub.EvidenceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to check evidence file: %w", err)
	}
	if !present {
		return nil, newErrEvidenceNotReceived()
	}
	content, err := s.evidence.Download(ctx, sub.EvidenceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to download evidence: %w", err)
	}
	return &EvidenceFile{Content: content, Extension: path.Ext(sub.EvidenceFile)}, nil
}

// EvidenceItem is a submission with requested evidence in one of a
// teacher's courses.
type EvidenceItem struct {
	Submission
	Session Session
}

// TeacherEvidence lists submissions with requested evidence across the
// teacher's courses, most recently requested first.
func (s *SessionSrvc) TeacherEvidence(ctx context.Context, teacherID int64) ([]EvidenceItem, error) {
	cs, err := s.courses.ListTeacherCourses(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	courseIDs := make([]int64, 0, len(cs))
	for _, c := range cs {
		courseIDs = append(courseIDs, c.ID)
	}
	ss, subs, err := s.ListSessionsByCourses(ctx, courseIDs)
	if err != nil {
		return nil, err
	}

	out := []EvidenceItem{}
	for _, sess := range ss {
		reqs := subs[sess.ID]
		s.withEvidenceURLs(ctx, reqs)
		for _, sub := range reqs {
			if sub.EvidenceRequestedAt != nil {
				out = append(out, EvidenceItem{Submission: sub, Session: sess})
			}
		}
	}
	slices.SortStableFunc(out, func(a, b EvidenceItem) int {
		return b.EvidenceRequestedAt.Compare(*a.EvidenceRequestedAt)
	})
	return out, nil
}
