package session

import (
	"context"
	"errors"
	"time"

	"github.com/programme-lv/classroom/structure"
)

// errSlugTaken is returned by CreateSession when the slug already exists.
var errSlugTaken = errors.New("slug already taken")

// errVersionMismatch is returned by UpsertSubmission when the stored row
// moved past the expected version.
var errVersionMismatch = errors.New("submission version mismatch")

type SessionRepo interface {
	CreateSession(ctx context.Context, s Session) (Session, error)
	GetSession(ctx context.Context, id int64) (*Session, error)
	GetSessionBySlug(ctx context.Context, slug string) (*Session, error)
	GetSessions(ctx context.Context, ids []int64) ([]Session, error)
	// ListSessionsByAssistant orders by ended, started and created time,
	// newest first.
	ListSessionsByAssistant(ctx context.Context, assistantID int64, status Status) ([]Session, error)
	ListSessionsByCourses(ctx context.Context, courseIDs []int64) ([]Session, error)
	UpdateStructure(ctx context.Context, id int64, st structure.Structure) error

	// CloseSession applies grades, stamps the linked exercise and marks the
	// session closed in one transaction. With deleteAfter the row is then
	// removed. It returns the number of submissions graded.
	CloseSession(ctx context.Context, id int64, grades []Grade, at time.Time, deleteAfter bool) (int, error)

	// UpsertSubmission inserts or overwrites the (session, student id) row
	// and bumps its version. A non-nil expectedVersion must match the stored
	// version of an existing row.
	UpsertSubmission(ctx context.Context, sub Submission, expectedVersion *int) (Submission, error)
	GetSubmission(ctx context.Context, id int64) (*Submission, error)
	// FindSubmission matches the student id case-insensitively.
	FindSubmission(ctx context.Context, sessionID int64, studentID string) (*Submission, error)
	// ListSubmissions orders newest update first.
	ListSubmissions(ctx context.Context, sessionIDs []int64) ([]Submission, error)
	ListSubmissionsByStudent(ctx context.Context, studentID string) ([]Submission, error)

	RequestEvidence(ctx context.Context, id int64, at time.Time) error
	// ReceiveEvidence stores the file key and resets the decision. Unless
	// reopen is set it only touches undecided rows and reports whether it
	// did.
	ReceiveEvidence(ctx context.Context, id int64, file string, at time.Time, reopen bool) (bool, error)
	// DecideEvidence records a decision on an undecided row. A non-nil score
	// overwrites the stored one. It reports whether the row was undecided.
	DecideEvidence(ctx context.Context, id int64, decision Decision, score *int, at time.Time) (bool, error)
}
