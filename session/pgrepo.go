package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/programme-lv/classroom/course"
	"github.com/programme-lv/classroom/logger"
	"github.com/programme-lv/classroom/structure"
)

type pgSessionRepo struct {
	pool *pgxpool.Pool
}

func NewPgSessionRepo(pool *pgxpool.Pool) SessionRepo {
	return &pgSessionRepo{pool: pool}
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}

func collect[T any](rows pgx.Rows, err error, scan func(pgx.Row) (T, error)) ([]T, error) {
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (T, error) {
		return scan(row)
	})
}

func one[T any](v T, err error) (*T, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

const sessionCols = `s.id, s.slug, s.assistant_id, s.course_id, s.exercise_id, s.title,
	s.time_limit_minutes, s.structure_json, s.status, s.created_at, s.started_at, s.ended_at`

func scanSession(row pgx.Row) (Session, error) {
	var (
		s      Session
		raw    []byte
		status string
	)
	err := row.Scan(&s.ID, &s.Slug, &s.AssistantID, &s.CourseID, &s.ExerciseID, &s.Title,
		&s.TimeLimitMinutes, &raw, &status, &s.CreatedAt, &s.StartedAt, &s.EndedAt)
	if err != nil {
		return Session{}, err
	}
	s.Status = Status(status)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &s.Structure); err != nil {
			return Session{}, fmt.Errorf("failed to decode structure of session %d: %w", s.ID, err)
		}
	}
	return s, nil
}

func (r *pgSessionRepo) CreateSession(ctx context.Context, s Session) (Session, error) {
	raw, err := json.Marshal(s.Structure)
	if err != nil {
		return Session{}, fmt.Errorf("failed to encode structure: %w", err)
	}
	q := `INSERT INTO ta_sessions AS s (slug, assistant_id, course_id, exercise_id, title,
			time_limit_minutes, structure_json, status, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + sessionCols
	created, err := scanSession(r.pool.QueryRow(ctx, q, s.Slug, s.AssistantID, s.CourseID, s.ExerciseID,
		s.Title, s.TimeLimitMinutes, raw, string(s.Status), s.StartedAt))
	if err != nil {
		if isUniqueViolation(err, "ta_sessions_slug_key") {
			return Session{}, errSlugTaken
		}
		return Session{}, fmt.Errorf("failed to insert session: %w", err)
	}
	return created, nil
}

func (r *pgSessionRepo) GetSession(ctx context.Context, id int64) (*Session, error) {
	q := `SELECT ` + sessionCols + ` FROM ta_sessions s WHERE s.id = $1`
	s, err := one(scanSession(r.pool.QueryRow(ctx, q, id)))
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

func (r *pgSessionRepo) GetSessionBySlug(ctx context.Context, slug string) (*Session, error) {
	q := `SELECT ` + sessionCols + ` FROM ta_sessions s WHERE s.slug = $1`
	s, err := one(scanSession(r.pool.QueryRow(ctx, q, slug)))
	if err != nil {
		return nil, fmt.Errorf("failed to get session by slug: %w", err)
	}
	return s, nil
}

func (r *pgSessionRepo) GetSessions(ctx context.Context, ids []int64) ([]Session, error) {
	q := `SELECT ` + sessionCols + ` FROM ta_sessions s WHERE s.id = ANY($1) ORDER BY s.id`
	rows, err := r.pool.Query(ctx, q, ids)
	ss, err := collect(rows, err, scanSession)
	if err != nil {
		return nil, fmt.Errorf("failed to get sessions: %w", err)
	}
	return ss, nil
}

const sessionOrder = ` ORDER BY s.ended_at DESC NULLS LAST, s.started_at DESC NULLS LAST,
	s.created_at DESC, s.id DESC`

func (r *pgSessionRepo) ListSessionsByAssistant(ctx context.Context, assistantID int64, status Status) ([]Session, error) {
	q := `SELECT ` + sessionCols + ` FROM ta_sessions s
		WHERE s.assistant_id = $1 AND s.status = $2` + sessionOrder
	rows, err := r.pool.Query(ctx, q, assistantID, string(status))
	ss, err := collect(rows, err, scanSession)
	if err != nil {
		return nil, fmt.Errorf("failed to list assistant sessions: %w", err)
	}
	return ss, nil
}

func (r *pgSessionRepo) ListSessionsByCourses(ctx context.Context, courseIDs []int64) ([]Session, error) {
	q := `SELECT ` + sessionCols + ` FROM ta_sessions s WHERE s.course_id = ANY($1)` + sessionOrder
	rows, err := r.pool.Query(ctx, q, courseIDs)
	ss, err := collect(rows, err, scanSession)
	if err != nil {
		return nil, fmt.Errorf("failed to list course sessions: %w", err)
	}
	return ss, nil
}

func (r *pgSessionRepo) UpdateStructure(ctx context.Context, id int64, st structure.Structure) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode structure: %w", err)
	}
	_, err = r.pool.Exec(ctx, `UPDATE ta_sessions SET structure_json = $2 WHERE id = $1`, id, raw)
	if err != nil {
		return fmt.Errorf("failed to update structure: %w", err)
	}
	return nil
}

func (r *pgSessionRepo) CloseSession(ctx context.Context, id int64, grades []Grade, at time.Time, deleteAfter bool) (int, error) {
	log := logger.FromContext(ctx)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exerciseID *int64
	err = tx.QueryRow(ctx, `SELECT exercise_id FROM ta_sessions WHERE id = $1 FOR UPDATE`, id).Scan(&exerciseID)
	if err != nil {
		return 0, fmt.Errorf("failed to lock session: %w", err)
	}

	updated := 0
	if len(grades) > 0 {
		batch := &pgx.Batch{}
		for _, g := range grades {
			batch.Queue(`UPDATE ta_session_submissions
				SET score = $3, group_index = $4, updated_at = $5
				WHERE session_id = $1 AND LOWER(student_id) = LOWER($2)`,
				id, g.StudentID, g.Score, g.GroupIndex, at)
		}
		br := tx.SendBatch(ctx, batch)
		for range grades {
			tag, err := br.Exec()
			if err != nil {
				br.Close()
				return 0, fmt.Errorf("failed to apply grade: %w", err)
			}
			if tag.RowsAffected() > 0 {
				updated++
			}
		}
		if err := br.Close(); err != nil {
			return 0, fmt.Errorf("failed to apply grades: %w", err)
		}
	}

	if exerciseID != nil {
		if _, err := tx.Exec(ctx, course.StampExerciseClosedSQL, *exerciseID, at); err != nil {
			return 0, fmt.Errorf("failed to stamp exercise: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `UPDATE ta_sessions SET status = $2, ended_at = $3 WHERE id = $1`,
		id, string(StatusClosed), at)
	if err != nil {
		return 0, fmt.Errorf("failed to close session: %w", err)
	}

	if deleteAfter {
		log.Debug("deleting closed session", "session_id", id)
		if _, err := tx.Exec(ctx, `DELETE FROM ta_sessions WHERE id = $1`, id); err != nil {
			return 0, fmt.Errorf("failed to delete session: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return updated, nil
}

const submissionCols = `id, session_id, student_id, student_name, answers_json, total_checked_count,
	group_index, score, evidence_requested_at, evidence_received_at, evidence_file,
	evidence_decision, evidence_reviewed_at, version, created_at, updated_at`

func scanSubmission(row pgx.Row) (Submission, error) {
	var (
		sub      Submission
		raw      []byte
		decision string
	)
	err := row.Scan(&sub.ID, &sub.SessionID, &sub.StudentID, &sub.StudentName, &raw,
		&sub.TotalCheckedCount, &sub.GroupIndex, &sub.Score, &sub.EvidenceRequestedAt,
		&sub.EvidenceReceivedAt, &sub.EvidenceFile, &decision, &sub.EvidenceReviewedAt,
		&sub.Version, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return Submission{}, err
	}
	sub.EvidenceDecision = Decision(decision)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &sub.Answers); err != nil {
			return Submission{}, fmt.Errorf("failed to decode answers of submission %d: %w", sub.ID, err)
		}
	}
	return sub, nil
}

func (r *pgSessionRepo) UpsertSubmission(ctx context.Context, sub Submission, expectedVersion *int) (Submission, error) {
	answers := sub.Answers
	if answers == nil {
		answers = []json.RawMessage{}
	}
	raw, err := json.Marshal(answers)
	if err != nil {
		return Submission{}, fmt.Errorf("failed to encode answers: %w", err)
	}
	q := `INSERT INTO ta_session_submissions AS t
			(session_id, student_id, student_name, answers_json, total_checked_count)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_id, student_id) DO UPDATE
		SET student_name = EXCLUDED.student_name,
			answers_json = EXCLUDED.answers_json,
			total_checked_count = EXCLUDED.total_checked_count,
			version = t.version + 1,
			updated_at = NOW()
		WHERE $6::int IS NULL OR t.version = $6::int
		RETURNING ` + submissionCols
	saved, err := one(scanSubmission(r.pool.QueryRow(ctx, q, sub.SessionID, sub.StudentID,
		sub.StudentName, raw, sub.TotalCheckedCount, expectedVersion)))
	if err != nil {
		return Submission{}, fmt.Errorf("failed to upsert submission: %w", err)
	}
	if saved == nil {
		return Submission{}, errVersionMismatch
	}
	return *saved, nil
}

func (r *pgSessionRepo) GetSubmission(ctx context.Context, id int64) (*Submission, error) {
	q := `SELECT ` + submissionCols + ` FROM ta_session_submissions WHERE id = $1`
	sub, err := one(scanSubmission(r.pool.QueryRow(ctx, q, id)))
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return sub, nil
}

func (r *pgSessionRepo) FindSubmission(ctx context.Context, sessionID int64, studentID string) (*Submission, error) {
	q := `SELECT ` + submissionCols + ` FROM ta_session_submissions
		WHERE session_id = $1 AND LOWER(student_id) = LOWER($2)
		ORDER BY id LIMIT 1`
	sub, err := one(scanSubmission(r.pool.QueryRow(ctx, q, sessionID, studentID)))
	if err != nil {
		return nil, fmt.Errorf("failed to find submission: %w", err)
	}
	return sub, nil
}

func (r *pgSessionRepo) ListSubmissions(ctx context.Context, sessionIDs []int64) ([]Submission, error) {
	q := `SELECT ` + submissionCols + ` FROM ta_session_submissions
		WHERE session_id = ANY($1)
		ORDER BY updated_at DESC, created_at DESC, id DESC`
	rows, err := r.pool.Query(ctx, q, sessionIDs)
	subs, err := collect(rows, err, scanSubmission)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return subs, nil
}

func (r *pgSessionRepo) ListSubmissionsByStudent(ctx context.Context, studentID string) ([]Submission, error) {
	q := `SELECT ` + submissionCols + ` FROM ta_session_submissions
		WHERE LOWER(student_id) = LOWER($1)
		ORDER BY updated_at DESC, created_at DESC, id DESC`
	rows, err := r.pool.Query(ctx, q, studentID)
	subs, err := collect(rows, err, scanSubmission)
	if err != nil {
		return nil, fmt.Errorf("failed to list student submissions: %w", err)
	}
	return subs, nil
}

func (r *pgSessionRepo) RequestEvidence(ctx context.Context, id int64, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE ta_session_submissions
		SET evidence_requested_at = $2, updated_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to request evidence: %w", err)
	}
	return nil
}

func (r *pgSessionRepo) ReceiveEvidence(ctx context.Context, id int64, file string, at time.Time, reopen bool) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE ta_session_submissions
		SET evidence_file = $2, evidence_received_at = $3, evidence_decision = '', updated_at = $3
		WHERE id = $1 AND ($4 OR evidence_decision = '')`, id, file, at, reopen)
	if err != nil {
		return false, fmt.Errorf("failed to store evidence: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *pgSessionRepo) DecideEvidence(ctx context.Context, id int64, decision Decision, score *int, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE ta_session_submissions
		SET evidence_decision = $2, evidence_reviewed_at = $3,
			score = COALESCE($4, score), updated_at = $3
		WHERE id = $1 AND evidence_decision = ''`, id, string(decision), at, score)
	if err != nil {
		return false, fmt.Errorf("failed to record decision: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
