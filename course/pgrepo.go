package course

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/programme-lv/classroom/logger"
)

type pgCourseRepo struct {
	pool *pgxpool.Pool
}

func NewPgCourseRepo(pool *pgxpool.Pool) CourseRepo {
	return &pgCourseRepo{pool: pool}
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

const courseCols = `c.id, c.teacher_id, c.title, c.description, c.enrolled_count, c.created_at`

func scanCourse(row pgx.Row) (Course, error) {
	var c Course
	err := row.Scan(&c.ID, &c.TeacherID, &c.Title, &c.Description, &c.EnrolledCount, &c.CreatedAt)
	return c, err
}

func (r *pgCourseRepo) GetCourse(ctx context.Context, id int64) (*Course, error) {
	q := `SELECT ` + courseCols + ` FROM courses c WHERE c.id = $1`
	c, err := one(scanCourse(r.pool.QueryRow(ctx, q, id)))
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return c, nil
}

func (r *pgCourseRepo) GetCourses(ctx context.Context, ids []int64) ([]Course, error) {
	q := `SELECT ` + courseCols + ` FROM courses c WHERE c.id = ANY($1) ORDER BY c.id`
	rows, err := r.pool.Query(ctx, q, ids)
	cs, err := collect(rows, err, scanCourse)
	if err != nil {
		return nil, fmt.Errorf("failed to get courses: %w", err)
	}
	return cs, nil
}

func (r *pgCourseRepo) ListCoursesByTeacher(ctx context.Context, teacherID int64) ([]Course, error) {
	q := `SELECT ` + courseCols + ` FROM courses c WHERE c.teacher_id = $1
		ORDER BY c.created_at DESC, c.id DESC`
	rows, err := r.pool.Query(ctx, q, teacherID)
	cs, err := collect(rows, err, scanCourse)
	if err != nil {
		return nil, fmt.Errorf("failed to list teacher courses: %w", err)
	}
	return cs, nil
}

func (r *pgCourseRepo) ListCoursesByStudent(ctx context.Context, studentPK int64) ([]Course, error) {
	q := `SELECT ` + courseCols + ` FROM courses c
		JOIN course_students cs ON cs.course_id = c.id
		WHERE cs.student_id = $1
		ORDER BY c.title, c.id`
	rows, err := r.pool.Query(ctx, q, studentPK)
	cs, err := collect(rows, err, scanCourse)
	if err != nil {
		return nil, fmt.Errorf("failed to list student courses: %w", err)
	}
	return cs, nil
}

func (r *pgCourseRepo) CreateCourse(ctx context.Context, c Course) (Course, error) {
	q := `INSERT INTO courses AS c (teacher_id, title, description)
		VALUES ($1, $2, $3) RETURNING ` + courseCols
	created, err := scanCourse(r.pool.QueryRow(ctx, q, c.TeacherID, c.Title, c.Description))
	if err != nil {
		return Course{}, fmt.Errorf("failed to insert course: %w", err)
	}
	return created, nil
}

func (r *pgCourseRepo) DeleteCourse(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}
	return nil
}

func (r *pgCourseRepo) EnrollStudent(ctx context.Context, courseID int64, studentPK int64) (bool, error) {
	log := logger.FromContext(ctx)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `INSERT INTO course_students (course_id, student_id)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`, courseID, studentPK)
	if err != nil {
		return false, fmt.Errorf("failed to insert enrollment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		log.Debug("student already enrolled", "course_id", courseID, "student_pk", studentPK)
		return false, nil
	}

	_, err = tx.Exec(ctx, `UPDATE courses SET enrolled_count = enrolled_count + 1 WHERE id = $1`, courseID)
	if err != nil {
		return false, fmt.Errorf("failed to bump enrolled count: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

func (r *pgCourseRepo) IsEnrolled(ctx context.Context, courseID int64, studentPK int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM course_students WHERE course_id = $1 AND student_id = $2)`,
		courseID, studentPK).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check enrollment: %w", err)
	}
	return exists, nil
}

const exerciseCols = `e.id, e.course_id, e.title, e.details, e.total_points, e.start_time, e.deadline, e.created_at,
	(SELECT COUNT(*) FROM exercise_questions q WHERE q.exercise_id = e.id)`

func scanExercise(row pgx.Row) (Exercise, error) {
	var e Exercise
	err := row.Scan(&e.ID, &e.CourseID, &e.Title, &e.Details, &e.TotalPoints,
		&e.StartTime, &e.Deadline, &e.CreatedAt, &e.QuestionsCount)
	return e, err
}

func (r *pgCourseRepo) ListExercises(ctx context.Context, courseIDs []int64) ([]Exercise, error) {
	q := `SELECT ` + exerciseCols + ` FROM exercises e WHERE e.course_id = ANY($1)
		ORDER BY e.created_at DESC, e.id DESC`
	rows, err := r.pool.Query(ctx, q, courseIDs)
	es, err := collect(rows, err, scanExercise)
	if err != nil {
		return nil, fmt.Errorf("failed to list exercises: %w", err)
	}
	return es, nil
}

func (r *pgCourseRepo) GetExercise(ctx context.Context, id int64) (*Exercise, error) {
	q := `SELECT ` + exerciseCols + ` FROM exercises e WHERE e.id = $1`
	e, err := one(scanExercise(r.pool.QueryRow(ctx, q, id)))
	if err != nil {
		return nil, fmt.Errorf("failed to get exercise: %w", err)
	}
	return e, nil
}

func insertQuestions(ctx context.Context, tx pgx.Tx, exerciseID int64, questions []Question) error {
	if len(questions) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(questions))
	for _, q := range questions {
		rows = append(rows, []any{exerciseID, q.Text, q.Points, q.Order})
	}
	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"exercise_questions"},
		[]string{"exercise_id", "question_text", "points", "order"},
		pgx.CopyFromRows(rows))
	return err
}

func (r *pgCourseRepo) CreateExercise(ctx context.Context, e Exercise, questions []Question) (Exercise, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Exercise{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `INSERT INTO exercises (course_id, title, details, total_points, start_time, deadline)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`,
		e.CourseID, e.Title, e.Details, e.TotalPoints, e.StartTime, e.Deadline,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return Exercise{}, fmt.Errorf("failed to insert exercise: %w", err)
	}
	if err := insertQuestions(ctx, tx, e.ID, questions); err != nil {
		return Exercise{}, fmt.Errorf("failed to insert questions: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Exercise{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	e.QuestionsCount = len(questions)
	return e, nil
}

func (r *pgCourseRepo) UpdateExercise(ctx context.Context, e Exercise, questions []Question) error {
	log := logger.FromContext(ctx)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `UPDATE exercises
		SET title = $2, details = $3, total_points = $4, start_time = $5, deadline = $6
		WHERE id = $1`,
		e.ID, e.Title, e.Details, e.TotalPoints, e.StartTime, e.Deadline)
	if err != nil {
		return fmt.Errorf("failed to update exercise: %w", err)
	}

	if questions != nil {
		log.Debug("replacing exercise questions", "exercise_id", e.ID, "count", len(questions))
		if _, err := tx.Exec(ctx, `DELETE FROM exercise_questions WHERE exercise_id = $1`, e.ID); err != nil {
			return fmt.Errorf("failed to delete questions: %w", err)
		}
		if err := insertQuestions(ctx, tx, e.ID, questions); err != nil {
			return fmt.Errorf("failed to insert questions: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *pgCourseRepo) DeleteExercise(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM exercises WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete exercise: %w", err)
	}
	return nil
}

// StampExerciseClosedSQL is shared with the session repository, which runs
// it inside its close transaction.
const StampExerciseClosedSQL = `UPDATE exercises
	SET deadline = CASE WHEN deadline IS NULL OR deadline > $2 THEN $2 ELSE deadline END,
		start_time = COALESCE(start_time, $2)
	WHERE id = $1`

func (r *pgCourseRepo) StampExerciseClosed(ctx context.Context, id int64, at time.Time) error {
	if _, err := r.pool.Exec(ctx, StampExerciseClosedSQL, id, at); err != nil {
		return fmt.Errorf("failed to stamp exercise: %w", err)
	}
	return nil
}

func scanQuestion(row pgx.Row) (Question, error) {
	var q Question
	err := row.Scan(&q.ID, &q.ExerciseID, &q.Text, &q.Points, &q.Order)
	return q, err
}

func (r *pgCourseRepo) ListQuestions(ctx context.Context, exerciseIDs []int64) ([]Question, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, exercise_id, question_text, points, "order"
		FROM exercise_questions WHERE exercise_id = ANY($1)
		ORDER BY exercise_id, "order", id`, exerciseIDs)
	qs, err := collect(rows, err, scanQuestion)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return qs, nil
}

func scanGroupTime(row pgx.Row) (GroupTime, error) {
	var gt GroupTime
	err := row.Scan(&gt.ID, &gt.ExerciseID, &gt.Name, &gt.ScheduledAt)
	return gt, err
}

func (r *pgCourseRepo) ListGroupTimes(ctx context.Context, exerciseIDs []int64) ([]GroupTime, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, exercise_id, name, scheduled_at
		FROM exercise_group_times WHERE exercise_id = ANY($1)
		ORDER BY scheduled_at, id`, exerciseIDs)
	gts, err := collect(rows, err, scanGroupTime)
	if err != nil {
		return nil, fmt.Errorf("failed to list group times: %w", err)
	}
	return gts, nil
}

func (r *pgCourseRepo) GetGroupTime(ctx context.Context, id int64) (*GroupTime, error) {
	gt, err := one(scanGroupTime(r.pool.QueryRow(ctx, `SELECT id, exercise_id, name, scheduled_at
		FROM exercise_group_times WHERE id = $1`, id)))
	if err != nil {
		return nil, fmt.Errorf("failed to get group time: %w", err)
	}
	return gt, nil
}

func (r *pgCourseRepo) CreateGroupTime(ctx context.Context, gt GroupTime) (GroupTime, error) {
	created, err := scanGroupTime(r.pool.QueryRow(ctx, `INSERT INTO exercise_group_times
		(exercise_id, name, scheduled_at) VALUES ($1, $2, $3)
		RETURNING id, exercise_id, name, scheduled_at`, gt.ExerciseID, gt.Name, gt.ScheduledAt))
	if err != nil {
		return GroupTime{}, fmt.Errorf("failed to insert group time: %w", err)
	}
	return created, nil
}

func (r *pgCourseRepo) UpsertSelection(ctx context.Context, s Selection) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO student_group_selections (student_id, exercise_id, group_time_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (student_id, exercise_id) DO UPDATE SET group_time_id = EXCLUDED.group_time_id`,
		s.StudentPK, s.ExerciseID, s.GroupTimeID)
	if err != nil {
		return fmt.Errorf("failed to upsert selection: %w", err)
	}
	return nil
}

func (r *pgCourseRepo) ListSelections(ctx context.Context, studentPK int64) ([]Selection, error) {
	rows, err := r.pool.Query(ctx, `SELECT student_id, exercise_id, group_time_id, selected_at
		FROM student_group_selections WHERE student_id = $1 ORDER BY exercise_id`, studentPK)
	ss, err := collect(rows, err, func(row pgx.Row) (Selection, error) {
		var s Selection
		err := row.Scan(&s.StudentPK, &s.ExerciseID, &s.GroupTimeID, &s.SelectedAt)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list selections: %w", err)
	}
	return ss, nil
}

func (r *pgCourseRepo) AssignAssistant(ctx context.Context, courseID int64, assistantID int64) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO course_assistants (course_id, assistant_id)
		VALUES ($1, $2) ON CONFLICT (course_id, assistant_id) DO NOTHING`, courseID, assistantID)
	if err != nil {
		return fmt.Errorf("failed to assign assistant: %w", err)
	}
	return nil
}

func (r *pgCourseRepo) ListAssignments(ctx context.Context, courseID int64) ([]Assignment, error) {
	rows, err := r.pool.Query(ctx, `SELECT course_id, assistant_id, assigned_at
		FROM course_assistants WHERE course_id = $1 ORDER BY assigned_at, id`, courseID)
	as, err := collect(rows, err, func(row pgx.Row) (Assignment, error) {
		var a Assignment
		err := row.Scan(&a.CourseID, &a.AssistantID, &a.AssignedAt)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return as, nil
}

func (r *pgCourseRepo) ListAssignedCourses(ctx context.Context, assistantID int64) ([]Course, error) {
	q := `SELECT ` + courseCols + ` FROM courses c
		JOIN course_assistants ca ON ca.course_id = c.id
		WHERE ca.assistant_id = $1
		ORDER BY c.title, c.id`
	rows, err := r.pool.Query(ctx, q, assistantID)
	cs, err := collect(rows, err, scanCourse)
	if err != nil {
		return nil, fmt.Errorf("failed to list assigned courses: %w", err)
	}
	return cs, nil
}

func (r *pgCourseRepo) IsAssistantAssigned(ctx context.Context, courseID int64, assistantID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM course_assistants WHERE course_id = $1 AND assistant_id = $2)`,
		courseID, assistantID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check assignment: %w", err)
	}
	return exists, nil
}
