package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/programme-lv/classroom/logger"
)

type pgAccountRepo struct {
	pool *pgxpool.Pool
}

func NewPgAccountRepo(pool *pgxpool.Pool) AccountRepo {
	return &pgAccountRepo{pool: pool}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// getOne runs a single row query and maps pgx.ErrNoRows to nil, nil.
func getOne[T any](ctx context.Context, pool *pgxpool.Pool, scan func(pgx.Row) (T, error), query string, args ...any) (*T, error) {
	v, err := scan(pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

func getMany[T any](ctx context.Context, pool *pgxpool.Pool, scan func(pgx.Row) (T, error), query string, args ...any) ([]T, error) {
	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (T, error) {
		return scan(row)
	})
}

const teacherCodeCols = `id, label, course_name, special_code, created_at`

func scanTeacherCode(row pgx.Row) (TeacherCode, error) {
	var c TeacherCode
	err := row.Scan(&c.ID, &c.Label, &c.CourseName, &c.SpecialCode, &c.CreatedAt)
	return c, err
}

func (r *pgAccountRepo) GetTeacherCode(ctx context.Context, specialCode string) (*TeacherCode, error) {
	q := `SELECT ` + teacherCodeCols + ` FROM teacher_codes WHERE special_code = $1`
	c, err := getOne(ctx, r.pool, scanTeacherCode, q, specialCode)
	if err != nil {
		return nil, fmt.Errorf("failed to get teacher code: %w", err)
	}
	return c, nil
}

func (r *pgAccountRepo) CreateTeacherCode(ctx context.Context, code TeacherCode) (TeacherCode, error) {
	q := `INSERT INTO teacher_codes (label, course_name, special_code)
		VALUES ($1, $2, $3) RETURNING ` + teacherCodeCols
	c, err := scanTeacherCode(r.pool.QueryRow(ctx, q, code.Label, code.CourseName, code.SpecialCode))
	if err != nil {
		if isUniqueViolation(err) {
			return TeacherCode{}, fmt.Errorf("teacher code %s: %w", code.SpecialCode, ErrDuplicate)
		}
		return TeacherCode{}, fmt.Errorf("failed to insert teacher code: %w", err)
	}
	return c, nil
}

const teacherCols = `id, code_id, COALESCE(user_id, ''), user_uid, first_name, last_name,
	title, special_code, email, phone, email_confirmed, created_at`

func scanTeacher(row pgx.Row) (Teacher, error) {
	var t Teacher
	err := row.Scan(&t.ID, &t.CodeID, &t.UserID, &t.UserUID, &t.FirstName, &t.LastName,
		&t.Title, &t.SpecialCode, &t.Email, &t.Phone, &t.EmailConfirmed, &t.CreatedAt)
	return t, err
}

func (r *pgAccountRepo) GetTeacher(ctx context.Context, id int64) (*Teacher, error) {
	t, err := getOne(ctx, r.pool, scanTeacher, `SELECT `+teacherCols+` FROM teachers WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get teacher: %w", err)
	}
	return t, nil
}

func (r *pgAccountRepo) GetTeacherByUserID(ctx context.Context, userID string) (*Teacher, error) {
	q := `SELECT ` + teacherCols + ` FROM teachers WHERE user_id = $1 ORDER BY id LIMIT 1`
	t, err := getOne(ctx, r.pool, scanTeacher, q, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get teacher by user id: %w", err)
	}
	return t, nil
}

func (r *pgAccountRepo) GetTeacherByEmail(ctx context.Context, email string) (*Teacher, error) {
	t, err := getOne(ctx, r.pool, scanTeacher, `SELECT `+teacherCols+` FROM teachers WHERE email = $1`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get teacher by email: %w", err)
	}
	return t, nil
}

func (r *pgAccountRepo) GetTeachers(ctx context.Context, ids []int64) ([]Teacher, error) {
	q := `SELECT ` + teacherCols + ` FROM teachers WHERE id = ANY($1) ORDER BY id`
	ts, err := getMany(ctx, r.pool, scanTeacher, q, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get teachers: %w", err)
	}
	return ts, nil
}

func (r *pgAccountRepo) CreateTeacher(ctx context.Context, t Teacher) (Teacher, error) {
	log := logger.FromContext(ctx)
	log.Debug("inserting teacher", "email", t.Email)
	q := `INSERT INTO teachers (
			code_id, user_id, user_uid, first_name, last_name, title,
			special_code, email, phone, email_confirmed
		) VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + teacherCols
	created, err := scanTeacher(r.pool.QueryRow(ctx, q,
		t.CodeID, t.UserID, t.UserUID, t.FirstName, t.LastName, t.Title,
		t.SpecialCode, t.Email, t.Phone, t.EmailConfirmed))
	if err != nil {
		if isUniqueViolation(err) {
			return Teacher{}, fmt.Errorf("teacher %s: %w", t.Email, ErrDuplicate)
		}
		return Teacher{}, fmt.Errorf("failed to insert teacher: %w", err)
	}
	return created, nil
}

func (r *pgAccountRepo) UpdateTeacher(ctx context.Context, t Teacher) error {
	q := `UPDATE teachers SET
			code_id = $2, user_id = NULLIF($3, ''), first_name = $4, last_name = $5,
			title = $6, special_code = $7, phone = $8, email_confirmed = $9
		WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, t.ID, t.CodeID, t.UserID, t.FirstName, t.LastName,
		t.Title, t.SpecialCode, t.Phone, t.EmailConfirmed)
	if err != nil {
		return fmt.Errorf("failed to update teacher: %w", err)
	}
	return nil
}

const assistantCols = `id, name, special_code, COALESCE(email, ''), email_confirmed,
	first_name, last_name, title, COALESCE(user_id, ''), created_at`

func scanAssistant(row pgx.Row) (Assistant, error) {
	var a Assistant
	err := row.Scan(&a.ID, &a.Name, &a.SpecialCode, &a.Email, &a.EmailConfirmed,
		&a.FirstName, &a.LastName, &a.Title, &a.UserID, &a.CreatedAt)
	return a, err
}

func (r *pgAccountRepo) GetAssistant(ctx context.Context, id int64) (*Assistant, error) {
	a, err := getOne(ctx, r.pool, scanAssistant, `SELECT `+assistantCols+` FROM teaching_assistants WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get assistant: %w", err)
	}
	return a, nil
}

func (r *pgAccountRepo) GetAssistantByCode(ctx context.Context, code string) (*Assistant, error) {
	q := `SELECT ` + assistantCols + ` FROM teaching_assistants WHERE special_code = $1`
	a, err := getOne(ctx, r.pool, scanAssistant, q, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get assistant by code: %w", err)
	}
	return a, nil
}

func (r *pgAccountRepo) GetAssistantByUserID(ctx context.Context, userID string) (*Assistant, error) {
	q := `SELECT ` + assistantCols + ` FROM teaching_assistants WHERE user_id = $1 ORDER BY id LIMIT 1`
	a, err := getOne(ctx, r.pool, scanAssistant, q, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assistant by user id: %w", err)
	}
	return a, nil
}

func (r *pgAccountRepo) GetAssistantByEmail(ctx context.Context, email string) (*Assistant, error) {
	q := `SELECT ` + assistantCols + ` FROM teaching_assistants WHERE email = $1`
	a, err := getOne(ctx, r.pool, scanAssistant, q, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get assistant by email: %w", err)
	}
	return a, nil
}

func (r *pgAccountRepo) GetAssistants(ctx context.Context, ids []int64) ([]Assistant, error) {
	q := `SELECT ` + assistantCols + ` FROM teaching_assistants WHERE id = ANY($1) ORDER BY name`
	as, err := getMany(ctx, r.pool, scanAssistant, q, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get assistants: %w", err)
	}
	return as, nil
}

func (r *pgAccountRepo) ListAssistants(ctx context.Context) ([]Assistant, error) {
	q := `SELECT ` + assistantCols + ` FROM teaching_assistants ORDER BY name`
	as, err := getMany(ctx, r.pool, scanAssistant, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list assistants: %w", err)
	}
	return as, nil
}

func (r *pgAccountRepo) CreateAssistant(ctx context.Context, a Assistant) (Assistant, error) {
	log := logger.FromContext(ctx)
	log.Debug("inserting assistant", "special_code", a.SpecialCode)
	q := `INSERT INTO teaching_assistants (
			name, special_code, email, email_confirmed, first_name, last_name, title, user_id
		) VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, NULLIF($8, ''))
		RETURNING ` + assistantCols
	created, err := scanAssistant(r.pool.QueryRow(ctx, q, a.Name, a.SpecialCode, a.Email,
		a.EmailConfirmed, a.FirstName, a.LastName, a.Title, a.UserID))
	if err != nil {
		if isUniqueViolation(err) {
			return Assistant{}, fmt.Errorf("assistant %s: %w", a.SpecialCode, ErrDuplicate)
		}
		return Assistant{}, fmt.Errorf("failed to insert assistant: %w", err)
	}
	return created, nil
}

func (r *pgAccountRepo) UpdateAssistant(ctx context.Context, a Assistant) error {
	q := `UPDATE teaching_assistants SET
			name = $2, email = NULLIF($3, ''), email_confirmed = $4, first_name = $5,
			last_name = $6, title = $7, user_id = NULLIF($8, '')
		WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, a.ID, a.Name, a.Email, a.EmailConfirmed,
		a.FirstName, a.LastName, a.Title, a.UserID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("assistant email %s: %w", a.Email, ErrDuplicate)
		}
		return fmt.Errorf("failed to update assistant: %w", err)
	}
	return nil
}

const studentCols = `id, name, email, student_id, password_hash, created_at`

func scanStudent(row pgx.Row) (Student, error) {
	var s Student
	err := row.Scan(&s.ID, &s.Name, &s.Email, &s.StudentID, &s.PasswordHash, &s.CreatedAt)
	return s, err
}

func (r *pgAccountRepo) GetStudent(ctx context.Context, id int64) (*Student, error) {
	s, err := getOne(ctx, r.pool, scanStudent, `SELECT `+studentCols+` FROM students WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return s, nil
}

func (r *pgAccountRepo) GetStudentByStudentID(ctx context.Context, studentID string) (*Student, error) {
	q := `SELECT ` + studentCols + ` FROM students WHERE LOWER(student_id) = LOWER($1)`
	s, err := getOne(ctx, r.pool, scanStudent, q, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get student by student id: %w", err)
	}
	return s, nil
}

func (r *pgAccountRepo) GetStudentByEmail(ctx context.Context, email string) (*Student, error) {
	q := `SELECT ` + studentCols + ` FROM students WHERE LOWER(email) = LOWER($1) ORDER BY id LIMIT 1`
	s, err := getOne(ctx, r.pool, scanStudent, q, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get student by email: %w", err)
	}
	return s, nil
}

func (r *pgAccountRepo) CreateStudent(ctx context.Context, s Student) (Student, error) {
	q := `INSERT INTO students (name, email, student_id, password_hash)
		VALUES ($1, $2, $3, $4) RETURNING ` + studentCols
	created, err := scanStudent(r.pool.QueryRow(ctx, q, s.Name, s.Email, s.StudentID, s.PasswordHash))
	if err != nil {
		if isUniqueViolation(err) {
			return Student{}, fmt.Errorf("student %s: %w", s.StudentID, ErrDuplicate)
		}
		return Student{}, fmt.Errorf("failed to insert student: %w", err)
	}
	return created, nil
}
