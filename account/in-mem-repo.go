package account

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

type inMemRepo struct {
	mu         sync.RWMutex
	nextID     int64
	codes      map[int64]TeacherCode
	teachers   map[int64]Teacher
	assistants map[int64]Assistant
	students   map[int64]Student
}

// NewInMemRepo returns an AccountRepo backed by maps.
func NewInMemRepo() AccountRepo {
	return &inMemRepo{
		codes:      make(map[int64]TeacherCode),
		teachers:   make(map[int64]Teacher),
		assistants: make(map[int64]Assistant),
		students:   make(map[int64]Student),
	}
}

func (r *inMemRepo) newID() int64 {
	r.nextID++
	return r.nextID
}

func (r *inMemRepo) GetTeacherCode(ctx context.Context, specialCode string) (*TeacherCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.codes {
		if c.SpecialCode == specialCode {
			return &c, nil
		}
	}
	return nil, nil
}

func (r *inMemRepo) CreateTeacherCode(ctx context.Context, code TeacherCode) (TeacherCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.codes {
		if c.SpecialCode == code.SpecialCode {
			return TeacherCode{}, fmt.Errorf("teacher code %s: %w", code.SpecialCode, ErrDuplicate)
		}
	}
	code.ID = r.newID()
	code.CreatedAt = time.Now()
	r.codes[code.ID] = code
	return code, nil
}

func (r *inMemRepo) GetTeacher(ctx context.Context, id int64) (*Teacher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.teachers[id]; ok {
		return &t, nil
	}
	return nil, nil
}

func (r *inMemRepo) findTeacher(match func(Teacher) bool) *Teacher {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.teachers {
		if match(t) {
			return &t
		}
	}
	return nil
}

func (r *inMemRepo) GetTeacherByUserID(ctx context.Context, userID string) (*Teacher, error) {
	return r.findTeacher(func(t Teacher) bool { return t.UserID != "" && t.UserID == userID }), nil
}

func (r *inMemRepo) GetTeacherByEmail(ctx context.Context, email string) (*Teacher, error) {
	return r.findTeacher(func(t Teacher) bool { return t.Email == email }), nil
}

func (r *inMemRepo) GetTeachers(ctx context.Context, ids []int64) ([]Teacher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Teacher
	for _, id := range ids {
		if t, ok := r.teachers[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *inMemRepo) CreateTeacher(ctx context.Context, t Teacher) (Teacher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.teachers {
		if other.Email == t.Email || other.UserUID == t.UserUID {
			return Teacher{}, fmt.Errorf("teacher %s: %w", t.Email, ErrDuplicate)
		}
	}
	t.ID = r.newID()
	t.CreatedAt = time.Now()
	r.teachers[t.ID] = t
	return t, nil
}

func (r *inMemRepo) UpdateTeacher(ctx context.Context, t Teacher) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.teachers[t.ID]; !ok {
		return fmt.Errorf("teacher %d does not exist", t.ID)
	}
	r.teachers[t.ID] = t
	return nil
}

func (r *inMemRepo) GetAssistant(ctx context.Context, id int64) (*Assistant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if a, ok := r.assistants[id]; ok {
		return &a, nil
	}
	return nil, nil
}

func (r *inMemRepo) findAssistant(match func(Assistant) bool) *Assistant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.assistants {
		if match(a) {
			return &a
		}
	}
	return nil
}

func (r *inMemRepo) GetAssistantByCode(ctx context.Context, code string) (*Assistant, error) {
	return r.findAssistant(func(a Assistant) bool { return a.SpecialCode == code }), nil
}

func (r *inMemRepo) GetAssistantByUserID(ctx context.Context, userID string) (*Assistant, error) {
	return r.findAssistant(func(a Assistant) bool { return a.UserID != "" && a.UserID == userID }), nil
}

func (r *inMemRepo) GetAssistantByEmail(ctx context.Context, email string) (*Assistant, error) {
	return r.findAssistant(func(a Assistant) bool { return a.Email != "" && a.Email == email }), nil
}

func (r *inMemRepo) GetAssistants(ctx context.Context, ids []int64) ([]Assistant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Assistant
	for _, id := range ids {
		if a, ok := r.assistants[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *inMemRepo) ListAssistants(ctx context.Context) ([]Assistant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Assistant, 0, len(r.assistants))
	for _, a := range r.assistants {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *inMemRepo) CreateAssistant(ctx context.Context, a Assistant) (Assistant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.assistants {
		if other.SpecialCode == a.SpecialCode || (a.Email != "" && other.Email == a.Email) {
			return Assistant{}, fmt.Errorf("assistant %s: %w", a.SpecialCode, ErrDuplicate)
		}
	}
	a.ID = r.newID()
	a.CreatedAt = time.Now()
	r.assistants[a.ID] = a
	return a, nil
}

func (r *inMemRepo) UpdateAssistant(ctx context.Context, a Assistant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.assistants[a.ID]; !ok {
		return fmt.Errorf("assistant %d does not exist", a.ID)
	}
	for _, other := range r.assistants {
		if other.ID != a.ID && a.Email != "" && other.Email == a.Email {
			return fmt.Errorf("assistant email %s: %w", a.Email, ErrDuplicate)
		}
	}
	r.assistants[a.ID] = a
	return nil
}

func (r *inMemRepo) GetStudent(ctx context.Context, id int64) (*Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.students[id]; ok {
		return &s, nil
	}
	return nil, nil
}

func (r *inMemRepo) findStudent(match func(Student) bool) *Student {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.students {
		if match(s) {
			return &s
		}
	}
	return nil
}

func (r *inMemRepo) GetStudentByStudentID(ctx context.Context, studentID string) (*Student, error) {
	return r.findStudent(func(s Student) bool { return strings.EqualFold(s.StudentID, studentID) }), nil
}

func (r *inMemRepo) GetStudentByEmail(ctx context.Context, email string) (*Student, error) {
	return r.findStudent(func(s Student) bool { return strings.EqualFold(s.Email, email) }), nil
}

func (r *inMemRepo) CreateStudent(ctx context.Context, s Student) (Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.students {
		if strings.EqualFold(other.StudentID, s.StudentID) || strings.EqualFold(other.Email, s.Email) {
			return Student{}, fmt.Errorf("student %s: %w", s.StudentID, ErrDuplicate)
		}
	}
	s.ID = r.newID()
	s.CreatedAt = time.Now()
	r.students[s.ID] = s
	return s, nil
}
