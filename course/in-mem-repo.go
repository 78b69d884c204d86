package course

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

type enrollment struct {
	courseID  int64
	studentPK int64
}

type inMemRepo struct {
	mu          sync.RWMutex
	nextID      int64
	courses     map[int64]Course
	enrollments map[enrollment]time.Time
	exercises   map[int64]Exercise
	questions   map[int64]Question
	groupTimes  map[int64]GroupTime
	selections  map[[2]int64]Selection
	assignments []Assignment
}

// NewInMemRepo returns a CourseRepo backed by maps.
func NewInMemRepo() CourseRepo {
	return &inMemRepo{
		courses:     make(map[int64]Course),
		enrollments: make(map[enrollment]time.Time),
		exercises:   make(map[int64]Exercise),
		questions:   make(map[int64]Question),
		groupTimes:  make(map[int64]GroupTime),
		selections:  make(map[[2]int64]Selection),
	}
}

func (r *inMemRepo) newID() int64 {
	r.nextID++
	return r.nextID
}

// now keeps created_at strictly increasing so newest-first ordering is
// deterministic within a test.
func (r *inMemRepo) now() time.Time {
	return time.Now().Add(time.Duration(r.nextID) * time.Microsecond)
}

func newestFirst[T any](createdAt func(T) time.Time, id func(T) int64) func(a, b T) int {
	return func(a, b T) int {
		if c := createdAt(b).Compare(createdAt(a)); c != 0 {
			return c
		}
		return cmp.Compare(id(b), id(a))
	}
}

func (r *inMemRepo) GetCourse(ctx context.Context, id int64) (*Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.courses[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (r *inMemRepo) GetCourses(ctx context.Context, ids []int64) ([]Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Course
	for _, id := range ids {
		if c, ok := r.courses[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *inMemRepo) ListCoursesByTeacher(ctx context.Context, teacherID int64) ([]Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Course
	for _, c := range r.courses {
		if c.TeacherID == teacherID {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, newestFirst(
		func(c Course) time.Time { return c.CreatedAt },
		func(c Course) int64 { return c.ID }))
	return out, nil
}

func byTitle(a, b Course) int {
	if c := strings.Compare(a.Title, b.Title); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func (r *inMemRepo) ListCoursesByStudent(ctx context.Context, studentPK int64) ([]Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Course
	for e := range r.enrollments {
		if e.studentPK == studentPK {
			if c, ok := r.courses[e.courseID]; ok {
				out = append(out, c)
			}
		}
	}
	slices.SortFunc(out, byTitle)
	return out, nil
}

func (r *inMemRepo) CreateCourse(ctx context.Context, c Course) (Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.newID()
	c.CreatedAt = r.now()
	r.courses[c.ID] = c
	return c, nil
}

func (r *inMemRepo) DeleteCourse(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.courses, id)
	for e := range r.enrollments {
		if e.courseID == id {
			delete(r.enrollments, e)
		}
	}
	for exID, ex := range r.exercises {
		if ex.CourseID == id {
			r.deleteExerciseLocked(exID)
		}
	}
	r.assignments = slices.DeleteFunc(r.assignments, func(a Assignment) bool { return a.CourseID == id })
	return nil
}

func (r *inMemRepo) EnrollStudent(ctx context.Context, courseID int64, studentPK int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.courses[courseID]
	if !ok {
		return false, fmt.Errorf("course %d does not exist", courseID)
	}
	key := enrollment{courseID, studentPK}
	if _, ok := r.enrollments[key]; ok {
		return false, nil
	}
	r.enrollments[key] = time.Now()
	c.EnrolledCount++
	r.courses[courseID] = c
	return true, nil
}

func (r *inMemRepo) IsEnrolled(ctx context.Context, courseID int64, studentPK int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.enrollments[enrollment{courseID, studentPK}]
	return ok, nil
}

func (r *inMemRepo) questionsCount(exerciseID int64) int {
	n := 0
	for _, q := range r.questions {
		if q.ExerciseID == exerciseID {
			n++
		}
	}
	return n
}

func (r *inMemRepo) ListExercises(ctx context.Context, courseIDs []int64) ([]Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Exercise
	for _, e := range r.exercises {
		if slices.Contains(courseIDs, e.CourseID) {
			e.QuestionsCount = r.questionsCount(e.ID)
			out = append(out, e)
		}
	}
	slices.SortFunc(out, newestFirst(
		func(e Exercise) time.Time { return e.CreatedAt },
		func(e Exercise) int64 { return e.ID }))
	return out, nil
}

func (r *inMemRepo) GetExercise(ctx context.Context, id int64) (*Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.exercises[id]
	if !ok {
		return nil, nil
	}
	e.QuestionsCount = r.questionsCount(id)
	return &e, nil
}

func (r *inMemRepo) replaceQuestionsLocked(exerciseID int64, questions []Question) {
	for id, q := range r.questions {
		if q.ExerciseID == exerciseID {
			delete(r.questions, id)
		}
	}
	for _, q := range questions {
		q.ID = r.newID()
		q.ExerciseID = exerciseID
		r.questions[q.ID] = q
	}
}

func (r *inMemRepo) CreateExercise(ctx context.Context, e Exercise, questions []Question) (Exercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.courses[e.CourseID]; !ok {
		return Exercise{}, fmt.Errorf("course %d does not exist", e.CourseID)
	}
	e.ID = r.newID()
	e.CreatedAt = r.now()
	r.exercises[e.ID] = e
	r.replaceQuestionsLocked(e.ID, questions)
	e.QuestionsCount = len(questions)
	return e, nil
}

func (r *inMemRepo) UpdateExercise(ctx context.Context, e Exercise, questions []Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.exercises[e.ID]
	if !ok {
		return fmt.Errorf("exercise %d does not exist", e.ID)
	}
	e.CourseID = old.CourseID
	e.CreatedAt = old.CreatedAt
	r.exercises[e.ID] = e
	if questions != nil {
		r.replaceQuestionsLocked(e.ID, questions)
	}
	return nil
}

func (r *inMemRepo) deleteExerciseLocked(id int64) {
	delete(r.exercises, id)
	r.replaceQuestionsLocked(id, nil)
	for gtID, gt := range r.groupTimes {
		if gt.ExerciseID == id {
			delete(r.groupTimes, gtID)
		}
	}
	for k, s := range r.selections {
		if s.ExerciseID == id {
			delete(r.selections, k)
		}
	}
}

func (r *inMemRepo) DeleteExercise(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteExerciseLocked(id)
	return nil
}

func (r *inMemRepo) StampExerciseClosed(ctx context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.exercises[id]
	if !ok {
		return nil
	}
	if e.Deadline == nil || e.Deadline.After(at) {
		e.Deadline = &at
	}
	if e.StartTime == nil {
		e.StartTime = &at
	}
	r.exercises[id] = e
	return nil
}

func (r *inMemRepo) ListQuestions(ctx context.Context, exerciseIDs []int64) ([]Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Question
	for _, q := range r.questions {
		if slices.Contains(exerciseIDs, q.ExerciseID) {
			out = append(out, q)
		}
	}
	slices.SortFunc(out, func(a, b Question) int {
		return cmp.Or(
			cmp.Compare(a.ExerciseID, b.ExerciseID),
			cmp.Compare(a.Order, b.Order),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return out, nil
}

func (r *inMemRepo) ListGroupTimes(ctx context.Context, exerciseIDs []int64) ([]GroupTime, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []GroupTime
	for _, gt := range r.groupTimes {
		if slices.Contains(exerciseIDs, gt.ExerciseID) {
			out = append(out, gt)
		}
	}
	slices.SortFunc(out, func(a, b GroupTime) int {
		return cmp.Or(a.ScheduledAt.Compare(b.ScheduledAt), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (r *inMemRepo) GetGroupTime(ctx context.Context, id int64) (*GroupTime, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if gt, ok := r.groupTimes[id]; ok {
		return &gt, nil
	}
	return nil, nil
}

func (r *inMemRepo) CreateGroupTime(ctx context.Context, gt GroupTime) (GroupTime, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.exercises[gt.ExerciseID]; !ok {
		return GroupTime{}, fmt.Errorf("exercise %d does not exist", gt.ExerciseID)
	}
	gt.ID = r.newID()
	r.groupTimes[gt.ID] = gt
	return gt, nil
}

func (r *inMemRepo) UpsertSelection(ctx context.Context, s Selection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]int64{s.StudentPK, s.ExerciseID}
	if old, ok := r.selections[key]; ok {
		s.SelectedAt = old.SelectedAt
	} else {
		s.SelectedAt = time.Now()
	}
	r.selections[key] = s
	return nil
}

func (r *inMemRepo) ListSelections(ctx context.Context, studentPK int64) ([]Selection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Selection
	for _, s := range r.selections {
		if s.StudentPK == studentPK {
			out = append(out, s)
		}
	}
	slices.SortFunc(out, func(a, b Selection) int { return cmp.Compare(a.ExerciseID, b.ExerciseID) })
	return out, nil
}

func (r *inMemRepo) AssignAssistant(ctx context.Context, courseID int64, assistantID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.assignments {
		if a.CourseID == courseID && a.AssistantID == assistantID {
			return nil
		}
	}
	r.assignments = append(r.assignments, Assignment{
		CourseID:    courseID,
		AssistantID: assistantID,
		AssignedAt:  r.now(),
	})
	return nil
}

func (r *inMemRepo) ListAssignments(ctx context.Context, courseID int64) ([]Assignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Assignment
	for _, a := range r.assignments {
		if a.CourseID == courseID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *inMemRepo) ListAssignedCourses(ctx context.Context, assistantID int64) ([]Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Course
	for _, a := range r.assignments {
		if a.AssistantID == assistantID {
			if c, ok := r.courses[a.CourseID]; ok {
				out = append(out, c)
			}
		}
	}
	slices.SortFunc(out, byTitle)
	return out, nil
}

func (r *inMemRepo) IsAssistantAssigned(ctx context.Context, courseID int64, assistantID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.assignments {
		if a.CourseID == courseID && a.AssistantID == assistantID {
			return true, nil
		}
	}
	return false, nil
}
