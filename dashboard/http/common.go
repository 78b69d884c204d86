package http

import (
	"time"

	"github.com/programme-lv/classroom/account"
	"github.com/programme-lv/classroom/course"
	"github.com/programme-lv/classroom/dashboard"
)

type Exercise struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	CourseID    int64      `json:"course_id"`
	CourseTitle string     `json:"course_title"`
	StartTime   *time.Time `json:"start_time"`
	Deadline    *time.Time `json:"deadline"`
}

func mapExercise(e *dashboard.CourseExercise) *Exercise {
	if e == nil {
		return nil
	}
	return &Exercise{
		ID:          e.ID,
		Title:       e.Title,
		CourseID:    e.CourseID,
		CourseTitle: e.CourseTitle,
		StartTime:   e.StartTime,
		Deadline:    e.Deadline,
	}
}

func mapExercises(es []dashboard.CourseExercise) []Exercise {
	out := make([]Exercise, 0, len(es))
	for i := range es {
		out = append(out, *mapExercise(&es[i]))
	}
	return out
}

type Teacher struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

func mapTeacher(t account.Teacher) Teacher {
	return Teacher{
		ID:        t.ID,
		Title:     t.Title,
		FirstName: t.FirstName,
		LastName:  t.LastName,
		Email:     t.Email,
	}
}

type Course struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	TeacherEmail  string    `json:"teacher_email"`
	EnrolledCount int       `json:"enrolled_count"`
	CreatedAt     time.Time `json:"created_at"`
}

func mapCourses(cs []dashboard.StudentCourse) []Course {
	out := make([]Course, 0, len(cs))
	for _, c := range cs {
		out = append(out, Course{
			ID:            c.ID,
			Title:         c.Title,
			Description:   c.Description,
			TeacherEmail:  c.TeacherEmail,
			EnrolledCount: c.EnrolledCount,
			CreatedAt:     c.CreatedAt,
		})
	}
	return out
}

type GroupTime struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

func mapGroupTimes(gts []course.GroupTime) []GroupTime {
	out := make([]GroupTime, 0, len(gts))
	for _, gt := range gts {
		out = append(out, GroupTime{ID: gt.ID, Name: gt.Name, ScheduledAt: gt.ScheduledAt})
	}
	return out
}

type Question struct {
	ID     int64  `json:"id"`
	Text   string `json:"text"`
	Points int    `json:"points"`
	Order  int    `json:"order"`
}

func mapQuestions(qs []course.Question) []Question {
	out := make([]Question, 0, len(qs))
	for _, q := range qs {
		out = append(out, Question{ID: q.ID, Text: q.Text, Points: q.Points, Order: q.Order})
	}
	return out
}
