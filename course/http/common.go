package http

import (
	"time"

	"github.com/programme-lv/classroom/account"
	"github.com/programme-lv/classroom/course"
)

type Course struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	EnrolledCount int       `json:"enrolled_count"`
	CreatedAt     time.Time `json:"created_at"`
}

func mapCourse(c course.Course) Course {
	return Course{
		ID:            c.ID,
		Title:         c.Title,
		Description:   c.Description,
		EnrolledCount: c.EnrolledCount,
		CreatedAt:     c.CreatedAt,
	}
}

type Exercise struct {
	ID             int64      `json:"id"`
	CourseID       int64      `json:"course_id"`
	Title          string     `json:"title"`
	Details        string     `json:"details"`
	TotalPoints    int        `json:"total_points"`
	StartTime      *time.Time `json:"start_time"`
	Deadline       *time.Time `json:"deadline"`
	CreatedAt      time.Time  `json:"created_at"`
	QuestionsCount int        `json:"questions_count"`
}

func mapExercise(e course.Exercise) Exercise {
	return Exercise{
		ID:             e.ID,
		CourseID:       e.CourseID,
		Title:          e.Title,
		Details:        e.Details,
		TotalPoints:    e.TotalPoints,
		StartTime:      e.StartTime,
		Deadline:       e.Deadline,
		CreatedAt:      e.CreatedAt,
		QuestionsCount: e.QuestionsCount,
	}
}

func mapExercises(es []course.Exercise) []Exercise {
	out := make([]Exercise, 0, len(es))
	for _, e := range es {
		out = append(out, mapExercise(e))
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

type Teacher struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

func mapTeacher(t *account.Teacher) *Teacher {
	if t == nil {
		return nil
	}
	return &Teacher{
		ID:        t.ID,
		Title:     t.Title,
		FirstName: t.FirstName,
		LastName:  t.LastName,
		Email:     t.Email,
	}
}

type Assistant struct {
	ID          int64  `json:"id"`
	Label       string `json:"label"`
	Email       string `json:"email"`
	SpecialCode string `json:"special_code"`
	Claimed     bool   `json:"claimed"`
}

func mapAssistant(a account.Assistant) Assistant {
	return Assistant{
		ID:          a.ID,
		Label:       a.Label(),
		Email:       a.Email,
		SpecialCode: a.SpecialCode,
		Claimed:     a.UserID != "",
	}
}
