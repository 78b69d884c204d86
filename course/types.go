package course

import "time"

type Course struct {
	ID            int64
	TeacherID     int64
	Title         string
	Description   string
	EnrolledCount int
	CreatedAt     time.Time
}

type Exercise struct {
	ID          int64
	CourseID    int64
	Title       string
	Details     string
	TotalPoints int
	StartTime   *time.Time
	Deadline    *time.Time
	CreatedAt   time.Time
	// QuestionsCount is filled by list queries.
	QuestionsCount int
}

// OpenAt reports whether the exercise has started and its deadline, if
// any, has not passed.
func (e Exercise) OpenAt(now time.Time) bool {
	if e.StartTime == nil || e.StartTime.After(now) {
		return false
	}
	return e.Deadline == nil || !e.Deadline.Before(now)
}

type Question struct {
	ID         int64
	ExerciseID int64
	Text       string
	Points     int
	Order      int
}

// GroupTime is a time slot students can sign up for.
type GroupTime struct {
	ID          int64
	ExerciseID  int64
	Name        string
	ScheduledAt time.Time
}

type Selection struct {
	StudentPK   int64
	ExerciseID  int64
	GroupTimeID int64
	SelectedAt  time.Time
}

type Assignment struct {
	CourseID    int64
	AssistantID int64
	AssignedAt  time.Time
}
