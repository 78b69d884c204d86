package dashboard

import (
	"time"

	"github.com/programme-lv/classroom/course"
)

// CourseExercise is an exercise shown with the title of its course.
type CourseExercise struct {
	course.Exercise
	CourseTitle string
}

// Highlights are the exercises a dashboard calls out. Any of them may be
// nil.
type Highlights struct {
	MostRecent *CourseExercise
	Current    *CourseExercise
	EndingSoon *CourseExercise
}

// pickHighlights finds the newest exercise, the open exercise that started
// last and the earliest upcoming deadline.
func pickHighlights(es []course.Exercise, courseTitles map[int64]string, now time.Time) Highlights {
	var mostRecent, current, endingSoon *course.Exercise
	for i := range es {
		e := &es[i]
		if mostRecent == nil || e.CreatedAt.After(mostRecent.CreatedAt) {
			mostRecent = e
		}
		if e.OpenAt(now) && (current == nil || e.StartTime.After(*current.StartTime)) {
			current = e
		}
		if e.Deadline != nil && e.Deadline.After(now) &&
			(endingSoon == nil || e.Deadline.Before(*endingSoon.Deadline)) {
			endingSoon = e
		}
	}
	wrap := func(e *course.Exercise) *CourseExercise {
		if e == nil {
			return nil
		}
		return &CourseExercise{Exercise: *e, CourseTitle: courseTitles[e.CourseID]}
	}
	return Highlights{
		MostRecent: wrap(mostRecent),
		Current:    wrap(current),
		EndingSoon: wrap(endingSoon),
	}
}
