package dashboard

import (
	"context"

	"github.com/programme-lv/classroom/account"
	"github.com/programme-lv/classroom/course"
	"github.com/programme-lv/classroom/session"
	"golang.org/x/sync/errgroup"
)

type AssistantCounts struct {
	Assistant     account.Assistant
	CoursesCount  int
	StudentsTotal int
	// Teachers are the distinct owners of the assistant's courses.
	Teachers []account.Teacher
	Highlights
}

func (s *DashboardSrvc) AssistantCounts(ctx context.Context, ref account.AssistantRef) (*AssistantCounts, error) {
	a, err := s.accounts.ResolveAssistant(ctx, ref)
	if err != nil {
		return nil, err
	}
	assigned, err := s.courses.AssignedCourses(ctx, a.ID)
	if err != nil {
		return nil, err
	}

	out := &AssistantCounts{Assistant: *a, CoursesCount: len(assigned), Teachers: []account.Teacher{}}
	seen := make(map[int64]bool)
	titles := make(map[int64]string, len(assigned))
	var exercises []course.Exercise
	for _, ac := range assigned {
		out.StudentsTotal += ac.Course.EnrolledCount
		titles[ac.Course.ID] = ac.Course.Title
		exercises = append(exercises, ac.Exercises...)
		if t := ac.Teacher; t != nil && !seen[t.ID] {
			seen[t.ID] = true
			out.Teachers = append(out.Teachers, *t)
		}
	}
	out.Highlights = pickHighlights(exercises, titles, s.now())
	return out, nil
}

type TeacherCounts struct {
	Teacher        account.Teacher
	CoursesCount   int
	StudentsTotal  int
	ExercisesCount int
	ActiveSessions int
	// PendingReviews counts received evidence without a decision.
	PendingReviews int
	Highlights
}

func (s *DashboardSrvc) TeacherCounts(ctx context.Context, ref account.TeacherRef) (*TeacherCounts, error) {
	t, err := s.accounts.ResolveTeacher(ctx, ref)
	if err != nil {
		return nil, err
	}
	cs, err := s.courses.ListTeacherCourses(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	ids := courseIDs(cs)

	var (
		exercises []course.Exercise
		sessions  []session.Session
		subs      map[int64][]session.Submission
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		exercises, err = s.courses.ListExercises(gctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		sessions, subs, err = s.sessions.ListSessionsByCourses(gctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &TeacherCounts{Teacher: *t, CoursesCount: len(cs), ExercisesCount: len(exercises)}
	titles := make(map[int64]string, len(cs))
	for _, c := range cs {
		out.StudentsTotal += c.EnrolledCount
		titles[c.ID] = c.Title
	}
	for _, sess := range sessions {
		if sess.Status == session.StatusActive {
			out.ActiveSessions++
		}
		for _, sub := range subs[sess.ID] {
			if sub.AwaitingReview() {
				out.PendingReviews++
			}
		}
	}
	out.Highlights = pickHighlights(exercises, titles, s.now())
	return out, nil
}
