package course

import (
	"context"
	"fmt"
)

func (s *CourseSrvc) ListStudentCourses(ctx context.Context, studentPK int64) ([]Course, error) {
	cs, err := s.repo.ListCoursesByStudent(ctx, studentPK)
	if err != nil {
		return nil, fmt.Errorf("failed to list student courses: %w", err)
	}
	return cs, nil
}

// ListSelections maps exercise id to the selected group time id.
func (s *CourseSrvc) ListSelections(ctx context.Context, studentPK int64) (map[int64]int64, error) {
	ss, err := s.repo.ListSelections(ctx, studentPK)
	if err != nil {
		return nil, fmt.Errorf("failed to list selections: %w", err)
	}
	out := make(map[int64]int64, len(ss))
	for _, sel := range ss {
		out[sel.ExerciseID] = sel.GroupTimeID
	}
	return out, nil
}

func (s *CourseSrvc) enrolledExercise(ctx context.Context, studentPK int64, exerciseID int64) (*Exercise, error) {
	e, err := s.GetExercise(ctx, exerciseID)
	if err != nil {
		return nil, err
	}
	enrolled, err := s.repo.IsEnrolled(ctx, e.CourseID, studentPK)
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if !enrolled {
		return nil, newErrNotEnrolled()
	}
	return e, nil
}

// StudentGroupTimes lists the time slots of an exercise in one of the
// student's courses together with the student's current pick, if any.
func (s *CourseSrvc) StudentGroupTimes(ctx context.Context, studentPK int64, exerciseID int64) ([]GroupTime, *int64, error) {
	e, err := s.enrolledExercise(ctx, studentPK, exerciseID)
	if err != nil {
		return nil, nil, err
	}
	gts, err := s.ListGroupTimes(ctx, []int64{e.ID})
	if err != nil {
		return nil, nil, err
	}
	sels, err := s.ListSelections(ctx, studentPK)
	if err != nil {
		return nil, nil, err
	}
	var selected *int64
	if id, ok := sels[e.ID]; ok {
		selected = &id
	}
	return gts[e.ID], selected, nil
}

// SelectGroupTime records the student's slot for an exercise, replacing
// an earlier pick.
func (s *CourseSrvc) SelectGroupTime(ctx context.Context, studentPK int64, exerciseID int64, groupTimeID int64) (int64, error) {
	e, err := s.repo.GetExercise(ctx, exerciseID)
	if err != nil {
		return 0, fmt.Errorf("failed to get exercise: %w", err)
	}
	gt, err := s.repo.GetGroupTime(ctx, groupTimeID)
	if err != nil {
		return 0, fmt.Errorf("failed to get group time: %w", err)
	}
	if e == nil || gt == nil || gt.ExerciseID != e.ID {
		return 0, newErrGroupTimeNotFound()
	}
	if _, err := s.enrolledExercise(ctx, studentPK, exerciseID); err != nil {
		return 0, err
	}
	err = s.repo.UpsertSelection(ctx, Selection{
		StudentPK:   studentPK,
		ExerciseID:  e.ID,
		GroupTimeID: gt.ID,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to select group time: %w", err)
	}
	return gt.ID, nil
}
