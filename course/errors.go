package course

import (
	"net/http"

	"github.com/programme-lv/classroom/srvcerror"
)

const ErrCodeCourseNotFound = "course_not_found"

func newErrCourseNotFound() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeCourseNotFound,
		"Course not found",
	).SetHttpStatusCode(http.StatusNotFound)
}

const ErrCodeExerciseNotFound = "exercise_not_found"

func newErrExerciseNotFound() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeExerciseNotFound,
		"Exercise not found",
	).SetHttpStatusCode(http.StatusNotFound)
}

const ErrCodeGroupTimeNotFound = "group_time_not_found"

func newErrGroupTimeNotFound() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeGroupTimeNotFound,
		"Exercise or group time not found",
	).SetHttpStatusCode(http.StatusNotFound)
}

func newErrNotCourseOwner() *srvcerror.Error {
	return srvcerror.ErrUnauthorized("Unauthorized")
}

const ErrCodeNotEnrolled = "not_enrolled"

func newErrNotEnrolled() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeNotEnrolled,
		"Not enrolled for this exercise",
	).SetHttpStatusCode(http.StatusForbidden)
}

const ErrCodeInvalidStudentID = "invalid_student_id"

func newErrInvalidStudentID() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeInvalidStudentID,
		"Invalid student_id",
	).SetHttpStatusCode(http.StatusNotFound)
}

const ErrCodeDeadlineBeforeStart = "deadline_before_start"

func newErrDeadlineBeforeStart() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeDeadlineBeforeStart,
		"deadline must not be before start_time",
	).SetHttpStatusCode(http.StatusBadRequest)
}
