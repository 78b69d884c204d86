package session

import (
	"net/http"

	"github.com/programme-lv/classroom/srvcerror"
)

const ErrCodeSessionNotFound = "session_not_found"

func newErrSessionNotFound() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeSessionNotFound,
		"Session not found",
	).SetHttpStatusCode(http.StatusNotFound)
}

const ErrCodeSessionNotActive = "session_not_active"

func newErrSessionNotActive() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeSessionNotActive,
		"Session not found or not active",
	).SetHttpStatusCode(http.StatusNotFound)
}

const ErrCodeSubmissionNotFound = "submission_not_found"

func newErrSubmissionNotFound() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeSubmissionNotFound,
		"Submission not found",
	).SetHttpStatusCode(http.StatusNotFound)
}

const ErrCodeExerciseNotFound = "exercise_not_found"

func newErrExerciseNotFound() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeExerciseNotFound,
		"Exercise not found",
	).SetHttpStatusCode(http.StatusNotFound)
}

const ErrCodeInvalidStudentID = "invalid_student_id"

func newErrInvalidStudentID() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeInvalidStudentID,
		"Invalid student_id",
	).SetHttpStatusCode(http.StatusNotFound)
}

const ErrCodeInvalidMode = "invalid_mode"

func newErrInvalidMode() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeInvalidMode,
		"Invalid mode",
	).SetHttpStatusCode(http.StatusBadRequest)
}

func newErrNotAssigned() *srvcerror.Error {
	return srvcerror.ErrUnauthorized("Unauthorized or course not found")
}

func newErrNotReviewer() *srvcerror.Error {
	return srvcerror.ErrUnauthorized("Unauthorized")
}

const ErrCodeEvidenceNotRequested = "evidence_not_requested"

func newErrEvidenceNotRequested() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeEvidenceNotRequested,
		"Evidence not requested",
	).SetHttpStatusCode(http.StatusBadRequest)
}

const ErrCodeEvidenceNotReceived = "evidence_not_received"

func newErrEvidenceNotReceived() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeEvidenceNotReceived,
		"Evidence not received",
	).SetHttpStatusCode(http.StatusBadRequest)
}

const ErrCodeNewScoreRequired = "new_score_required"

func newErrNewScoreRequired() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeNewScoreRequired,
		"new_score required for decline",
	).SetHttpStatusCode(http.StatusBadRequest)
}

const ErrCodeInvalidScore = "invalid_score"

func newErrInvalidScore() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeInvalidScore,
		"new_score must be an integer",
	).SetHttpStatusCode(http.StatusBadRequest)
}

const ErrCodeDecisionAlreadyMade = "decision_already_made"

func newErrDecisionAlreadyMade() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeDecisionAlreadyMade,
		"Evidence decision already made",
	).SetHttpStatusCode(http.StatusConflict)
}

const ErrCodeConcurrentUpdate = "concurrent_update"

func newErrConcurrentUpdate() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeConcurrentUpdate,
		"Submission was changed by another request",
	).SetHttpStatusCode(http.StatusConflict)
}
