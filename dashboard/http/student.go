package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/programme-lv/classroom/auth"
	"github.com/programme-lv/classroom/dashboard"
	"github.com/programme-lv/classroom/httpjson"
	"github.com/programme-lv/classroom/logger"
)

func (h *DashboardHttpHandler) StudentSummary(w http.ResponseWriter, r *http.Request) {
	type evidenceRequest struct {
		SubmissionID  int64      `json:"submission_id"`
		SessionSlug   string     `json:"session_slug"`
		CourseTitle   string     `json:"course_title"`
		ExerciseTitle string     `json:"exercise_title"`
		RequestedAt   *time.Time `json:"requested_at"`
	}
	log := logger.FromContext(r.Context())

	claims, err := auth.StudentFromContext(r.Context())
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	key := fmt.Sprintf("student_summary:%d", claims.StudentPK())

	v, err := h.cached(r.Context(), key, func(ctx context.Context) (any, error) {
		s, err := h.srvc.StudentSummary(ctx, claims.StudentPK())
		if err != nil {
			return nil, err
		}
		reqs := make([]evidenceRequest, 0, len(s.EvidenceRequests))
		for _, er := range s.EvidenceRequests {
			reqs = append(reqs, evidenceRequest{
				SubmissionID:  er.Submission.ID,
				SessionSlug:   er.Submission.Session.Slug,
				CourseTitle:   er.CourseTitle,
				ExerciseTitle: er.ExerciseTitle,
				RequestedAt:   er.Submission.EvidenceRequestedAt,
			})
		}
		return httpjson.Fields{
			"courses":                    mapCourses(s.Courses),
			"exercises_uncompleted":      mapExercises(s.Uncompleted),
			"exercises_no_time_selected": mapExercises(s.NoTimeSelected),
			"evidence_requests":          reqs,
		}, nil
	})
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, v.(httpjson.Fields))
}

type studentExercise struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Details     string     `json:"details"`
	TotalPoints int        `json:"total_points"`
	StartTime   *time.Time `json:"start_time"`
	Deadline    *time.Time `json:"deadline"`
	CreatedAt   time.Time  `json:"created_at"`
	Course      struct {
		ID          int64  `json:"id"`
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"course"`
	Questions           []Question  `json:"questions"`
	GroupTimes          []GroupTime `json:"group_times"`
	SelectedGroupTimeID *int64      `json:"selected_group_time_id"`
}

func mapStudentExercise(e dashboard.StudentExercise) studentExercise {
	out := studentExercise{
		ID:                  e.ID,
		Title:               e.Title,
		Details:             e.Details,
		TotalPoints:         e.TotalPoints,
		StartTime:           e.StartTime,
		Deadline:            e.Deadline,
		CreatedAt:           e.CreatedAt,
		Questions:           mapQuestions(e.Questions),
		GroupTimes:          mapGroupTimes(e.GroupTimes),
		SelectedGroupTimeID: e.SelectedGroupTimeID,
	}
	out.Course.ID = e.Course.ID
	out.Course.Title = e.Course.Title
	out.Course.Description = e.Course.Description
	return out
}

func mapStudentExercises(es []dashboard.StudentExercise) []studentExercise {
	out := make([]studentExercise, 0, len(es))
	for _, e := range es {
		out = append(out, mapStudentExercise(e))
	}
	return out
}

type signUp struct {
	ExerciseID    int64  `json:"exercise_id"`
	ExerciseTitle string `json:"exercise_title"`
	CourseTitle   string `json:"course_title"`
	GroupTime     struct {
		ID          int64      `json:"id"`
		Name        *string    `json:"name"`
		ScheduledAt *time.Time `json:"scheduled_at"`
	} `json:"group_time"`
}

func mapSignUp(su dashboard.SignUp) signUp {
	out := signUp{
		ExerciseID:    su.Exercise.ID,
		ExerciseTitle: su.Exercise.Title,
		CourseTitle:   su.Exercise.Course.Title,
	}
	out.GroupTime.ID = su.GroupTimeID
	if gt := su.GroupTime; gt != nil {
		out.GroupTime.Name = &gt.Name
		out.GroupTime.ScheduledAt = &gt.ScheduledAt
	}
	return out
}

type attendedSession struct {
	ID     int64  `json:"id"`
	Slug   string `json:"slug"`
	Course struct {
		ID    int64  `json:"id"`
		Title string `json:"title"`
	} `json:"course"`
	Exercise struct {
		ID          *int64  `json:"id"`
		Title       *string `json:"title"`
		TotalPoints *int    `json:"total_points"`
	} `json:"exercise"`
	AssistantName       string            `json:"assistant_name"`
	Answers             []json.RawMessage `json:"answers"`
	TotalCheckedCount   int               `json:"total_checked_count"`
	Score               *int              `json:"score"`
	GroupIndex          *int              `json:"group_index"`
	SubmittedAt         time.Time         `json:"submitted_at"`
	EvidenceRequestedAt *time.Time        `json:"evidence_requested_at"`
	EvidenceReceivedAt  *time.Time        `json:"evidence_received_at"`
	EvidenceDecision    string            `json:"evidence_decision"`
}

func mapAttended(a dashboard.AttendedSession) attendedSession {
	out := attendedSession{
		ID:                  a.ID,
		Slug:                a.Session.Slug,
		AssistantName:       a.AssistantName,
		Answers:             a.Answers,
		TotalCheckedCount:   a.TotalCheckedCount,
		Score:               a.Score,
		GroupIndex:          a.GroupIndex,
		SubmittedAt:         a.UpdatedAt,
		EvidenceRequestedAt: a.EvidenceRequestedAt,
		EvidenceReceivedAt:  a.EvidenceReceivedAt,
		EvidenceDecision:    string(a.EvidenceDecision),
	}
	out.Course.ID = a.Session.CourseID
	if a.Course != nil {
		out.Course.Title = a.Course.Title
	}
	if e := a.Exercise; e != nil {
		out.Exercise.ID = &e.ID
		out.Exercise.Title = &e.Title
		out.Exercise.TotalPoints = &e.TotalPoints
	}
	if out.Answers == nil {
		out.Answers = []json.RawMessage{}
	}
	return out
}

func (h *DashboardHttpHandler) StudentExercises(w http.ResponseWriter, r *http.Request) {
	type student struct {
		ID        int64  `json:"id"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		StudentID string `json:"student_id"`
	}
	type stats struct {
		CoursesCount          int      `json:"courses_count"`
		ExercisesCount        int      `json:"exercises_count"`
		SignedUpCount         int      `json:"signed_up_count"`
		NotSignedUpCount      int      `json:"not_signed_up_count"`
		SessionsAttendedCount int      `json:"sessions_attended_count"`
		AvgScore              *float64 `json:"avg_score"`
	}
	log := logger.FromContext(r.Context())

	claims, err := auth.StudentFromContext(r.Context())
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	key := fmt.Sprintf("student_exercises:%d", claims.StudentPK())

	v, err := h.cached(r.Context(), key, func(ctx context.Context) (any, error) {
		s, err := h.srvc.StudentExercises(ctx, claims.StudentPK())
		if err != nil {
			return nil, err
		}
		signedUp := make([]signUp, 0, len(s.SignedUp))
		for _, su := range s.SignedUp {
			signedUp = append(signedUp, mapSignUp(su))
		}
		attended := make([]attendedSession, 0, len(s.SessionsAttended))
		for _, a := range s.SessionsAttended {
			attended = append(attended, mapAttended(a))
		}
		return httpjson.Fields{
			"student": student{
				ID:        s.Student.ID,
				Name:      s.Student.Name,
				Email:     s.Student.Email,
				StudentID: s.Student.StudentID,
			},
			"stats":             stats(s.Stats),
			"courses":           mapCourses(s.Courses),
			"exercises":         mapStudentExercises(s.Exercises),
			"signed_up":         signedUp,
			"not_signed_up":     mapStudentExercises(s.NotSignedUp),
			"sessions_attended": attended,
		}, nil
	})
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, v.(httpjson.Fields))
}
