package http

import (
	"context"
	"fmt"
	"net/http"

	accounthttp "github.com/programme-lv/classroom/account/http"
	"github.com/programme-lv/classroom/httpjson"
	"github.com/programme-lv/classroom/logger"
)

func (h *DashboardHttpHandler) AssistantCounts(w http.ResponseWriter, r *http.Request) {
	type assistant struct {
		ID          int64  `json:"id"`
		Label       string `json:"label"`
		Email       string `json:"email"`
		SpecialCode string `json:"special_code"`
	}
	log := logger.FromContext(r.Context())

	var req accounthttp.AssistantIdentity
	if err := httpjson.DecodeJson(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	ref := req.Ref()
	key := fmt.Sprintf("assistant_counts:%d|%s|%s|%s", ref.AssistantID, ref.AssistantCode, ref.SupabaseUserID, ref.Email)

	v, err := h.cached(r.Context(), key, func(ctx context.Context) (any, error) {
		c, err := h.srvc.AssistantCounts(ctx, ref)
		if err != nil {
			return nil, err
		}
		teachers := make([]Teacher, 0, len(c.Teachers))
		for _, t := range c.Teachers {
			teachers = append(teachers, mapTeacher(t))
		}
		return httpjson.Fields{
			"assistant": assistant{
				ID:          c.Assistant.ID,
				Label:       c.Assistant.Label(),
				Email:       c.Assistant.Email,
				SpecialCode: c.Assistant.SpecialCode,
			},
			"courses_count":        c.CoursesCount,
			"students_total":       c.StudentsTotal,
			"teachers":             teachers,
			"most_recent_exercise": mapExercise(c.MostRecent),
			"current_task":         mapExercise(c.Current),
			"ending_soon_task":     mapExercise(c.EndingSoon),
		}, nil
	})
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, v.(httpjson.Fields))
}

func (h *DashboardHttpHandler) TeacherCounts(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req accounthttp.TeacherIdentity
	if err := httpjson.DecodeJson(r, &req); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	ref := req.Ref()
	key := fmt.Sprintf("teacher_counts:%d|%s|%s", ref.TeacherID, ref.SupabaseUserID, ref.Email)

	v, err := h.cached(r.Context(), key, func(ctx context.Context) (any, error) {
		c, err := h.srvc.TeacherCounts(ctx, ref)
		if err != nil {
			return nil, err
		}
		return httpjson.Fields{
			"teacher":              mapTeacher(c.Teacher),
			"courses_count":        c.CoursesCount,
			"students_total":       c.StudentsTotal,
			"exercises_count":      c.ExercisesCount,
			"active_sessions":      c.ActiveSessions,
			"pending_reviews":      c.PendingReviews,
			"most_recent_exercise": mapExercise(c.MostRecent),
			"current_task":         mapExercise(c.Current),
			"ending_soon_task":     mapExercise(c.EndingSoon),
		}, nil
	})
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, v.(httpjson.Fields))
}
