package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/programme-lv/classroom/course"
)

type CourseHttpHandler struct {
	srvc *course.CourseSrvc
}

func NewCourseHttpHandler(srvc *course.CourseSrvc) *CourseHttpHandler {
	return &CourseHttpHandler{srvc: srvc}
}

func (h *CourseHttpHandler) RegisterRoutes(r chi.Router) {
	r.Route("/teachers/api/courses", func(r chi.Router) {
		r.Post("/list/", h.ListCourses)
		r.Post("/create/", h.CreateCourse)
		r.Post("/delete/", h.DeleteCourse)
		r.Post("/enroll/", h.EnrollStudent)
		r.Post("/tas/list/", h.ListCourseAssistants)
		r.Post("/tas/assign/", h.AssignAssistant)
		r.Post("/exercises/create/", h.CreateExercise)
		r.Post("/exercises/list/", h.ListExercises)
		r.Post("/exercises/get/", h.GetExercise)
		r.Post("/exercises/update/", h.UpdateExercise)
		r.Post("/exercises/delete/", h.DeleteExercise)
		r.Post("/exercises/group-times/list/", h.ListGroupTimes)
		r.Post("/exercises/group-times/create/", h.CreateGroupTime)
	})

	r.Post("/students/api/exercise/group-times/", h.StudentGroupTimes)
	r.Post("/students/api/exercise/select-group-time/", h.SelectGroupTime)

	r.Post("/assistants/api/courses-assigned/", h.AssignedCourses)
	r.Post("/assistants/api/exercises/", h.AssistantExercises)
}
