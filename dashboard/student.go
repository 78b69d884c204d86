package dashboard

import (
	"context"
	"slices"

	"github.com/programme-lv/classroom/account"
	"github.com/programme-lv/classroom/course"
	"github.com/programme-lv/classroom/session"
	"golang.org/x/sync/errgroup"
)

type StudentCourse struct {
	course.Course
	TeacherEmail string
}

// studentData is what every student page reads.
type studentData struct {
	student    *account.Student
	courses    []StudentCourse
	exercises  []course.Exercise
	selections map[int64]int64
	subs       []session.StudentSubmission
}

func (s *DashboardSrvc) loadStudent(ctx context.Context, studentPK int64) (*studentData, error) {
	st, err := s.accounts.GetStudent(ctx, studentPK)
	if err != nil {
		return nil, err
	}
	cs, err := s.courses.ListStudentCourses(ctx, st.ID)
	if err != nil {
		return nil, err
	}

	d := &studentData{student: st}
	var teachers []account.Teacher
	teacherIDs := make([]int64, 0, len(cs))
	for _, c := range cs {
		teacherIDs = append(teacherIDs, c.TeacherID)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		d.exercises, err = s.courses.ListExercises(gctx, courseIDs(cs))
		return err
	})
	g.Go(func() error {
		var err error
		d.selections, err = s.courses.ListSelections(gctx, st.ID)
		return err
	})
	g.Go(func() error {
		var err error
		d.subs, err = s.sessions.ListStudentSubmissions(gctx, st.StudentID)
		return err
	})
	g.Go(func() error {
		var err error
		teachers, err = s.accounts.GetTeachers(gctx, teacherIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	emails := make(map[int64]string, len(teachers))
	for _, t := range teachers {
		emails[t.ID] = t.Email
	}
	d.courses = make([]StudentCourse, 0, len(cs))
	for _, c := range cs {
		d.courses = append(d.courses, StudentCourse{Course: c, TeacherEmail: emails[c.TeacherID]})
	}
	return d, nil
}

func (d *studentData) courseTitles() map[int64]string {
	out := make(map[int64]string, len(d.courses))
	for _, c := range d.courses {
		out[c.ID] = c.Title
	}
	return out
}

// EvidenceRequest is an outstanding request to upload evidence.
type EvidenceRequest struct {
	Submission    session.StudentSubmission
	CourseTitle   string
	ExerciseTitle string
}

type StudentSummary struct {
	Courses []StudentCourse
	// Uncompleted exercises have no submission from the student in any of
	// their sessions.
	Uncompleted    []CourseExercise
	NoTimeSelected []CourseExercise
	// EvidenceRequests are requested but not yet uploaded, newest first.
	EvidenceRequests []EvidenceRequest
}

func (s *DashboardSrvc) StudentSummary(ctx context.Context, studentPK int64) (*StudentSummary, error) {
	d, err := s.loadStudent(ctx, studentPK)
	if err != nil {
		return nil, err
	}
	titles := d.courseTitles()

	submitted := make(map[int64]bool)
	for _, sub := range d.subs {
		if sub.Session.ExerciseID != nil {
			submitted[*sub.Session.ExerciseID] = true
		}
	}

	out := &StudentSummary{
		Courses:          d.courses,
		Uncompleted:      []CourseExercise{},
		NoTimeSelected:   []CourseExercise{},
		EvidenceRequests: []EvidenceRequest{},
	}
	exByID := make(map[int64]course.Exercise, len(d.exercises))
	for _, e := range d.exercises {
		exByID[e.ID] = e
		ce := CourseExercise{Exercise: e, CourseTitle: titles[e.CourseID]}
		if !submitted[e.ID] {
			out.Uncompleted = append(out.Uncompleted, ce)
		}
		if _, ok := d.selections[e.ID]; !ok {
			out.NoTimeSelected = append(out.NoTimeSelected, ce)
		}
	}

	for _, sub := range d.subs {
		if sub.EvidenceRequestedAt == nil || sub.EvidenceReceivedAt != nil {
			continue
		}
		req := EvidenceRequest{Submission: sub, CourseTitle: titles[sub.Session.CourseID]}
		if sub.Session.ExerciseID != nil {
			req.ExerciseTitle = exByID[*sub.Session.ExerciseID].Title
		}
		out.EvidenceRequests = append(out.EvidenceRequests, req)
	}
	slices.SortStableFunc(out.EvidenceRequests, func(a, b EvidenceRequest) int {
		return b.Submission.EvidenceRequestedAt.Compare(*a.Submission.EvidenceRequestedAt)
	})
	return out, nil
}

type StudentExercise struct {
	course.Exercise
	Course              course.Course
	Questions           []course.Question
	GroupTimes          []course.GroupTime
	SelectedGroupTimeID *int64
}

// SignUp is an exercise the student picked a time slot for. GroupTime is
// nil when the slot no longer exists.
type SignUp struct {
	Exercise    StudentExercise
	GroupTimeID int64
	GroupTime   *course.GroupTime
}

type AttendedSession struct {
	session.StudentSubmission
	Course        *course.Course
	Exercise      *course.Exercise
	AssistantName string
}

type StudentStats struct {
	CoursesCount          int
	ExercisesCount        int
	SignedUpCount         int
	NotSignedUpCount      int
	SessionsAttendedCount int
	// AvgScore is the mean over scored sessions, nil without any attended
	// session.
	AvgScore *float64
}

type StudentExercises struct {
	Student          account.Student
	Stats            StudentStats
	Courses          []StudentCourse
	Exercises        []StudentExercise
	SignedUp         []SignUp
	NotSignedUp      []StudentExercise
	SessionsAttended []AttendedSession
}

func (s *DashboardSrvc) StudentExercises(ctx context.Context, studentPK int64) (*StudentExercises, error) {
	d, err := s.loadStudent(ctx, studentPK)
	if err != nil {
		return nil, err
	}

	exIDs := make([]int64, 0, len(d.exercises))
	for _, e := range d.exercises {
		exIDs = append(exIDs, e.ID)
	}
	var sessCourseIDs, assistantIDs []int64
	for _, sub := range d.subs {
		if !slices.Contains(sessCourseIDs, sub.Session.CourseID) {
			sessCourseIDs = append(sessCourseIDs, sub.Session.CourseID)
		}
		if !slices.Contains(assistantIDs, sub.Session.AssistantID) {
			assistantIDs = append(assistantIDs, sub.Session.AssistantID)
		}
	}

	var (
		questions   map[int64][]course.Question
		groupTimes  map[int64][]course.GroupTime
		sessCourses []course.Course
		sessExs     []course.Exercise
		assistants  []account.Assistant
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		questions, err = s.courses.ListQuestions(gctx, exIDs)
		return err
	})
	g.Go(func() error {
		var err error
		groupTimes, err = s.courses.ListGroupTimes(gctx, exIDs)
		return err
	})
	g.Go(func() error {
		var err error
		sessCourses, err = s.courses.GetCourses(gctx, sessCourseIDs)
		return err
	})
	g.Go(func() error {
		var err error
		sessExs, err = s.courses.ListExercises(gctx, sessCourseIDs)
		return err
	})
	g.Go(func() error {
		var err error
		assistants, err = s.accounts.GetAssistants(gctx, assistantIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	coursesByID := make(map[int64]course.Course, len(d.courses))
	for _, c := range d.courses {
		coursesByID[c.ID] = c.Course
	}
	out := &StudentExercises{
		Student:          *d.student,
		Courses:          d.courses,
		Exercises:        make([]StudentExercise, 0, len(d.exercises)),
		SignedUp:         []SignUp{},
		NotSignedUp:      []StudentExercise{},
		SessionsAttended: make([]AttendedSession, 0, len(d.subs)),
	}
	for _, e := range d.exercises {
		se := StudentExercise{
			Exercise:   e,
			Course:     coursesByID[e.CourseID],
			Questions:  questions[e.ID],
			GroupTimes: groupTimes[e.ID],
		}
		gtID, picked := d.selections[e.ID]
		if picked {
			se.SelectedGroupTimeID = &gtID
		}
		out.Exercises = append(out.Exercises, se)
		if !picked {
			out.NotSignedUp = append(out.NotSignedUp, se)
			continue
		}
		su := SignUp{Exercise: se, GroupTimeID: gtID}
		if i := slices.IndexFunc(se.GroupTimes, func(gt course.GroupTime) bool { return gt.ID == gtID }); i >= 0 {
			su.GroupTime = &se.GroupTimes[i]
		}
		out.SignedUp = append(out.SignedUp, su)
	}

	sessCourseByID := byID(sessCourses, courseID)
	sessExByID := byID(sessExs, func(e course.Exercise) int64 { return e.ID })
	assistantByID := byID(assistants, func(a account.Assistant) int64 { return a.ID })
	scored, total := 0, 0
	for _, sub := range d.subs {
		att := AttendedSession{StudentSubmission: sub}
		if c, ok := sessCourseByID[sub.Session.CourseID]; ok {
			att.Course = &c
		}
		if sub.Session.ExerciseID != nil {
			if e, ok := sessExByID[*sub.Session.ExerciseID]; ok {
				att.Exercise = &e
			}
		}
		if a, ok := assistantByID[sub.Session.AssistantID]; ok {
			att.AssistantName = a.Name
		}
		out.SessionsAttended = append(out.SessionsAttended, att)
		if sub.Score != nil {
			scored++
			total += *sub.Score
		}
	}

	out.Stats = StudentStats{
		CoursesCount:          len(out.Courses),
		ExercisesCount:        len(out.Exercises),
		SignedUpCount:         len(out.SignedUp),
		NotSignedUpCount:      len(out.NotSignedUp),
		SessionsAttendedCount: len(out.SessionsAttended),
	}
	if len(out.SessionsAttended) > 0 {
		avg := float64(total) / float64(max(1, scored))
		out.Stats.AvgScore = &avg
	}
	return out, nil
}
