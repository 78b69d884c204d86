package account

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/programme-lv/classroom/logger"
)

const (
	teacherSignupPath      = "/teachers/signup/"
	assistantSignupPath    = "/assistants/signup/"
	teacherDashboardPath   = "/dashboard/teacher/"
	assistantDashboardPath = "/dashboard/assistants/"
)

// SignupResult reports where a registration stands with the identity
// provider.
type SignupResult struct {
	Created          bool
	TeacherID        int64
	TeacherUID       string
	AssistantID      int64
	Email            string
	Confirmed        bool
	EmailConfirmedAt *time.Time
	ConfirmLink      string
	RedirectTo       string
}

type confirmation struct {
	confirmed   bool
	confirmedAt *time.Time
	email       string
	link        string
}

// probeConfirmation asks the identity provider whether userID has confirmed
// its email and prepares a confirmation link if not. Provider failures are
// logged and reported as unconfirmed.
func (s *AccountSrvc) probeConfirmation(ctx context.Context, userID string, redirectTo string) confirmation {
	if userID == "" {
		return confirmation{}
	}
	log := logger.FromContext(ctx)
	user, err := s.idp.GetUserByID(ctx, userID)
	if err != nil {
		log.Warn("identity provider lookup failed", "user_id", userID, "error", err)
		return confirmation{}
	}
	c := confirmation{confirmed: user.Confirmed(), email: user.Email}
	if c.confirmed {
		c.confirmedAt = user.EmailConfirmedAt
		return c
	}
	if user.Email != "" {
		link, err := s.idp.GenerateSignupLink(ctx, user.Email, redirectTo)
		if err != nil {
			log.Warn("failed to generate signup link", "email", user.Email, "error", err)
		}
		c.link = link
	}
	return c
}

type TeacherSignup struct {
	SpecialCode    string
	Email          string
	SupabaseUserID string
	FirstName      string
	LastName       string
	Title          string
	Phone          string
}

// RegisterTeacher claims a teacher code. The teacher row is keyed by email:
// a repeated registration updates the existing row.
func (s *AccountSrvc) RegisterTeacher(ctx context.Context, in TeacherSignup) (SignupResult, error) {
	code, err := s.ValidateTeacherCode(ctx, in.SpecialCode)
	if err != nil {
		return SignupResult{}, err
	}
	email := strings.TrimSpace(in.Email)
	conf := s.probeConfirmation(ctx, in.SupabaseUserID, s.publicBaseURL+teacherSignupPath)

	existing, err := s.repo.GetTeacherByEmail(ctx, email)
	if err != nil {
		return SignupResult{}, fmt.Errorf("failed to get teacher: %w", err)
	}

	var teacher Teacher
	created := existing == nil
	if created {
		uid, err := generateTeacherUID()
		if err != nil {
			return SignupResult{}, err
		}
		teacher, err = s.repo.CreateTeacher(ctx, Teacher{
			CodeID:         &code.ID,
			UserID:         in.SupabaseUserID,
			UserUID:        uid,
			FirstName:      strings.TrimSpace(in.FirstName),
			LastName:       strings.TrimSpace(in.LastName),
			Title:          strings.TrimSpace(in.Title),
			SpecialCode:    code.SpecialCode,
			Email:          email,
			Phone:          strings.TrimSpace(in.Phone),
			EmailConfirmed: conf.confirmed,
		})
		if err != nil {
			return SignupResult{}, fmt.Errorf("failed to create teacher: %w", err)
		}
	} else {
		teacher = *existing
		teacher.CodeID = &code.ID
		teacher.FirstName = firstNonEmpty(in.FirstName, teacher.FirstName)
		teacher.LastName = firstNonEmpty(in.LastName, teacher.LastName)
		teacher.Title = firstNonEmpty(in.Title, teacher.Title)
		teacher.SpecialCode = code.SpecialCode
		teacher.Phone = firstNonEmpty(in.Phone, teacher.Phone)
		teacher.UserID = firstNonEmpty(in.SupabaseUserID, teacher.UserID)
		if conf.confirmed {
			teacher.EmailConfirmed = true
		}
		if err := s.repo.UpdateTeacher(ctx, teacher); err != nil {
			return SignupResult{}, fmt.Errorf("failed to update teacher: %w", err)
		}
	}

	logger.FromContext(ctx).Info("teacher registered",
		"teacher_id", teacher.ID, "created", created, "confirmed", teacher.EmailConfirmed)

	res := SignupResult{
		Created:          created,
		TeacherID:        teacher.ID,
		TeacherUID:       teacher.UserUID,
		Email:            email,
		Confirmed:        teacher.EmailConfirmed,
		EmailConfirmedAt: conf.confirmedAt,
		ConfirmLink:      conf.link,
	}
	if teacher.EmailConfirmed {
		res.RedirectTo = teacherDashboardPath
	}
	return res, nil
}

// ConfirmTeacherSignup syncs the confirmation flag of the teacher holding
// userID with the identity provider.
func (s *AccountSrvc) ConfirmTeacherSignup(ctx context.Context, userID string) (SignupResult, error) {
	conf := s.probeConfirmation(ctx, userID, s.publicBaseURL+teacherSignupPath)

	teacher, err := s.repo.GetTeacherByUserID(ctx, userID)
	if err != nil {
		return SignupResult{}, fmt.Errorf("failed to get teacher: %w", err)
	}
	if teacher != nil {
		teacher.EmailConfirmed = conf.confirmed
		if err := s.repo.UpdateTeacher(ctx, *teacher); err != nil {
			return SignupResult{}, fmt.Errorf("failed to update teacher: %w", err)
		}
	}

	res := SignupResult{
		Email:            conf.email,
		Confirmed:        conf.confirmed,
		EmailConfirmedAt: conf.confirmedAt,
	}
	if teacher != nil {
		res.TeacherID = teacher.ID
	}
	if conf.confirmed {
		res.RedirectTo = teacherDashboardPath
	}
	return res, nil
}

// ResendTeacherConfirmation returns a fresh confirmation link, empty when
// the identity provider could not produce one.
func (s *AccountSrvc) ResendTeacherConfirmation(ctx context.Context, email string) (link string, redirectTo string) {
	return s.resend(ctx, email, s.publicBaseURL+teacherSignupPath)
}

func (s *AccountSrvc) ResendAssistantConfirmation(ctx context.Context, email string) (link string, redirectTo string) {
	return s.resend(ctx, email, s.publicBaseURL+assistantSignupPath)
}

func (s *AccountSrvc) resend(ctx context.Context, email string, redirectTo string) (string, string) {
	link, err := s.idp.GenerateSignupLink(ctx, strings.TrimSpace(email), redirectTo)
	if err != nil {
		logger.FromContext(ctx).Warn("failed to generate signup link", "email", email, "error", err)
		return "", redirectTo
	}
	return link, redirectTo
}

// ValidateAssistantCode reports whether the code exists and whether an
// identity has already claimed it.
func (s *AccountSrvc) ValidateAssistantCode(ctx context.Context, specialCode string) (claimed bool, err error) {
	a, err := s.repo.GetAssistantByCode(ctx, strings.TrimSpace(specialCode))
	if err != nil {
		return false, fmt.Errorf("failed to get assistant: %w", err)
	}
	if a == nil {
		return false, newErrInvalidSpecialCode()
	}
	return a.UserID != "", nil
}

type AssistantSignup struct {
	SpecialCode    string
	Email          string
	SupabaseUserID string
	FirstName      string
	LastName       string
	Title          string
}

// RegisterAssistant claims a pre-provisioned assistant record.
func (s *AccountSrvc) RegisterAssistant(ctx context.Context, in AssistantSignup) (SignupResult, error) {
	a, err := s.repo.GetAssistantByCode(ctx, strings.TrimSpace(in.SpecialCode))
	if err != nil {
		return SignupResult{}, fmt.Errorf("failed to get assistant: %w", err)
	}
	if a == nil {
		return SignupResult{}, newErrInvalidSpecialCode()
	}
	userID := strings.TrimSpace(in.SupabaseUserID)
	if a.UserID != "" && a.UserID != userID {
		return SignupResult{}, newErrCodeAlreadyClaimed()
	}

	conf := s.probeConfirmation(ctx, userID, s.publicBaseURL+assistantSignupPath)

	a.FirstName = strings.TrimSpace(firstNonEmpty(in.FirstName, a.FirstName))
	a.LastName = strings.TrimSpace(firstNonEmpty(in.LastName, a.LastName))
	a.Title = strings.TrimSpace(firstNonEmpty(in.Title, a.Title))
	a.Email = firstNonEmpty(in.Email, a.Email)
	a.UserID = firstNonEmpty(userID, a.UserID)
	a.Name = firstNonEmpty(strings.TrimSpace(a.FirstName+" "+a.LastName), a.Name)
	if conf.confirmed {
		a.EmailConfirmed = true
	}
	if err := s.repo.UpdateAssistant(ctx, *a); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return SignupResult{}, newErrCodeAlreadyClaimed().SetDebug(err)
		}
		return SignupResult{}, fmt.Errorf("failed to update assistant: %w", err)
	}

	logger.FromContext(ctx).Info("assistant registered",
		"assistant_id", a.ID, "confirmed", a.EmailConfirmed)

	res := SignupResult{
		AssistantID:      a.ID,
		Email:            a.Email,
		Confirmed:        a.EmailConfirmed,
		EmailConfirmedAt: conf.confirmedAt,
		ConfirmLink:      conf.link,
	}
	if a.EmailConfirmed {
		res.RedirectTo = assistantDashboardPath
	}
	return res, nil
}

// ConfirmAssistantSignup marks the assistant confirmed once the identity
// provider reports a confirmed email.
func (s *AccountSrvc) ConfirmAssistantSignup(ctx context.Context, userID string) (SignupResult, error) {
	conf := s.probeConfirmation(ctx, userID, s.publicBaseURL+assistantSignupPath)
	res := SignupResult{Email: conf.email, Confirmed: conf.confirmed, EmailConfirmedAt: conf.confirmedAt}
	if !conf.confirmed {
		return res, nil
	}

	a, err := resolveFirst(ctx, AssistantRef{SupabaseUserID: userID, Email: conf.email}, s.assistantLookups())
	if err != nil {
		return SignupResult{}, fmt.Errorf("failed to resolve assistant: %w", err)
	}
	if a != nil {
		a.EmailConfirmed = true
		if err := s.repo.UpdateAssistant(ctx, *a); err != nil {
			return SignupResult{}, fmt.Errorf("failed to update assistant: %w", err)
		}
		res.AssistantID = a.ID
	}
	res.RedirectTo = assistantDashboardPath
	return res, nil
}

const teacherUIDAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func generateTeacherUID() (string, error) {
	b := make([]byte, 8)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(teacherUIDAlphabet))))
		if err != nil {
			return "", fmt.Errorf("failed to generate teacher uid: %w", err)
		}
		b[i] = teacherUIDAlphabet[n.Int64()]
	}
	return "TCHR-" + string(b), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func mapDuplicate(err error, dup error) error {
	if errors.Is(err, ErrDuplicate) {
		return dup
	}
	return fmt.Errorf("unexpected repository error: %w", err)
}
