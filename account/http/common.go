package http

import (
	"time"

	"github.com/programme-lv/classroom/account"
	"github.com/programme-lv/classroom/httpjson"
)

type Teacher struct {
	ID             int64  `json:"id"`
	UID            string `json:"uid"`
	Title          string `json:"title"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	SpecialCode    string `json:"special_code"`
	EmailConfirmed bool   `json:"email_confirmed"`
}

func mapTeacher(t *account.Teacher) Teacher {
	return Teacher{
		ID:             t.ID,
		UID:            t.UserUID,
		Title:          t.Title,
		FirstName:      t.FirstName,
		LastName:       t.LastName,
		FullName:       t.FullName(),
		Email:          t.Email,
		Phone:          t.Phone,
		SpecialCode:    t.SpecialCode,
		EmailConfirmed: t.EmailConfirmed,
	}
}

type Assistant struct {
	ID          int64   `json:"id"`
	Label       string  `json:"label"`
	Name        string  `json:"name"`
	Email       *string `json:"email"`
	SpecialCode string  `json:"special_code"`
	Claimed     bool    `json:"claimed"`
	Confirmed   bool    `json:"email_confirmed"`
}

func mapAssistant(a *account.Assistant) Assistant {
	return Assistant{
		ID:          a.ID,
		Label:       a.Label(),
		Name:        a.Name,
		Email:       strOrNil(a.Email),
		SpecialCode: a.SpecialCode,
		Claimed:     a.UserID != "",
		Confirmed:   a.EmailConfirmed,
	}
}

func signupFields(res account.SignupResult) httpjson.Fields {
	return httpjson.Fields{
		"email":              res.Email,
		"confirmed":          res.Confirmed,
		"email_confirmed_at": timeOrNil(res.EmailConfirmedAt),
		"confirm_link":       strOrNil(res.ConfirmLink),
		"redirect_to":        strOrNil(res.RedirectTo),
	}
}

func strOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func timeOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
