package account

import (
	"strings"
	"time"
)

// TeacherCode is a pre-provisioned secret that lets a teacher sign up.
type TeacherCode struct {
	ID          int64
	Label       string
	CourseName  string
	SpecialCode string
	CreatedAt   time.Time
}

type Teacher struct {
	ID     int64
	CodeID *int64
	// UserID is the identity provider's user id, empty until signup.
	UserID         string
	UserUID        string
	FirstName      string
	LastName       string
	Title          string
	SpecialCode    string
	Email          string
	Phone          string
	EmailConfirmed bool
	CreatedAt      time.Time
}

func (t Teacher) FullName() string {
	return strings.TrimSpace(strings.Join(nonEmpty(t.Title, t.FirstName, t.LastName), " "))
}

// Assistant is a teaching assistant from the global directory. Course
// assignment lives in the course package.
type Assistant struct {
	ID             int64
	Name           string
	SpecialCode    string
	Email          string
	EmailConfirmed bool
	FirstName      string
	LastName       string
	Title          string
	UserID         string
	CreatedAt      time.Time
}

// Label is the display name: title and names when present, else Name.
func (a Assistant) Label() string {
	if l := strings.Join(nonEmpty(a.Title, a.FirstName, a.LastName), " "); l != "" {
		return l
	}
	return a.Name
}

type Student struct {
	ID           int64
	Name         string
	Email        string
	StudentID    string
	PasswordHash string
	CreatedAt    time.Time
}

// TeacherRef carries the identifying fields a teacher request may hold.
type TeacherRef struct {
	TeacherID      int64
	SupabaseUserID string
	Email          string
}

// AssistantRef carries the identifying fields an assistant request may hold.
type AssistantRef struct {
	AssistantID    int64
	AssistantCode  string
	SupabaseUserID string
	Email          string
}

func nonEmpty(parts ...string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
