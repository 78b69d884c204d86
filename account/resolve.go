package account

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// lookup pairs a request field with the repository query that resolves it.
type lookup[R any, T any] struct {
	field string
	key   func(R) string
	find  func(ctx context.Context, key string) (*T, error)
}

// resolveFirst tries lookups in order and returns the first match. A field
// that is blank in ref is skipped.
func resolveFirst[R any, T any](ctx context.Context, ref R, lookups []lookup[R, T]) (*T, error) {
	for _, l := range lookups {
		key := strings.TrimSpace(l.key(ref))
		if key == "" {
			continue
		}
		found, err := l.find(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("lookup by %s: %w", l.field, err)
		}
		if found != nil {
			return found, nil
		}
	}
	return nil, nil
}

func idKey(id int64) string {
	if id <= 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

func byID[T any](get func(ctx context.Context, id int64) (*T, error)) func(context.Context, string) (*T, error) {
	return func(ctx context.Context, key string) (*T, error) {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, nil
		}
		return get(ctx, id)
	}
}

func (s *AccountSrvc) assistantLookups() []lookup[AssistantRef, Assistant] {
	return []lookup[AssistantRef, Assistant]{
		{"assistant_id", func(r AssistantRef) string { return idKey(r.AssistantID) }, byID(s.repo.GetAssistant)},
		{"assistant_code", func(r AssistantRef) string { return r.AssistantCode }, s.repo.GetAssistantByCode},
		{"supabase_user_id", func(r AssistantRef) string { return r.SupabaseUserID }, s.repo.GetAssistantByUserID},
		{"email", func(r AssistantRef) string { return r.Email }, s.repo.GetAssistantByEmail},
	}
}

func (s *AccountSrvc) teacherLookups() []lookup[TeacherRef, Teacher] {
	return []lookup[TeacherRef, Teacher]{
		{"teacher_id", func(r TeacherRef) string { return idKey(r.TeacherID) }, byID(s.repo.GetTeacher)},
		{"supabase_user_id", func(r TeacherRef) string { return r.SupabaseUserID }, s.repo.GetTeacherByUserID},
		{"email", func(r TeacherRef) string { return r.Email }, s.repo.GetTeacherByEmail},
	}
}

// ResolveAssistant finds the assistant named by ref, trying id, special
// code, identity provider id and email in that order.
func (s *AccountSrvc) ResolveAssistant(ctx context.Context, ref AssistantRef) (*Assistant, error) {
	a, err := resolveFirst(ctx, ref, s.assistantLookups())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve assistant: %w", err)
	}
	if a == nil {
		return nil, newErrAssistantNotFound()
	}
	return a, nil
}

// ResolveTeacher finds the teacher named by ref, trying id, identity
// provider id and email in that order.
func (s *AccountSrvc) ResolveTeacher(ctx context.Context, ref TeacherRef) (*Teacher, error) {
	t, err := resolveFirst(ctx, ref, s.teacherLookups())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve teacher: %w", err)
	}
	if t == nil {
		return nil, newErrTeacherNotFound()
	}
	return t, nil
}
