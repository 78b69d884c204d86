package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/programme-lv/classroom/account"
	"github.com/programme-lv/classroom/srvcerror"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// seedFile is the TOML layout read by the seed command:
//
//	[[teacher_codes]]
//	label = "Math"
//	course_name = "Math 101"
//	special_code = "MATH-101"
//
//	[[assistants]]
//	name = "Ieva"
//	special_code = "TA-1"
//	email = "ieva@school.lv"
//
//	[[students]]
//	name = "Anna"
//	email = "anna@school.lv"
//	student_id = "S-1"
//	password = "secret"
type seedFile struct {
	TeacherCodes []struct {
		Label       string `toml:"label"`
		CourseName  string `toml:"course_name"`
		SpecialCode string `toml:"special_code"`
	} `toml:"teacher_codes"`
	Assistants []struct {
		Name        string `toml:"name"`
		SpecialCode string `toml:"special_code"`
		Email       string `toml:"email"`
	} `toml:"assistants"`
	Students []struct {
		Name      string `toml:"name"`
		Email     string `toml:"email"`
		StudentID string `toml:"student_id"`
		Password  string `toml:"password"`
	} `toml:"students"`
}

func parseSeed(b []byte) (seedFile, error) {
	var s seedFile
	dec := toml.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return seedFile{}, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return s, nil
}

type seeder interface {
	CreateTeacherCode(ctx context.Context, label, courseName, specialCode string) (account.TeacherCode, error)
	CreateAssistant(ctx context.Context, in account.NewAssistant) (account.Assistant, error)
	CreateStudent(ctx context.Context, in account.NewStudent) (account.Student, error)
}

type seedReport struct {
	Created int
	Skipped int
}

// skipExisting counts rows that already exist as skipped and passes every
// other error through.
func (r *seedReport) skipExisting(err error, what string, key string) error {
	if err == nil {
		r.Created++
		return nil
	}
	var srvcErr *srvcerror.Error
	if errors.As(err, &srvcErr) && srvcErr.HttpStatusCode() == 409 {
		log.Warn().Str(what, key).Msg("already exists, skipping")
		r.Skipped++
		return nil
	}
	return fmt.Errorf("failed to seed %s %q: %w", what, key, err)
}

func applySeed(ctx context.Context, accounts seeder, s seedFile) (seedReport, error) {
	var r seedReport
	for _, c := range s.TeacherCodes {
		_, err := accounts.CreateTeacherCode(ctx, c.Label, c.CourseName, c.SpecialCode)
		if err := r.skipExisting(err, "teacher_code", c.SpecialCode); err != nil {
			return r, err
		}
	}
	for _, a := range s.Assistants {
		_, err := accounts.CreateAssistant(ctx, account.NewAssistant{Name: a.Name, SpecialCode: a.SpecialCode, Email: a.Email})
		if err := r.skipExisting(err, "assistant", a.SpecialCode); err != nil {
			return r, err
		}
	}
	for _, st := range s.Students {
		_, err := accounts.CreateStudent(ctx, account.NewStudent{
			Name:      st.Name,
			Email:     st.Email,
			StudentID: st.StudentID,
			Password:  st.Password,
		})
		if err := r.skipExisting(err, "student", st.StudentID); err != nil {
			return r, err
		}
	}
	return r, nil
}

func newSeedCmd() *cobra.Command {
	var file string
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Create teacher codes, assistants and students from a TOML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			s, err := parseSeed(b)
			if err != nil {
				return err
			}
			pool, err := openPool(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			r, err := applySeed(cmd.Context(), newAccountSrvc(pool), s)
			if err != nil {
				return err
			}
			log.Info().Int("created", r.Created).Int("skipped", r.Skipped).Msg("seed applied")
			return nil
		},
	}
	seedCmd.Flags().StringVarP(&file, "file", "f", "", "Seed file path (required)")
	seedCmd.MarkFlagRequired("file")
	return seedCmd
}
