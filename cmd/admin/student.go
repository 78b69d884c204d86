package main

import (
	"github.com/programme-lv/classroom/account"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newStudentCmd() *cobra.Command {
	studentCmd := &cobra.Command{
		Use:   "student",
		Short: "Manage student accounts",
	}

	var in account.NewStudent
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create a student who can log in with a password",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := openPool(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			st, err := newAccountSrvc(pool).CreateStudent(cmd.Context(), in)
			if err != nil {
				return err
			}
			log.Info().Int64("id", st.ID).Str("student_id", st.StudentID).Msg("student created")
			return nil
		},
	}
	addCmd.Flags().StringVar(&in.Name, "name", "", "Full name (required)")
	addCmd.Flags().StringVar(&in.Email, "email", "", "Email (required)")
	addCmd.Flags().StringVar(&in.StudentID, "student-id", "", "Student id (required)")
	addCmd.Flags().StringVar(&in.Password, "password", "", "Initial password (required)")
	for _, f := range []string{"name", "email", "student-id", "password"} {
		addCmd.MarkFlagRequired(f)
	}

	studentCmd.AddCommand(addCmd)
	return studentCmd
}
