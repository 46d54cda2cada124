package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/learnportal/backend/internal/apperrors"
	"github.com/learnportal/backend/internal/lmsclient"
	"github.com/learnportal/backend/internal/models"
	"github.com/spf13/cobra"
)

func (a *app) quizzesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "quizzes <courseId>",
		Short: "List the quizzes of an approved course with your best scores",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			courseID, err := parseID("courseId", args[0])
			if err != nil {
				return err
			}
			if _, err := a.machine.CheckStatus(cmd.Context(), courseID); err != nil {
				return err
			}
			quizzes, err := a.coursework.Quizzes(cmd.Context(), courseID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, q := range quizzes {
				best := "-"
				if q.Score != nil {
					best = fmt.Sprintf("%d%%", *q.Score)
				}
				fmt.Fprintf(out, "%d  %s  (%d questions, pass %d%%, best %s)\n", q.ID, q.Title, q.QuestionCount, q.PassScore, best)
			}
			return nil
		},
	}
}

func (a *app) quizCommand() *cobra.Command {
	var answers map[string]int

	cmd := &cobra.Command{
		Use:   "quiz <courseId> <quizId>",
		Short: "Show a quiz, or take it with --answer questionId=option",
		Long: "Without --answer the questions are printed with numbered options.\n" +
			"With --answer every question must be answered once, options count from 1.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			courseID, err := parseID("courseId", args[0])
			if err != nil {
				return err
			}
			quizID, err := parseID("quizId", args[1])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if _, err := a.machine.CheckStatus(ctx, courseID); err != nil {
				return err
			}
			quiz, err := a.coursework.Quiz(ctx, courseID, quizID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(answers) == 0 {
				fmt.Fprintf(out, "%s\n", quiz.Title)
				for _, q := range quiz.Questions {
					fmt.Fprintf(out, "\n%d. %s\n", q.ID, q.Text)
					for i, opt := range q.Options {
						fmt.Fprintf(out, "   %d) %s\n", i+1, opt)
					}
				}
				return nil
			}

			selected, err := parseAnswers(answers)
			if err != nil {
				return err
			}
			result, err := a.coursework.SubmitQuiz(ctx, quiz, selected)
			if err != nil {
				return err
			}
			verdict := "not passed"
			if result.Passed {
				verdict = "passed"
			}
			fmt.Fprintf(out, "Score: %d%% (%d of %d correct), %s\n", result.Score, result.Correct, result.Total, verdict)
			return nil
		},
	}
	cmd.Flags().StringToIntVar(&answers, "answer", nil, "answer as questionId=option, repeatable")
	return cmd
}

// parseAnswers converts questionId=option flags to zero based options keyed by question ID
func parseAnswers(flags map[string]int) (map[int]int, error) {
	keys := make([]string, 0, len(flags))
	for k := range flags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	answers := make(map[int]int, len(flags))
	for _, k := range keys {
		questionID, err := strconv.Atoi(k)
		if err != nil || questionID <= 0 {
			return nil, apperrors.Clone(apperrors.ErrValidation, fmt.Sprintf("question id must be a positive integer, got %q", k))
		}
		answers[questionID] = flags[k] - 1
	}
	return answers, nil
}

func (a *app) assignmentsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "assignments <courseId>",
		Short: "List the assignments of an approved course with your submissions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			courseID, err := parseID("courseId", args[0])
			if err != nil {
				return err
			}
			if _, err := a.machine.CheckStatus(cmd.Context(), courseID); err != nil {
				return err
			}
			assignments, err := a.coursework.Assignments(cmd.Context(), courseID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, as := range assignments {
				fmt.Fprintf(out, "%d  %s  (max %d)\n", as.ID, as.Title, as.MaxScore)
				if as.DueDate != nil {
					fmt.Fprintf(out, "  due: %s\n", as.DueDate.Format("2006-01-02 15:04"))
				}
				switch s := as.Submission; {
				case s == nil:
					fmt.Fprintln(out, "  not submitted")
				case s.Score != nil:
					fmt.Fprintf(out, "  graded: %d/%d %s\n", *s.Score, as.MaxScore, s.Feedback)
				default:
					fmt.Fprintln(out, "  submitted, waiting for grading")
				}
			}
			return nil
		},
	}
}

func (a *app) submitCommand() *cobra.Command {
	var content, filePath string

	cmd := &cobra.Command{
		Use:   "submit <courseId> <assignmentId>",
		Short: "Hand in an assignment as text, a file, or both",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			courseID, err := parseID("courseId", args[0])
			if err != nil {
				return err
			}
			assignmentID, err := parseID("assignmentId", args[1])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if _, err := a.machine.CheckStatus(ctx, courseID); err != nil {
				return err
			}

			var upload *lmsclient.SubmissionUpload
			if filePath != "" {
				f, err := os.Open(filePath)
				if err != nil {
					return fmt.Errorf("failed to open submission file: %w", err)
				}
				defer f.Close()
				upload = &lmsclient.SubmissionUpload{Filename: filepath.Base(filePath), Content: f}
			}

			submission, err := a.coursework.SubmitAssignment(ctx, courseID, assignmentID, content, upload)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Submitted assignment %d at %s\n", submission.AssignmentID, submission.SubmittedAt.Format("2006-01-02 15:04"))
			return nil
		},
	}
	cmd.Flags().StringVar(&content, "content", "", "submission text")
	cmd.Flags().StringVar(&filePath, "file", "", "file to attach (image, PDF, Word document, text or zip)")
	return cmd
}

func (a *app) profileCommand() *cobra.Command {
	var update models.UpdateProfileRequest

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show your profile, or change it with the flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := a.client.Profile(ctx)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("name") || flags.Changed("email") || flags.Changed("bio") || flags.Changed("phone") || flags.Changed("address") {
				req := models.UpdateProfileRequest{Name: p.Name, Email: p.Email, Bio: p.Bio, Phone: p.Phone, Address: p.Address}
				if flags.Changed("name") {
					req.Name = update.Name
				}
				if flags.Changed("email") {
					req.Email = update.Email
				}
				if flags.Changed("bio") {
					req.Bio = update.Bio
				}
				if flags.Changed("phone") {
					req.Phone = update.Phone
				}
				if flags.Changed("address") {
					req.Address = update.Address
				}
				if p, err = a.client.UpdateProfile(ctx, req); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s <%s>\n", p.Name, p.Email)
			for _, field := range []struct{ label, value string }{{"bio", p.Bio}, {"phone", p.Phone}, {"address", p.Address}} {
				if field.value != "" {
					fmt.Fprintf(out, "  %s: %s\n", field.label, field.value)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&update.Name, "name", "", "new display name")
	cmd.Flags().StringVar(&update.Email, "email", "", "new email")
	cmd.Flags().StringVar(&update.Bio, "bio", "", "new bio")
	cmd.Flags().StringVar(&update.Phone, "phone", "", "new phone number")
	cmd.Flags().StringVar(&update.Address, "address", "", "new address")
	return cmd
}

func (a *app) forgotPasswordCommand() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Request a password reset email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.ForgotPassword(cmd.Context(), email); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "If the account exists, a reset email is on its way.")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) resetPasswordCommand() *cobra.Command {
	var token, password string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password with the token from the reset email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("LMS_PASSWORD")
			}
			req := models.ResetPasswordRequest{Token: token, Password: password, ConfirmPassword: password}
			if err := a.client.ResetPassword(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password updated. Run 'learner login' to sign in again.")
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "reset token from the email")
	cmd.Flags().StringVar(&password, "password", "", "new password (or LMS_PASSWORD)")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}
