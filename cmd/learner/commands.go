package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/learnportal/backend/internal/enrollment"
	"github.com/learnportal/backend/internal/learner"
	"github.com/learnportal/backend/internal/models"
	"github.com/spf13/cobra"
)

func (a *app) loginCommand() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session for later commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("LMS_PASSWORD")
			}
			pair, err := a.client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := a.saveToken(pair.AccessToken); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (or LMS_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status <courseId>",
		Short: "Show the enrollment status of a course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			courseID, err := parseID("courseId", args[0])
			if err != nil {
				return err
			}
			rec, err := a.machine.CheckStatus(cmd.Context(), courseID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Course %d: %s\n", courseID, rec.Status)
			switch a.machine.View(courseID) {
			case enrollment.ViewPending:
				fmt.Fprintln(out, "Your payment proof is waiting for review.")
			case enrollment.ViewRejected:
				fmt.Fprintln(out, "Your enrollment was rejected.")
			case enrollment.ViewCatalog:
				fmt.Fprintln(out, "Run 'learner enroll' to join this course.")
			}
			return nil
		},
	}
}

func (a *app) enrollCommand() *cobra.Command {
	var proofPath string

	cmd := &cobra.Command{
		Use:   "enroll <courseId>",
		Short: "Enroll in a free course, or submit a payment proof for a priced one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			courseID, err := parseID("courseId", args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			course, err := a.client.Course(ctx, courseID)
			if err != nil {
				return err
			}
			if _, err := a.machine.CheckStatus(ctx, courseID); err != nil {
				return err
			}

			var rec models.EnrollmentRecord
			if proofPath == "" {
				rec, err = a.machine.EnrollFree(ctx, *course)
			} else {
				var content []byte
				if content, err = os.ReadFile(proofPath); err != nil {
					return fmt.Errorf("failed to read payment proof: %w", err)
				}
				rec, err = a.machine.SubmitPaymentProof(ctx, *course, learner.PaymentProofUpload{
					Filename: filepath.Base(proofPath),
					Content:  content,
				})
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Course %d (%s): %s\n", course.ID, course.Title, rec.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&proofPath, "proof", "", "payment proof file (image or document) for a priced course")
	return cmd
}

func (a *app) videosCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "videos <courseId>",
		Short: "List the videos of an approved course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			courseID, err := parseID("courseId", args[0])
			if err != nil {
				return err
			}
			if err := a.loadCourse(cmd, courseID); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, v := range a.tracker.Videos(courseID) {
				mark := " "
				if v.Completed {
					mark = "x"
				}
				fmt.Fprintf(out, "[%s] %d  %s  %s\n", mark, v.ID, v.Title, v.Duration)
			}
			fmt.Fprintf(out, "Progress: %d%%\n", a.tracker.Progress(courseID))
			return nil
		},
	}
}

func (a *app) completeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <courseId> <videoId>",
		Short: "Mark a video as watched and show what comes next",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			courseID, err := parseID("courseId", args[0])
			if err != nil {
				return err
			}
			videoID, err := parseID("videoId", args[1])
			if err != nil {
				return err
			}
			if err := a.loadCourse(cmd, courseID); err != nil {
				return err
			}

			video, err := a.tracker.MarkCompleted(cmd.Context(), courseID, videoID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Completed: %s\n", video.Title)
			fmt.Fprintf(out, "Progress: %d%%\n", a.tracker.Progress(courseID))
			if next, ok := a.tracker.NextUnwatched(courseID, videoID); ok {
				fmt.Fprintf(out, "Up next: %d  %s\n", next.ID, next.Title)
			}
			if a.tracker.CertificateAvailable(courseID) {
				fmt.Fprintf(out, "Course finished. Run 'learner certificate %d' to download your certificate.\n", courseID)
			}
			return nil
		},
	}
}

func (a *app) certificateCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "certificate <courseId>",
		Short: "Download the completion certificate of a finished course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			courseID, err := parseID("courseId", args[0])
			if err != nil {
				return err
			}
			pdf, err := a.client.Certificate(cmd.Context(), courseID)
			if err != nil {
				return err
			}
			if output == "" {
				output = fmt.Sprintf("certificate-course-%d.pdf", courseID)
			}
			if err := os.WriteFile(output, pdf, 0o644); err != nil {
				return fmt.Errorf("failed to write certificate: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file")
	return cmd
}

func (a *app) banksCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "banks",
		Short: "List the bank accounts course fees can be paid into",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			accounts, err := a.client.BankAccounts(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, acc := range accounts {
				fmt.Fprintf(out, "%s\n  holder: %s\n  account: %s\n", acc.BankName, acc.AccountHolder, acc.AccountNumber)
				if acc.BranchCode != "" {
					fmt.Fprintf(out, "  branch: %s\n", acc.BranchCode)
				}
			}
			return nil
		},
	}
}

// loadCourse refreshes the enrollment status and video snapshot of a course
func (a *app) loadCourse(cmd *cobra.Command, courseID int) error {
	if _, err := a.machine.CheckStatus(cmd.Context(), courseID); err != nil {
		return err
	}
	_, err := a.tracker.LoadVideos(cmd.Context(), courseID)
	return err
}
