package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/learnportal/backend/internal/apperrors"
	"github.com/learnportal/backend/internal/config"
	"github.com/learnportal/backend/internal/learner"
	"github.com/learnportal/backend/internal/lmsclient"
	"github.com/learnportal/backend/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app is the state shared by all subcommands of one invocation
type app struct {
	cfg        *config.ClientConfig
	logger     *zap.Logger
	client     *lmsclient.Client
	machine    *learner.EnrollmentMachine
	tracker    *learner.ProgressTracker
	coursework *learner.Coursework
	tokenPath  string
}

func newRootCommand() *cobra.Command {
	a := &app{}
	var apiURL string

	root := &cobra.Command{
		Use:           "learner",
		Short:         "Enroll in courses, track video progress and do coursework on LearnPortal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(apiURL)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&apiURL, "api-url", "", "API base URL (overrides LMS_API_URL)")

	root.AddCommand(
		a.loginCommand(),
		a.statusCommand(),
		a.enrollCommand(),
		a.videosCommand(),
		a.completeCommand(),
		a.certificateCommand(),
		a.banksCommand(),
		a.quizzesCommand(),
		a.quizCommand(),
		a.assignmentsCommand(),
		a.submitCommand(),
		a.profileCommand(),
		a.forgotPasswordCommand(),
		a.resetPasswordCommand(),
	)
	return root
}

func (a *app) init(apiURL string) error {
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	a.cfg = cfg

	if a.logger, err = logger.New(cfg.LogLevel); err != nil {
		return err
	}

	a.client = lmsclient.New(cfg.APIURL, cfg.Timeout, a.logger)
	a.tokenPath = tokenPath()
	if token := a.token(); token != "" {
		a.client.SetToken(token)
	}

	store := learner.NewStore()
	a.machine = learner.NewEnrollmentMachine(a.client, store, a.logger)
	a.tracker = learner.NewProgressTracker(a.client, store, a.logger)
	a.coursework = learner.NewCoursework(a.client, store, a.logger)
	return nil
}

// token returns LMS_TOKEN, or the token saved by the last login
func (a *app) token() string {
	if a.cfg.Token != "" {
		return a.cfg.Token
	}
	if a.tokenPath == "" {
		return ""
	}
	data, err := os.ReadFile(a.tokenPath)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (a *app) saveToken(token string) error {
	if a.tokenPath == "" {
		return errors.New("no user config directory to store the session in, set LMS_TOKEN instead")
	}
	if err := os.MkdirAll(filepath.Dir(a.tokenPath), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	if err := os.WriteFile(a.tokenPath, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func tokenPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "learnportal", "token")
}

// parseID parses a positional id argument
func parseID(name, value string) (int, error) {
	id, err := strconv.Atoi(value)
	if err != nil || id <= 0 {
		return 0, apperrors.Clone(apperrors.ErrValidation, fmt.Sprintf("%s must be a positive integer, got %q", name, value))
	}
	return id, nil
}
