package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/ttj/internal/certificate"
	"github.com/verte-zerg/ttj/internal/lesson"
	"github.com/verte-zerg/ttj/internal/model"
	"github.com/verte-zerg/ttj/internal/results"
	"github.com/verte-zerg/ttj/internal/server"
	"github.com/verte-zerg/ttj/internal/stats"
	"github.com/verte-zerg/ttj/internal/store"
	"github.com/verte-zerg/ttj/internal/texts"
	"github.com/verte-zerg/ttj/internal/tui"
)

var (
	testDuration int

	lessonTask int

	certificateIssue bool

	dashboardRecent int

	serveAddr    string
	serveRate    float64
	serveBurst   int
	serveOrigins []string
)

func newTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Take a timed typing test",
		Args:  cobra.NoArgs,
		RunE:  runTestCmd,
	}
	cmd.Flags().IntVar(&testDuration, "duration", results.DefaultDuration, fmt.Sprintf("test length in seconds (%s)", durationList()))
	return cmd
}

func runTestCmd(cmd *cobra.Command, _ []string) error {
	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.close()

	applyIntConfig(cmd, "duration", &testDuration, app.cfg.Test.Duration)
	duration, err := results.ParseDuration(testDuration)
	if err != nil {
		return fmt.Errorf("invalid --duration: %w", err)
	}
	if app.user == nil {
		logErrf("Not logged in: results will not be saved. Run: ttj login <name>\n")
	}

	return runTUI(tui.NewModel(tui.Config{
		Mode:            tui.ModeTest,
		User:            app.userID(),
		Prompts:         texts.NewPicker(texts.Builtin()),
		DurationSeconds: duration,
		Recorder:        results.NewRecorder(app.store, app.log),
		Log:             app.log,
	}))
}

func newLessonsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lessons",
		Short: "List lessons and progress",
		Args:  cobra.NoArgs,
		RunE:  runLessonsCmd,
	}
}

func runLessonsCmd(cmd *cobra.Command, _ []string) error {
	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.close()

	var statuses []lesson.LessonStatus
	if app.user == nil {
		for _, l := range lesson.All() {
			statuses = append(statuses, lesson.LessonStatus{Lesson: l})
		}
	} else {
		tracker := lesson.NewTracker(app.store, app.log)
		statuses, err = tracker.Overview(cmd.Context(), app.user.ID)
		if err != nil {
			return fmt.Errorf("failed to load lesson progress: %w", err)
		}
	}
	return stats.RenderLessons(cmd.OutOrStdout(), statuses)
}

func newLessonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lesson <id>",
		Short: "Practice a lesson",
		Args:  cobra.ExactArgs(1),
		RunE:  runLessonCmd,
	}
	cmd.Flags().IntVar(&lessonTask, "task", 0, "task number to start from (default: first unfinished)")
	return cmd
}

func runLessonCmd(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid lesson id %q", args[0])
	}
	l, ok := lesson.Lookup(id)
	if !ok {
		return fmt.Errorf("lesson %d not found (run: ttj lessons)", id)
	}
	if cmd.Flags().Changed("task") && (lessonTask < 1 || lessonTask > l.TotalTasks()) {
		return fmt.Errorf("--task must be between 1 and %d", l.TotalTasks())
	}

	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.close()

	tracker := lesson.NewTracker(app.store, app.log)
	taskIndex := lessonTask - 1
	if !cmd.Flags().Changed("task") {
		taskIndex = 0
		if app.user != nil {
			status, err := tracker.Progress(cmd.Context(), app.user.ID, id)
			if err != nil {
				return fmt.Errorf("failed to load lesson progress: %w", err)
			}
			taskIndex = status.NextTask()
		}
	}
	if app.user == nil {
		logErrf("Not logged in: progress will not be saved. Run: ttj login <name>\n")
	}

	return runTUI(tui.NewModel(tui.Config{
		Mode:      tui.ModeLesson,
		User:      app.userID(),
		Lesson:    l,
		TaskIndex: taskIndex,
		Tracker:   tracker,
		Log:       app.log,
	}))
}

func newDashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show test history, lesson progress and certificate status",
		Args:  cobra.NoArgs,
		RunE:  runDashboardCmd,
	}
	cmd.Flags().IntVar(&dashboardRecent, "recent", stats.DefaultRecent, "number of recent tests to show")
	return cmd
}

func runDashboardCmd(cmd *cobra.Command, _ []string) error {
	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.close()

	if app.user == nil {
		return errNotLoggedIn
	}
	report, err := stats.BuildReport(cmd.Context(), app.store, *app.user, dashboardRecent, app.log)
	if err != nil {
		return fmt.Errorf("failed to build dashboard: %w", err)
	}
	return stats.RenderDashboard(cmd.OutOrStdout(), report, 0)
}

func newCertificateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "certificate",
		Short: "Check certificate eligibility or claim a certificate",
		Args:  cobra.NoArgs,
		RunE:  runCertificateCmd,
	}
	cmd.Flags().BoolVar(&certificateIssue, "issue", false, "issue the certificate when eligible")
	return cmd
}

func runCertificateCmd(cmd *cobra.Command, _ []string) error {
	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.close()

	out := cmd.OutOrStdout()
	evaluator := certificate.NewEvaluator(app.store, app.log)

	if !certificateIssue {
		if app.user == nil {
			return errNotLoggedIn
		}
		existing, err := app.store.ReadCertificate(cmd.Context(), app.user.ID)
		if err != nil {
			return fmt.Errorf("failed to read certificate: %w", err)
		}
		if existing != nil {
			return printCertificate(cmd, existing)
		}
		elig, err := evaluator.Check(cmd.Context(), app.user.ID)
		if err != nil {
			return fmt.Errorf("failed to check eligibility: %w", err)
		}
		if elig.Eligible {
			_, err = fmt.Fprintf(out, "Eligible: %d WPM at %.2f%% accuracy. Run: ttj certificate --issue\n", elig.Best.NetWPM, elig.Best.Accuracy)
			return err
		}
		_, err = fmt.Fprintf(out, "Not eligible yet: %s\n", stats.EligibilityHint(elig))
		return err
	}

	outcome := evaluator.Issue(cmd.Context(), app.userID())
	switch outcome.Reason {
	case model.ReasonNone:
		if outcome.Existing {
			if _, err := fmt.Fprintln(out, "Certificate already issued."); err != nil {
				return err
			}
		}
		return printCertificate(cmd, outcome.Certificate)
	case model.ReasonNotEligible:
		return fmt.Errorf("%s: %s", outcome.Reason.Message(), stats.EligibilityHint(outcome.Eligibility))
	case model.ReasonDBError:
		return fmt.Errorf("%s: %w", outcome.Reason.Message(), outcome.Err)
	default:
		return errors.New(outcome.Reason.Message())
	}
}

func printCertificate(cmd *cobra.Command, c *model.Certificate) error {
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "Certificate %s\n  Name: %s\n  Speed: %d WPM\n  Accuracy: %.2f%%\n  Test: %ds\n  Issued: %s\n",
		c.Code, c.UserName, c.NetWPM, c.Accuracy, c.DurationSeconds, c.IssuedAt.Local().Format("2006-01-02 15:04"))
	return err
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <code>",
		Short: "Look up a certificate by code",
		Args:  cobra.ExactArgs(1),
		RunE:  runVerifyCmd,
	}
}

func runVerifyCmd(cmd *cobra.Command, args []string) error {
	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.close()

	cert, err := certificate.NewEvaluator(app.store, app.log).Verify(cmd.Context(), args[0])
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("certificate %q not found", args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to verify certificate: %w", err)
	}
	return printCertificate(cmd, cert)
}

var errNotLoggedIn = errors.New("not logged in (run: ttj login <name>)")

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <name>",
		Short: "Switch to a local profile, creating it if needed",
		Args:  cobra.ExactArgs(1),
		RunE:  runLoginCmd,
	}
}

func runLoginCmd(cmd *cobra.Command, args []string) error {
	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.close()

	user, err := app.store.Login(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to log in: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", user.Name)
	return err
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Return to guest mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.close()
			if err := app.store.Logout(cmd.Context()); err != nil {
				return fmt.Errorf("failed to log out: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return err
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.close()
			name := "guest"
			if app.user != nil {
				name = app.user.Name
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), name)
			return err
		},
	}
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the certificate verification API",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().Float64Var(&serveRate, "rate", server.DefaultRate, "requests per second per client IP (0 disables)")
	cmd.Flags().IntVar(&serveBurst, "burst", server.DefaultBurst, "burst size per client IP")
	cmd.Flags().StringSliceVar(&serveOrigins, "allowed-origins", nil, "CORS origins (default: any)")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.close()

	applyStringConfig(cmd, "addr", &serveAddr, app.cfg.Server.Addr)
	applyFloatConfig(cmd, "rate", &serveRate, app.cfg.Server.Rate)
	applyIntConfig(cmd, "burst", &serveBurst, app.cfg.Server.Burst)
	if !cmd.Flags().Changed("allowed-origins") && len(app.cfg.Server.AllowedOrigins) > 0 {
		serveOrigins = app.cfg.Server.AllowedOrigins
	}
	if serveBurst <= 0 {
		return fmt.Errorf("--burst must be > 0")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(certificate.NewEvaluator(app.store, app.log), app.log, server.Options{
		Addr:           serveAddr,
		Rate:           serveRate,
		Burst:          serveBurst,
		AllowedOrigins: serveOrigins,
	})
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	logErrf("Server stopped\n")
	return nil
}
