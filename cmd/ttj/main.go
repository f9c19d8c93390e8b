// Package main provides the CLI entrypoint for ttj.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/ttj/internal/config"
	"github.com/verte-zerg/ttj/internal/logging"
	"github.com/verte-zerg/ttj/internal/results"
	"github.com/verte-zerg/ttj/internal/server"
	"github.com/verte-zerg/ttj/internal/texts"
	"github.com/verte-zerg/ttj/internal/tui"
)

var (
	dbPath   string
	logLevel string

	practiceFile string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ttj",
		Short:         "Typing trainer with lessons, timed tests and certificates",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runPracticeCmd,
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: XDG data dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", logging.DefaultLevel, "log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&practiceFile, "file", "", "practice prompts file, one prompt per line")

	rootCmd.AddCommand(newTestCmd())
	rootCmd.AddCommand(newLessonsCmd())
	rootCmd.AddCommand(newLessonCmd())
	rootCmd.AddCommand(newDashboardCmd())
	rootCmd.AddCommand(newCertificateCmd())
	rootCmd.AddCommand(newVerifyCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newWhoamiCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newServeCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.close()

	applyStringConfig(cmd, "file", &practiceFile, app.cfg.Practice.File)
	prompts := texts.Builtin()
	if practiceFile != "" {
		prompts, err = texts.LoadFile(practiceFile)
		if err != nil {
			return fmt.Errorf("failed to load practice file: %w", err)
		}
	}

	return runTUI(tui.NewModel(tui.Config{
		Mode:    tui.ModePractice,
		User:    app.userID(),
		Prompts: texts.NewPicker(prompts),
		Log:     app.log,
	}))
}

func runTUI(m *tui.Model) error {
	defer m.Close()
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# ttj configuration
# Uncomment a value to enable it. CLI flags override config values.

# db = "/path/to/ttj.db"   # Database path (default: XDG data dir)

[practice]
# file = "~/prompts.txt"   # Custom practice prompts, one per line

[test]
# duration = %d            # Timed test length in seconds (%s)

[log]
# level = %q           # debug, info, warn, error
# format = %q          # text or json

[server]
# addr = %q   # Verification server listen address
# rate = %.1f               # Requests per second per client IP
# burst = %d               # Burst size per client IP
# allowed-origins = ["https://example.org"]
`,
		results.DefaultDuration,
		durationList(),
		logging.DefaultLevel,
		logging.DefaultFormat,
		server.DefaultAddr,
		server.DefaultRate,
		server.DefaultBurst,
	)
}

func durationList() string {
	parts := make([]string, len(results.Durations))
	for i, d := range results.Durations {
		parts[i] = fmt.Sprint(d)
	}
	return strings.Join(parts, ", ")
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
