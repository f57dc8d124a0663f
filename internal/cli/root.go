package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"planpilot/internal/api"
	"planpilot/internal/config"
	"planpilot/internal/session"
	"planpilot/internal/ui"
)

var rootCmd = &cobra.Command{
	Use:   "planpilot",
	Short: "planpilot – a terminal client for the AI task planner",
	Long: `planpilot is a terminal client for the task-planning backend: describe an
intention in plain language, review the AI-suggested tasks, accept them into
a plan, and preview the week's schedule. Run without arguments for the full
interactive app, or use the subcommands for scripting.`,
	RunE: runApp,
}

// Execute is the entry point called from main.
func Execute(version string) {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(upcomingCmd)
	rootCmd.AddCommand(generateCmd)
}

// newEnv wires the client and session store from config. Config problems are
// warnings, not failures: the defaults always produce a usable client.
func newEnv() (*api.Client, *session.Store, error) {
	dir, err := config.BaseDir()
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	client := api.New(cfg.API.BaseURL, time.Duration(cfg.API.TimeoutSeconds)*time.Second)
	return client, session.New(client, dir), nil
}

func runApp(cmd *cobra.Command, args []string) error {
	client, sess, err := newEnv()
	if err != nil {
		return err
	}

	// Verify any persisted token before the UI starts; an unverifiable token
	// is cleared and the login screen shown.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	restored, err := sess.Restore(ctx)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	app := ui.NewApp(client, sess, restored)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running application: %w", err)
	}
	return nil
}
