package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/abhisek/tutor/internal/config"
	"github.com/abhisek/tutor/internal/logger"
	"github.com/abhisek/tutor/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "tutor",
	Short: "Study tutor grounded in your own notes",
	Long: "Tutor answers questions from the documents you give it, writes adaptive\n" +
		"multiple-choice quizzes on any topic and tracks how well you know each one.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		logger.SetVerbose(verbose)
	},
	RunE: runPlay,
}

// Execute runs the root command. Interrupts cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides TUTOR_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to config.toml (default $XDG_CONFIG_HOME/tutor/config.toml)")
	rootCmd.PersistentFlags().StringP("student", "s", "", "Student id (overrides TUTOR_STUDENT and the config file)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Print debug logging to stderr")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(quizCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then TUTOR_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// loadConfig reads the config file and environment, then applies flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if s, _ := cmd.Flags().GetString("student"); s != "" {
		cfg.StudentID = s
	}
	return cfg, cfg.Validate()
}
