package cmd

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abhisek/tutor/internal/corpus"
	"github.com/abhisek/tutor/internal/logger"
	"github.com/abhisek/tutor/internal/tutor"
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Keep the study material in sync with a directory",
	Long: "Ingests every supported document under <dir>, then rebuilds the corpus\n" +
		"whenever files there change. Stop with Ctrl+C.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		debounce, _ := cmd.Flags().GetDuration("debounce")

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		w, err := corpus.NewWatcher(dir, debounce)
		if err != nil {
			return err
		}
		defer w.Close()

		out := cmd.OutOrStdout()
		sync := func(ctx context.Context) {
			docs, err := corpus.LoadDocuments([]string{dir})
			if err != nil {
				logger.Warn("load %s: %v", dir, err)
				return
			}
			if len(docs) == 0 {
				logger.Warn("no supported documents in %s; keeping the current corpus", dir)
				return
			}
			res := e.svc.IngestDocuments(ctx, docs)
			if !res.Success {
				fmt.Fprintln(out, color.RedString("✗"), tutor.UserMessage(res.Err))
				logger.Debug("ingest: %v", res.Err)
				return
			}
			fmt.Fprintln(out, color.GreenString("✓"), res.Message)
		}

		sync(cmd.Context())
		fmt.Fprintf(out, "Watching %s for changes...\n", dir)
		return w.Run(cmd.Context(), sync)
	},
}

func init() {
	watchCmd.Flags().Duration("debounce", corpus.DefaultDebounce, "Quiet period before re-ingesting after a change")
}
