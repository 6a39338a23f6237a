package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abhisek/tutor/internal/corpus"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file|dir>... | -",
	Short: "Replace the study material with the given documents",
	Long: "Reads .txt and .md files (directories are walked recursively) and rebuilds\n" +
		"the corpus from them. Pass - to read a single document from stdin.\n" +
		"The previous corpus stays in place if anything fails.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		docs, err := readDocuments(cmd, args)
		if err != nil {
			return err
		}

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		res := e.svc.IngestDocuments(cmd.Context(), docs)
		if !res.Success {
			return userError(res.Err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓"), res.Message)
		fmt.Fprintf(cmd.OutOrStdout(), "  version %s\n", res.Version)
		return nil
	},
}

func readDocuments(cmd *cobra.Command, args []string) ([]corpus.Document, error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return []corpus.Document{{Name: "stdin", Text: string(data)}}, nil
	}
	docs, err := corpus.LoadDocuments(args)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no supported documents found (want %v)", corpus.SupportedExtensions)
	}
	return docs, nil
}
