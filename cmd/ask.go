package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the study material",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		showSources, _ := cmd.Flags().GetBool("sources")

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ans, err := e.svc.Ask(cmd.Context(), strings.Join(args, " "), e.cfg.StudentID)
		if err != nil {
			return userError(err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ans.Text)
		if showSources && len(ans.Sources) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, color.New(color.Faint).Sprint("Sources"))
			for _, src := range ans.Sources {
				fmt.Fprintf(out, "  %s %s\n",
					color.CyanString("[%d %.2f]", src.Chunk.ID, src.Score),
					truncate(strings.Join(strings.Fields(src.Chunk.Text), " "), 100))
			}
		}
		return nil
	},
}

func init() {
	askCmd.Flags().Bool("sources", false, "Show the passages the answer was grounded on")
}
