package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget all mastery records for the student",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		if !yes {
			fmt.Fprintf(cmd.OutOrStdout(), "Reset all progress for %q? [y/N] ", e.cfg.StudentID)
			line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if a := strings.ToLower(strings.TrimSpace(line)); a != "y" && a != "yes" {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}
		}

		if err := e.svc.ResetProgress(cmd.Context(), e.cfg.StudentID); err != nil {
			return userError(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Progress for %q has been reset.\n", e.cfg.StudentID)
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
}
