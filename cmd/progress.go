package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abhisek/tutor/internal/progress"
	"github.com/abhisek/tutor/internal/store"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show per-topic mastery and what to study next",
	RunE: func(cmd *cobra.Command, args []string) error {
		answers, _ := cmd.Flags().GetInt("answers")

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		view, err := e.svc.GetProgress(cmd.Context(), e.cfg.StudentID)
		if err != nil {
			return userError(err)
		}

		out := cmd.OutOrStdout()
		printReport(out, view.Report)
		fmt.Fprintln(out)
		fmt.Fprintln(out, view.Summary)

		if answers > 0 {
			events, err := e.st.EventRepo().QueryAnswers(cmd.Context(), e.cfg.StudentID, store.QueryOpts{Limit: answers})
			if err != nil {
				return fmt.Errorf("query answers: %w", err)
			}
			fmt.Fprintln(out)
			printAnswers(out, events)
		}
		return nil
	},
}

func printReport(w io.Writer, rep progress.Report) {
	if len(rep.Topics) == 0 {
		return
	}
	fmt.Fprintf(w, "%-24s  %7s  %8s  %s\n", "Topic", "Correct", "Accuracy", "Strength")
	fmt.Fprintln(w, strings.Repeat("─", 60))
	for _, tp := range rep.Topics {
		fmt.Fprintf(w, "%-24s  %3d/%-3d  %7.0f%%  %s\n",
			truncate(tp.DisplayTopic, 24), tp.Correct, tp.Total, tp.Accuracy*100, strengthLabel(tp.Strength))
	}
	fmt.Fprintln(w, strings.Repeat("─", 60))
	o := rep.Overall
	fmt.Fprintf(w, "%-24s  %3d/%-3d  %7.0f%%\n", "OVERALL", o.Correct, o.Total, o.Accuracy*100)
	fmt.Fprintln(w)
	fmt.Fprintln(w, color.New(color.Bold).Sprint(rep.Recommendation.Message))
}

func strengthLabel(s progress.Strength) string {
	switch s {
	case progress.StrengthStrong:
		return color.GreenString(string(s))
	case progress.StrengthWeak:
		return color.RedString(string(s))
	default:
		return color.YellowString(string(s))
	}
}

func printAnswers(w io.Writer, events []store.AnswerEvent) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No answers recorded.")
		return
	}
	fmt.Fprintf(w, "%-16s  %-20s  %3s  %-6s  %s\n", "Time", "Topic", "Q", "Answer", "OK")
	for _, ev := range events {
		ok := color.GreenString("✓")
		if !ev.Correct {
			ok = color.RedString("✗")
		}
		ans := ev.Answer
		if ans == "" {
			ans = "-"
		}
		fmt.Fprintf(w, "%-16s  %-20s  %3d  %-6s  %s\n",
			ev.Timestamp.Local().Format("2006-01-02 15:04"), truncate(ev.Topic, 20), ev.QuestionID, ans, ok)
	}
}

func init() {
	progressCmd.Flags().IntP("answers", "a", 0, "Also list the N most recent graded answers")
}
