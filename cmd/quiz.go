package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abhisek/tutor/internal/quiz"
	"github.com/abhisek/tutor/internal/store"
)

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Generate and grade quizzes without the interactive UI",
}

var quizNewCmd = &cobra.Command{
	Use:   "new <topic>",
	Short: "Generate a quiz on a topic, pitched at your current level",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		q, err := e.svc.GenerateQuiz(cmd.Context(), strings.Join(args, " "), e.cfg.StudentID)
		if err != nil {
			return userError(err)
		}
		printQuiz(cmd.OutOrStdout(), q)
		return nil
	},
}

var quizSubmitCmd = &cobra.Command{
	Use:   "submit <quiz-id> <answers>",
	Short: "Grade answers for a quiz",
	Long: "Answers are given in question order (\"A,C,B,D\" or \"ACBD\", with - to skip\n" +
		"a question) or by question number (\"1=A,3=C\"). Unanswered questions\n" +
		"count as incorrect.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		row, err := e.st.QuizRepo().GetQuiz(cmd.Context(), args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("quiz %s not found", args[0])
		}
		if err != nil {
			return err
		}

		ids := make([]int, len(row.Questions))
		for i, q := range row.Questions {
			ids[i] = q.ID
		}
		subs, err := parseAnswers(args[1], ids)
		if err != nil {
			return err
		}

		fb, err := e.svc.SubmitQuiz(cmd.Context(), quiz.GradeInput{
			QuizID:      row.ID,
			StudentID:   e.cfg.StudentID,
			Topic:       row.Topic,
			Submissions: subs,
		})
		if err != nil {
			return userError(err)
		}
		printResult(cmd.OutOrStdout(), fb.Result)
		fmt.Fprintln(cmd.OutOrStdout())
		fmt.Fprintln(cmd.OutOrStdout(), fb.Message)
		return nil
	},
}

var quizListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent quizzes",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		rows, err := st.QuizRepo().ListQuizzes(cmd.Context(), cfg.StudentID, limit)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No quizzes yet.")
			return nil
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-36s  %-16s  %-20s  %-8s  %s\n", "ID", "Created", "Topic", "Level", "State")
		fmt.Fprintln(out, strings.Repeat("─", 100))
		for _, r := range rows {
			fmt.Fprintf(out, "%-36s  %-16s  %-20s  %-8s  %s\n",
				r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04"), truncate(r.Topic, 20), r.Difficulty, r.State)
		}
		return nil
	},
}

func printQuiz(w io.Writer, q *quiz.Quiz) {
	bold := color.New(color.Bold)
	bold.Fprintf(w, "%s quiz (%s, %d questions)\n", q.Topic, q.Difficulty, len(q.Questions))
	fmt.Fprintf(w, "id: %s\n\n", q.ID)
	for i, qu := range q.Questions {
		fmt.Fprintf(w, "%d. %s\n", i+1, qu.Prompt)
		for j, opt := range qu.Options {
			fmt.Fprintf(w, "   %s) %s\n", quiz.OptionLabel(j), opt)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "Submit with: tutor quiz submit %s <answers>\n", q.ID)
}

func printResult(w io.Writer, r *quiz.Result) {
	for i, item := range r.Items {
		mark := color.GreenString("✓")
		if !item.Correct {
			mark = color.RedString("✗")
		}
		answer := item.Answer
		if answer == "" {
			answer = "-"
		}
		fmt.Fprintf(w, "%s %d. you %s, correct %s\n", mark, i+1, answer, item.CorrectAnswer)
		if !item.Correct && item.Explanation != "" {
			fmt.Fprintf(w, "     %s\n", color.New(color.Faint).Sprint(item.Explanation))
		}
	}
}

// parseAnswers turns an answer list into submissions for the questions
// identified by ids, in order.
func parseAnswers(raw string, ids []int) ([]quiz.Submission, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	if strings.Contains(raw, "=") {
		var subs []quiz.Submission
		for _, part := range strings.Split(raw, ",") {
			num, label, ok := strings.Cut(strings.TrimSpace(part), "=")
			if !ok {
				return nil, fmt.Errorf("answer %q: want number=label", part)
			}
			n, err := strconv.Atoi(strings.TrimSpace(num))
			if err != nil || n < 1 || n > len(ids) {
				return nil, fmt.Errorf("answer %q: question number must be 1-%d", part, len(ids))
			}
			subs = append(subs, quiz.Submission{QuestionID: ids[n-1], StudentAnswer: strings.TrimSpace(label)})
		}
		return subs, nil
	}

	var labels []string
	if strings.Contains(raw, ",") {
		labels = strings.Split(raw, ",")
	} else {
		labels = strings.Split(raw, "")
	}
	if len(labels) > len(ids) {
		return nil, fmt.Errorf("got %d answers for %d questions", len(labels), len(ids))
	}
	var subs []quiz.Submission
	for i, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" || l == "-" {
			continue
		}
		subs = append(subs, quiz.Submission{QuestionID: ids[i], StudentAnswer: l})
	}
	return subs, nil
}

func init() {
	quizListCmd.Flags().IntP("limit", "n", 20, "Number of quizzes to show")

	quizCmd.AddCommand(quizNewCmd)
	quizCmd.AddCommand(quizSubmitCmd)
	quizCmd.AddCommand(quizListCmd)
}
