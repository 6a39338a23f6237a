package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/tutor/internal/app"
)

var playCmd = &cobra.Command{
	Use:   "play [topic]",
	Short: "Start the interactive tutor",
	RunE:  runPlay,
}

func runPlay(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	return app.Run(e.svc, app.Options{
		StudentID: e.cfg.StudentID,
		Topic:     strings.Join(args, " "),
		Chunks:    e.svc.Corpus().Len,
	})
}
