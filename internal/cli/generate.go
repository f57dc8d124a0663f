package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate <message>",
	Short: "Print AI-suggested tasks for a message without persisting anything",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	client, sess, err := newEnv()
	if err != nil {
		return err
	}
	if ok, err := sess.AttachPersisted(); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("not logged in (run `planpilot login`)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	planTitle, suggestions, err := client.GenerateSuggestions(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}

	fmt.Printf("Plan: %s\n", planTitle)
	for _, s := range suggestions {
		line := "  • " + s.Title
		if s.ResolvedDue != nil {
			line += " (due " + s.ResolvedDue.Local().Format("2006-01-02 15:04") + ")"
		}
		if s.EstimatedMinutes != nil {
			line += fmt.Sprintf(" ~%dm", *s.EstimatedMinutes)
		}
		line += " [" + s.Priority + "]"
		fmt.Println(line)
	}
	return nil
}
