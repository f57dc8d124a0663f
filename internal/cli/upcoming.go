package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var upcomingLimit int

var upcomingCmd = &cobra.Command{
	Use:   "upcoming",
	Short: "List upcoming tasks (not done, soonest due first)",
	RunE:  runUpcoming,
}

func init() {
	upcomingCmd.Flags().IntVarP(&upcomingLimit, "limit", "n", 20, "Maximum number of tasks")
}

func runUpcoming(cmd *cobra.Command, args []string) error {
	client, sess, err := newEnv()
	if err != nil {
		return err
	}
	if ok, err := sess.AttachPersisted(); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("not logged in (run `planpilot login`)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	tasks, err := client.UpcomingTasks(ctx, upcomingLimit)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Println("No upcoming tasks.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DUE\tPRIORITY\tSTATUS\tTITLE")
	for _, t := range tasks {
		due := "-"
		if t.DueAt != nil {
			due = t.DueAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", due, t.Priority, t.Status, t.Title)
	}
	return w.Flush()
}
