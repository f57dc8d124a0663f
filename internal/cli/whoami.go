package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the account behind the persisted session",
	RunE:  runWhoami,
}

func runWhoami(cmd *cobra.Command, args []string) error {
	client, sess, err := newEnv()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	restored, err := sess.Restore(ctx)
	if err != nil {
		return err
	}
	if !restored {
		return fmt.Errorf("not logged in (run `planpilot login`)")
	}

	user := sess.User()
	fmt.Printf("%s <%s>\n", user.Username, user.Email)
	if name := strings.TrimSpace(user.FirstName + " " + user.LastName); name != "" {
		fmt.Println(name)
	}
	fmt.Printf("Server: %s\n", client.BaseURL())
	return nil
}
