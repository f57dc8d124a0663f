package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the persisted session",
	Long: `Clears the local session token. The backend is notified on a best-effort
basis; logout succeeds locally even when the server is unreachable.`,
	RunE: runLogout,
}

func runLogout(cmd *cobra.Command, args []string) error {
	_, sess, err := newEnv()
	if err != nil {
		return err
	}
	if _, err := sess.AttachPersisted(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sess.Logout(ctx)
	fmt.Println("Logged out")
	return nil
}
