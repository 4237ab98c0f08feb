package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tracklog/tracklog-client/pkg/services"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Upload the pending call batch once and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		res, err := svc.Sync(cmd.Context())
		if errors.Is(err, services.ErrNothingToSync) {
			fmt.Println("Nothing to sync.")
			return nil
		}
		if err != nil {
			return err
		}

		if res.FullSuccess() {
			fmt.Printf("Synced %d call(s).\n", res.Succeeded)
			return nil
		}
		fmt.Printf("Synced %d of %d call(s); %d failed and will be retried.\n",
			res.Succeeded, res.Total, res.Failed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
