package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tracklog/tracklog-client/pkg/client"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the interactive console with background sync",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		go svc.Run(ctx)

		tl := client.NewTrackLog(svc, opt)
		defer tl.Close()
		tl.Run(ctx)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
