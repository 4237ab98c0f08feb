package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tracklog/tracklog-client/pkg/bdkeeper"
	"github.com/tracklog/tracklog-client/pkg/calllog"
	"github.com/tracklog/tracklog-client/pkg/config"
	"github.com/tracklog/tracklog-client/pkg/encription"
	"github.com/tracklog/tracklog-client/pkg/logger"
	"github.com/tracklog/tracklog-client/pkg/services"
	"github.com/tracklog/tracklog-client/pkg/syncinfo"
	"github.com/tracklog/tracklog-client/pkg/tlsync"
)

var (
	opt    *config.Options
	keeper *bdkeeper.Keeper
	svc    *services.Service

	serverURL string
)

var rootCmd = &cobra.Command{
	Use:   "tracklog",
	Short: "TrackLog - call tracking client",
	Long: `TrackLog keeps a local record of your business calls, reconciles it
with the device call log and uploads the result to the tracklog server.`,
	PersistentPreRunE: setupApp,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func Execute() {
	defer func() {
		if keeper != nil {
			keeper.Close()
		}
	}()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupApp(_ *cobra.Command, _ []string) error {
	var err error
	opt, err = config.NewConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if serverURL != "" {
		opt.ServerURL = serverURL
	}

	keeper, err = bdkeeper.New(opt.DatabasePath)
	if err != nil {
		return fmt.Errorf("open local store: %w", err)
	}

	sm, err := syncinfo.NewSyncManager(opt.SyncInfoPath)
	if err != nil {
		return fmt.Errorf("open sync info: %w", err)
	}
	// Best effort: a fresh install has no sync info yet.
	_, _ = sm.LoadAndUpdateLastSyncFromFile()

	reader := calllog.NewFileReader(opt.CallLogPath)

	var dialer calllog.Dialer = calllog.NopDialer{}
	if opt.DialCommand != "" {
		dialer = calllog.NewExecDialer(opt.DialCommand)
	}

	api := tlsync.New(opt.ServerURL)
	enc := encription.NewEnc(opt.SecretKey)
	log := logger.NewLogger(opt.LogPath)

	svc = services.NewServices(keeper, reader, dialer, api, enc, sm, opt, log)
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "tracklog server URL")
}
