package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"docsync/core/reconcile"
	"docsync/feature/synchronizer"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	syncMode     string
	syncDryRun   bool
	syncCode     string
	syncForceIDs string
)

// syncCmd runs one sync and exits.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sync",
	Long: `Walks the configured source tree and pushes new, moved and renamed
documents to the remote collection. In mirror mode remote items under the
collection that are absent from the source are deleted first.

The first run needs a one-time code (--code or REMOTE_ONE_TIME_CODE) to
register this device. The device token is cached in the property store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		opts := a.cfg.Sync.Options()
		if cmd.Flags().Changed("mode") {
			opts.Mode = reconcile.Mode(syncMode)
		}
		if cmd.Flags().Changed("dry-run") {
			opts.DryRun = syncDryRun
		}
		if ids := synchronizer.SplitList(syncForceIDs); len(ids) > 0 {
			opts.Force = reconcile.ForceIDs(ids...)
		}
		opts.OneTimeCode = syncCode

		s, err := a.synchronizer(ctx, opts)
		if err != nil {
			return err
		}

		report := s.Run(ctx)
		if path := a.cfg.Metrics.Textfile; path != "" {
			if err := a.metrics.WriteTextfile(path); err != nil {
				a.logger.Warn("Failed to write metrics textfile", zap.String("path", path), zap.Error(err))
			}
		}
		if !report.OK() {
			return fmt.Errorf("sync run %s: %w", report.RunID, report.Err())
		}
		if res := report.Result; res != nil && len(res.Failed()) > 0 {
			a.logger.Warn("Sync finished with item failures", zap.Int("failed", len(res.Failed())))
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncMode, "mode", "", "sync mode (update, mirror); overrides SYNC_MODE")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "plan without changing the remote")
	syncCmd.Flags().StringVar(&syncCode, "code", "", "one-time code to register this device")
	syncCmd.Flags().StringVar(&syncForceIDs, "force-ids", "", "comma separated remote ids to push unconditionally")
	RootCmd.AddCommand(syncCmd)
}

