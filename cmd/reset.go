package cmd

import (
	"docsync/feature/synchronizer"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// resetCmd forgets the cached device credentials.
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget the cached device token",
	Long: `Removes the cached device token and device id of the configured
relationship. The identifier map is kept, so the next sync after
registering again does not duplicate documents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		if err := synchronizer.ResetCredentials(ctx, a.props); err != nil {
			return err
		}
		a.logger.Info("Cleared cached device credentials", zap.String("relationship", a.cfg.Sync.Relationship))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(resetCmd)
}
