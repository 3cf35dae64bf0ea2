package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"docsync/core/reconcile"
	"docsync/core/remote"
	"docsync/feature/synchronizer"

	"github.com/spf13/cobra"
)

var remoteCode string

// remoteCmd groups commands that inspect the document cloud.
var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Inspect the document cloud",
}

// remoteListCmd prints the remote listing.
var remoteListCmd = &cobra.Command{
	Use:   "list [root]",
	Short: "List remote items",
	Long: `Prints every live remote item, or only the items below the given
collection (by UUID or display name).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		code := remoteCode
		if code == "" {
			code = a.cfg.Remote.OneTimeCode
		}
		session := &synchronizer.Session{
			Props:       a.props,
			Auth:        remote.NewAuthenticator(a.cfg.Remote, nil, a.logger),
			Connect:     a.connector(),
			OneTimeCode: code,
		}
		store, err := session.Dial(ctx, a.logger)
		if err != nil {
			return err
		}
		items, err := store.List(ctx)
		if err != nil {
			return err
		}

		listing := reconcile.NewListing(items)
		if len(args) == 1 {
			root, ok := listing.Get(args[0])
			if !ok {
				if root, ok = listing.FindByName(args[0]); !ok {
					return &synchronizer.LookupError{Kind: "remote", Locator: args[0]}
				}
			}
			below := listing.Descendants(root.ID)
			var filtered []remote.Item
			for _, it := range listing.Items() {
				if _, ok := below[it.ID]; ok {
					filtered = append(filtered, it)
				}
			}
			items = filtered
		}
		sort.SliceStable(items, func(i, j int) bool { return items[i].VisibleName < items[j].VisibleName })

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTYPE\tVERSION\tPARENT\tNAME")
		for _, it := range items {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", it.ID, it.Type, it.Version, it.Parent, it.VisibleName)
		}
		return w.Flush()
	},
}

func init() {
	remoteListCmd.Flags().StringVar(&remoteCode, "code", "", "one-time code to register this device")
	remoteCmd.AddCommand(remoteListCmd)
	RootCmd.AddCommand(remoteCmd)
}
