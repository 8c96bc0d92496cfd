package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openmep/sleever/pkg/clusterize"
	"github.com/openmep/sleever/pkg/model"
	"github.com/openmep/sleever/pkg/snapshot"
	"github.com/openmep/sleever/pkg/units"
)

// newClustersCmd creates the clusters command.
func newClustersCmd() *cobra.Command {
	var (
		openingsPath string
		snapshotPath string
		profilePath  string
	)

	cmd := &cobra.Command{
		Use:   "clusters",
		Short: "Preview cluster formation over an opening list",
		Long: `Clusters reads an opening list (as written by place --out) and shows
the consolidated openings a cluster pass would form, without changing
anything. Pass the snapshot too so merged depths can pick up host
thicknesses.`,
		Example: `  sleever clusters --openings openings.json --snapshot building.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())

			openings, err := snapshot.LoadOpenings(openingsPath)
			if err != nil {
				printError("Failed to load openings: %v", err)
				return err
			}

			var hosts []model.StructuralHost
			if snapshotPath != "" {
				provider, err := snapshot.Load(snapshotPath)
				if err != nil {
					printError("Failed to load snapshot: %v", err)
					return err
				}
				hosts = provider.Hosts
			}

			profile, err := loadProfile(profilePath)
			if err != nil {
				return err
			}
			conv, err := profile.Converter()
			if err != nil {
				return err
			}
			tol := units.FromConverter(conv)

			engine := clusterize.New(tol, logger)
			clusters, degenerate := engine.FormClusters(openings, hosts)

			printNewline()
			fmt.Println(StyleTitle.Render(fmt.Sprintf("Clusters over %d openings", len(openings))))
			printNewline()

			if len(clusters) == 0 {
				printInfo("No clusters would form")
			}
			for i, cl := range clusters {
				m := cl.Merged
				printInfo("cluster %d: %s in %s (%s)",
					i+1,
					StyleHighlight.Render(string(cl.Key.Category)),
					string(cl.Key.HostKind),
					cl.Key.Orientation)
				printDetail("members  %d", len(cl.Members))
				printDetail("size     %.0f x %.0f x %.0f", m.Width, m.Height, m.Depth)
				printDetail("center   (%.0f, %.0f, %.0f)", m.Position.X, m.Position.Y, m.Position.Z)
			}
			if degenerate > 0 {
				printNewline()
				printWarning("%d clusters below the minimum merged size were rejected", degenerate)
			}
			printNewline()
			return nil
		},
	}

	cmd.Flags().StringVar(&openingsPath, "openings", "", "opening list JSON file (required)")
	cmd.Flags().StringVarP(&snapshotPath, "snapshot", "s", "", "document snapshot file for host thickness lookups")
	cmd.Flags().StringVarP(&profilePath, "profile", "p", "", "clearance profile TOML file")
	_ = cmd.MarkFlagRequired("openings")

	return cmd
}
