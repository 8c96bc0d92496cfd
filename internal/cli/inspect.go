package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/openmep/sleever/pkg/model"
	"github.com/openmep/sleever/pkg/pipeline"
	"github.com/openmep/sleever/pkg/snapshot"
	"github.com/openmep/sleever/pkg/store"
	"github.com/openmep/sleever/pkg/store/memstore"
)

// newInspectCmd creates the inspect command.
func newInspectCmd() *cobra.Command {
	var (
		snapshotPath string
		profilePath  string
		dryRun       bool
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Summarize the elements and hosts of a snapshot",
		Long: `Inspect loads a document snapshot and prints what a placement run
would see: routing elements per category, structural hosts per kind,
and the linked source documents involved.

With --resolve the full pipeline runs against a throwaway in-memory
store, printing the report a real run would produce without changing
anything.`,
		Example: `  sleever inspect --snapshot building.json
  sleever inspect --snapshot building.json --resolve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, existing, err := snapshot.LoadDocument(snapshotPath)
			if err != nil {
				printError("Failed to load snapshot: %v", err)
				return err
			}

			printNewline()
			fmt.Println(StyleTitle.Render("Snapshot: " + snapshotPath))
			printNewline()

			byCategory := map[string]int{}
			curved := 0
			docs := map[string]bool{}
			for _, el := range provider.Elements {
				byCategory[string(el.Category)]++
				if !el.IsStraight() {
					curved++
				}
				if el.SourceDoc != "" {
					docs[el.SourceDoc] = true
				}
			}
			printKeyValue("elements", fmt.Sprintf("%d", len(provider.Elements)))
			for _, key := range sortedKeys(byCategory) {
				printDetail("%-12s %d", key, byCategory[key])
			}
			if curved > 0 {
				printWarning("%d elements have non-straight centerlines and will be skipped", curved)
			}

			printNewline()
			byKind := map[string]int{}
			for _, h := range provider.Hosts {
				byKind[string(h.Kind)]++
				if h.SourceDoc != "" {
					docs[h.SourceDoc] = true
				}
			}
			printKeyValue("hosts", fmt.Sprintf("%d", len(provider.Hosts)))
			for _, key := range sortedKeys(byKind) {
				printDetail("%-12s %d", key, byKind[key])
			}

			if len(docs) > 0 {
				printNewline()
				printKeyValue("linked docs", fmt.Sprintf("%d", len(docs)))
				for _, doc := range sortedKeys(docs) {
					printDetail("%s", doc)
				}
			}
			printNewline()

			if dryRun {
				return dryRunResolve(cmd, provider, existing, profilePath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&snapshotPath, "snapshot", "s", "", "document snapshot file (required)")
	cmd.Flags().StringVarP(&profilePath, "profile", "p", "", "clearance profile TOML file")
	cmd.Flags().BoolVar(&dryRun, "resolve", false, "run the pipeline against a throwaway store")
	_ = cmd.MarkFlagRequired("snapshot")

	return cmd
}

// dryRunResolve executes the pipeline on an in-memory store seeded with
// the snapshot's pre-existing openings. Nothing outlives the command.
func dryRunResolve(cmd *cobra.Command, provider *store.StaticProvider, existing []model.Opening, profilePath string) error {
	logger := loggerFromContext(cmd.Context())

	profile, err := loadProfile(profilePath)
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(provider, memstore.New(existing...), nil, logger)
	result, err := runner.Execute(cmd.Context(), pipeline.Options{
		Profile: profile,
		Logger:  logger,
	})
	if err != nil {
		printError("Dry run failed: %v", err)
		return err
	}

	fmt.Println(StyleTitle.Render("Dry run"))
	printReport(result)
	printNewline()
	return nil
}

// sortedKeys returns the map keys in sorted order for stable output.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
