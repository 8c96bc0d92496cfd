package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/openmep/sleever/pkg/config"
	"github.com/openmep/sleever/pkg/model"
	"github.com/openmep/sleever/pkg/pipeline"
	"github.com/openmep/sleever/pkg/render"
	"github.com/openmep/sleever/pkg/snapshot"
	"github.com/openmep/sleever/pkg/store"
	"github.com/openmep/sleever/pkg/store/memstore"
	"github.com/openmep/sleever/pkg/store/mongodoc"
)

// newPlaceCmd creates the place command.
func newPlaceCmd() *cobra.Command {
	var (
		snapshotPath string
		profilePath  string
		categories   []string
		outPath      string
		svgPath      string
		skipClusters bool
		probeCutoff  float64
		interactive  bool
		mongoURI     string
		mongoDB      string
	)

	cmd := &cobra.Command{
		Use:   "place",
		Short: "Resolve crossings and place sleeve openings",
		Long: `Place runs the full pipeline over a document snapshot: resolve every
crossing between routing elements and structural hosts, place individual
openings with duplicate suppression, then consolidate adjacent openings
into merged clusters.

Openings are held in memory by default and written to --out. With
--mongo-uri the run persists into a MongoDB collection instead, inside
one transaction.`,
		Example: `  # Place openings for every category
  sleever place --snapshot building.json --out openings.json

  # Pipes only, with a custom clearance profile
  sleever place --snapshot building.json --profile site.toml --categories pipe

  # Persist into MongoDB
  sleever place --snapshot building.json --mongo-uri mongodb://localhost:27017 --mongo-db coordination`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cats, err := resolveCategories(categories, interactive)
			if err != nil {
				return err
			}
			if interactive && cats == nil {
				printInfo("cancelled")
				return nil
			}

			profile, err := loadProfile(profilePath)
			if err != nil {
				return err
			}

			spin := newSpinnerWithContext(ctx, "Loading snapshot...")
			spin.Start()
			provider, existing, err := snapshot.LoadDocument(snapshotPath)
			if err != nil {
				spin.StopWithError(fmt.Sprintf("Failed to load snapshot: %v", err))
				return err
			}
			spin.Stop()
			printInfo("Loaded %s elements, %s hosts",
				StyleHighlight.Render(fmt.Sprintf("%d", len(provider.Elements))),
				StyleHighlight.Render(fmt.Sprintf("%d", len(provider.Hosts))))

			openings, cleanup, err := openStore(ctx, mongoURI, mongoDB, existing)
			if err != nil {
				return err
			}
			defer cleanup()

			runner := pipeline.NewRunner(provider, openings, nil, logger)
			opts := pipeline.Options{
				Categories:   cats,
				Profile:      profile,
				SkipClusters: skipClusters,
				ProbeCutoff:  probeCutoff,
				Logger:       logger,
			}

			track := newProgress(logger)
			result, err := runner.Execute(ctx, opts)
			if err != nil {
				printError("Run failed: %v", err)
				return err
			}
			track.done(fmt.Sprintf("Placed %d openings", result.Report.Placed))

			printReport(result)

			if outPath != "" {
				if err := writeOpenings(ctx, outPath, openings); err != nil {
					return err
				}
				printFile(outPath)
			}
			if svgPath != "" {
				if err := writePlanSVG(ctx, svgPath, snapshotPath, openings, provider.Hosts); err != nil {
					return err
				}
				printFile(svgPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&snapshotPath, "snapshot", "s", "", "document snapshot file (required)")
	cmd.Flags().StringVarP(&profilePath, "profile", "p", "", "clearance profile TOML file")
	cmd.Flags().StringSliceVarP(&categories, "categories", "c", nil, "categories to process (pipe, duct, cable_tray, damper)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write placed openings to this JSON file")
	cmd.Flags().StringVar(&svgPath, "svg", "", "write a plan-view SVG preview to this file")
	cmd.Flags().BoolVar(&skipClusters, "skip-clusters", false, "skip the cluster consolidation stage")
	cmd.Flags().Float64Var(&probeCutoff, "probe-cutoff", 0, "wall ray-probe cutoff in internal units (0 = default)")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "pick categories interactively")
	cmd.Flags().StringVar(&mongoURI, "mongo-uri", "", "persist openings to this MongoDB instance")
	cmd.Flags().StringVar(&mongoDB, "mongo-db", "sleever", "MongoDB database name")
	_ = cmd.MarkFlagRequired("snapshot")

	return cmd
}

// resolveCategories parses --categories, or runs the interactive picker.
// A nil, nil return in interactive mode means the picker was cancelled.
func resolveCategories(names []string, interactive bool) ([]model.Category, error) {
	if interactive {
		return pickCategories()
	}
	var cats []model.Category
	for _, name := range names {
		cat, err := model.ParseCategory(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		cats = append(cats, cat)
	}
	return cats, nil
}

// loadProfile reads the clearance profile, falling back to defaults.
func loadProfile(path string) (config.Profile, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// openStore picks the opening store: MongoDB when a URI is given, an
// in-memory store seeded with the snapshot's pre-existing openings
// otherwise. The returned cleanup disconnects the client.
func openStore(ctx context.Context, uri, database string, existing []model.Opening) (store.OpeningStore, func(), error) {
	if uri == "" {
		return memstore.New(existing...), func() {}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(connectCtx, mongoopts.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("ping mongodb: %w", err)
	}

	cleanup := func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
	}
	return mongodoc.New(client, database, ""), cleanup, nil
}

// printReport prints the end-of-run counters and warnings.
func printReport(result *pipeline.Result) {
	rep := result.Report
	printCounts(map[string]int{
		"placed":     rep.Placed,
		"suppressed": rep.Suppressed,
		"skipped":    rep.Skipped,
		"errored":    rep.Errored,
		"merged":     rep.Merged,
		"deleted":    rep.Deleted,
		"degenerate": rep.Degenerate,
	}, []string{"placed", "suppressed", "skipped", "errored", "merged", "deleted", "degenerate"})

	for _, w := range rep.Warnings {
		printWarning("%s", w)
	}
}

// writePlanSVG renders the surviving openings over the host footprints.
func writePlanSVG(ctx context.Context, path, title string, openings store.OpeningStore, hosts []model.StructuralHost) error {
	all, err := openings.FindExisting(ctx, store.OpeningFilter{})
	if err != nil {
		return err
	}
	svg := render.RenderPlanSVG(all,
		render.WithHosts(hosts),
		render.WithTitle(title))
	if err := os.WriteFile(path, svg, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// writeOpenings exports the surviving opening inventory to a JSON file.
// Individuals that were merged into a cluster are already gone from the
// store, so the export reflects what a model would actually contain.
func writeOpenings(ctx context.Context, path string, openings store.OpeningStore) error {
	all, err := openings.FindExisting(ctx, store.OpeningFilter{})
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return snapshot.ExportOpenings(f, all)
}
