package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/sonarsync/sonarsync/internal/findings"
	"github.com/sonarsync/sonarsync/internal/platform"
	"github.com/sonarsync/sonarsync/internal/report"
	"github.com/sonarsync/sonarsync/internal/search"
	"github.com/sonarsync/sonarsync/pkg/shared/config"
	scanerrors "github.com/sonarsync/sonarsync/pkg/shared/errors"
	"github.com/sonarsync/sonarsync/pkg/shared/logger"
)

// RunOptions holds flags for the export command.
type RunOptions struct {
	URL           string `json:"url,omitempty"`
	Token         string `json:"-"`
	Project       string `json:"project,omitempty"`
	Branch        string `json:"branch,omitempty"`
	Hotspots      bool   `json:"hotspots,omitempty"`
	CreatedAfter  string `json:"created_after,omitempty"`
	CreatedBefore string `json:"created_before,omitempty"`
	Format        string `json:"format,omitempty"` // json|sarif
	Output        string `json:"output,omitempty"`
}

var (
	AppConfig *config.Config
	opts      RunOptions

	// ExportCmd represents the command dumping an exhaustively searched finding set.
	ExportCmd = &cobra.Command{
		Use:                   "export --url URL --token TOKEN [--project KEY] [--format json|sarif]",
		Short:                 "Exhaustively search findings and dump them as JSON or SARIF",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateExportArgs(&opts); err != nil {
				return scanerrors.NewCommandError(err, 1)
			}
			return run()
		},
	}
)

func init() {
	ExportCmd.Flags().StringVar(&opts.URL, "url", "", "base URL of the platform")
	ExportCmd.Flags().StringVar(&opts.Token, "token", os.Getenv("SONARSYNC_TOKEN"), "token for the platform")
	ExportCmd.Flags().StringVar(&opts.Project, "project", "", "project key (empty scans every project)")
	ExportCmd.Flags().StringVar(&opts.Branch, "branch", "", "branch name")
	ExportCmd.Flags().BoolVar(&opts.Hotspots, "hotspots", false, "also export security hotspots")
	ExportCmd.Flags().StringVar(&opts.CreatedAfter, "created-after", "", "only findings created on or after this day (YYYY-MM-DD)")
	ExportCmd.Flags().StringVar(&opts.CreatedBefore, "created-before", "", "only findings created on or before this day (YYYY-MM-DD)")
	ExportCmd.Flags().StringVar(&opts.Format, "format", "json", "output format, json or sarif")
	ExportCmd.Flags().StringVar(&opts.Output, "output", "", "output path (default stdout)")
}

func run() error {
	lg := logger.NewLogger(AppConfig, "export")

	client, err := platform.New(AppConfig, lg, opts.URL, platform.AuthInfo{Token: opts.Token})
	if err != nil {
		return scanerrors.NewCommandError(fmt.Errorf("failed to reach platform: %w", err), 2)
	}

	var scope platform.Component
	if opts.Project != "" {
		if opts.Branch != "" {
			scope = platform.Branch{ProjectKey: opts.Project, Name: opts.Branch}
		} else {
			scope = platform.Project{Key: opts.Project}
		}
	}
	predicate, err := datedPredicate(search.ScopedPredicate(scope), opts.CreatedAfter, opts.CreatedBefore)
	if err != nil {
		return scanerrors.NewCommandError(err, 1)
	}

	engine := search.NewIssueEngine(client, AppConfig.Sync, lg)
	result, err := engine.Search(predicate)
	if err != nil {
		return scanerrors.NewCommandError(fmt.Errorf("search failed: %w", err), 2)
	}
	set := result.Findings

	if opts.Hotspots {
		hotspotEngine := search.NewHotspotEngine(client, AppConfig.Sync, lg)
		hotspotResult, err := hotspotEngine.Search(predicate)
		if err != nil {
			return scanerrors.NewCommandError(fmt.Errorf("hotspot search failed: %w", err), 2)
		}
		set.Merge(hotspotResult.Findings)
	}

	if result.Truncated > 0 {
		lg.Warn("search hit unsplittable partitions, some findings were dropped", "dropped", result.Truncated)
	}
	lg.Info("export complete", "findings", len(set))

	out := io.Writer(os.Stdout)
	if opts.Output != "" {
		file, err := os.Create(opts.Output)
		if err != nil {
			return scanerrors.NewCommandError(fmt.Errorf("failed to create output file: %w", err), 2)
		}
		defer file.Close()
		out = file
	}

	if opts.Format == "sarif" {
		if err := report.WriteSARIF(out, set); err != nil {
			return scanerrors.NewCommandError(err, 2)
		}
		return nil
	}
	return writeJSON(out, set)
}

// writeJSON dumps the finding set as a JSON array ordered by finding key.
func writeJSON(w io.Writer, set findings.Set) error {
	list := make([]*findings.Finding, 0, len(set))
	for _, f := range set {
		list = append(list, f)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Key < list[j].Key })

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(list)
}
