package sync

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sonarsync/sonarsync/internal/platform"
	"github.com/sonarsync/sonarsync/internal/report"
	"github.com/sonarsync/sonarsync/pkg/shared/config"
	scanerrors "github.com/sonarsync/sonarsync/pkg/shared/errors"
	"github.com/sonarsync/sonarsync/pkg/shared/logger"
)

// RunOptions holds flags for the sync command.
type RunOptions struct {
	SourceURL     string `json:"source_url,omitempty"`
	SourceToken   string `json:"-"`
	TargetURL     string `json:"target_url,omitempty"`
	TargetToken   string `json:"-"`
	SourceProject string `json:"source_project,omitempty"`
	TargetProject string `json:"target_project,omitempty"`
	SourceBranch  string `json:"source_branch,omitempty"`
	TargetBranch  string `json:"target_branch,omitempty"`

	Apply           bool `json:"apply,omitempty"`
	Hotspots        bool `json:"hotspots,omitempty"`
	IgnoreComponent bool `json:"ignore_component,omitempty"`
	MQRTarget       bool `json:"mqr_target,omitempty"`
	NoAssignments   bool `json:"no_assignments,omitempty"`
	NoComments      bool `json:"no_comments,omitempty"`
	NoTags          bool `json:"no_tags,omitempty"`

	ReportPath string `json:"report_path,omitempty"`
	S3Bucket   string `json:"s3_bucket,omitempty"`
}

var (
	AppConfig *config.Config
	opts      RunOptions

	// SyncCmd represents the command replicating finding history between platforms.
	SyncCmd = &cobra.Command{
		Use:                   "sync --source-url URL --source-token TOKEN --target-url URL --target-token TOKEN [--apply]",
		Short:                 "Replay manual finding history from one platform onto another",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateSyncArgs(&opts); err != nil {
				return scanerrors.NewCommandError(err, 1)
			}
			return run()
		},
	}
)

func init() {
	SyncCmd.Flags().StringVar(&opts.SourceURL, "source-url", "", "base URL of the source platform")
	SyncCmd.Flags().StringVar(&opts.SourceToken, "source-token", os.Getenv("SONARSYNC_SOURCE_TOKEN"), "token for the source platform")
	SyncCmd.Flags().StringVar(&opts.TargetURL, "target-url", "", "base URL of the target platform")
	SyncCmd.Flags().StringVar(&opts.TargetToken, "target-token", os.Getenv("SONARSYNC_TARGET_TOKEN"), "token for the target platform")
	SyncCmd.Flags().StringVar(&opts.SourceProject, "source-project", "", "project key on the source platform (empty scans every project)")
	SyncCmd.Flags().StringVar(&opts.TargetProject, "target-project", "", "project key on the target platform (defaults to the source project)")
	SyncCmd.Flags().StringVar(&opts.SourceBranch, "source-branch", "", "branch on the source platform")
	SyncCmd.Flags().StringVar(&opts.TargetBranch, "target-branch", "", "branch on the target platform")
	SyncCmd.Flags().BoolVar(&opts.Apply, "apply", false, "apply changes; without it the run is a dry-run")
	SyncCmd.Flags().BoolVar(&opts.Hotspots, "hotspots", false, "also synchronize security hotspots")
	SyncCmd.Flags().BoolVar(&opts.IgnoreComponent, "ignore-component", false, "match findings across differing component keys")
	SyncCmd.Flags().BoolVar(&opts.MQRTarget, "mqr-target", false, "target platform runs the MQR severity taxonomy")
	SyncCmd.Flags().BoolVar(&opts.NoAssignments, "no-assignments", false, "do not replay assignments")
	SyncCmd.Flags().BoolVar(&opts.NoComments, "no-comments", false, "do not replay comments")
	SyncCmd.Flags().BoolVar(&opts.NoTags, "no-tags", false, "do not replay tag changes")
	SyncCmd.Flags().StringVar(&opts.ReportPath, "report", "", "write the full JSON report to this path")
	SyncCmd.Flags().StringVar(&opts.S3Bucket, "s3-bucket", "", "upload the JSON report to this S3 bucket")
}

func run() error {
	lg := logger.NewLogger(AppConfig, "sync")

	sourceClient, err := platform.New(AppConfig, lg.Named("source"), opts.SourceURL, platform.AuthInfo{Token: opts.SourceToken})
	if err != nil {
		return scanerrors.NewCommandError(fmt.Errorf("failed to reach source platform: %w", err), 2)
	}
	targetClient, err := platform.New(AppConfig, lg.Named("target"), opts.TargetURL, platform.AuthInfo{Token: opts.TargetToken})
	if err != nil {
		return scanerrors.NewCommandError(fmt.Errorf("failed to reach target platform: %w", err), 2)
	}

	sources, truncatedSource, err := collect(sourceClient, scopeOf(opts.SourceProject, opts.SourceBranch), lg.Named("source"))
	if err != nil {
		return scanerrors.NewCommandError(fmt.Errorf("source search failed: %w", err), 2)
	}
	targets, truncatedTarget, err := collect(targetClient, scopeOf(targetProject(), opts.TargetBranch), lg.Named("target"))
	if err != nil {
		return scanerrors.NewCommandError(fmt.Errorf("target search failed: %w", err), 2)
	}

	rep := report.New(opts.SourceURL, opts.TargetURL, !opts.Apply)
	rep.SearchTruncated = truncatedSource + truncatedTarget

	runSyncer(sourceClient, targetClient, targets, sources, rep, lg)

	rep.WriteSummary(os.Stdout)
	if opts.ReportPath != "" {
		if err := writeReportFile(rep, opts.ReportPath); err != nil {
			lg.Error("failed to write report file", "path", opts.ReportPath, "error", err)
		}
	}
	if opts.S3Bucket != "" {
		if _, err := report.UploadJSON(rep, opts.S3Bucket, lg); err != nil {
			lg.Error("failed to upload report", "bucket", opts.S3Bucket, "error", err)
		}
	}

	if unresolved := rep.Unresolved(); unresolved > 0 {
		return scanerrors.NewCommandError(fmt.Errorf("%d findings could not be resolved automatically", unresolved), unresolved)
	}
	return nil
}
