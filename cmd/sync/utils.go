package sync

import (
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/sonarsync/sonarsync/internal/findings"
	"github.com/sonarsync/sonarsync/internal/match"
	"github.com/sonarsync/sonarsync/internal/platform"
	"github.com/sonarsync/sonarsync/internal/replicate"
	"github.com/sonarsync/sonarsync/internal/report"
	"github.com/sonarsync/sonarsync/internal/search"
	"github.com/sonarsync/sonarsync/internal/syncer"
)

func targetProject() string {
	if opts.TargetProject != "" {
		return opts.TargetProject
	}
	return opts.SourceProject
}

// scopeOf builds the component scope for one side. Empty project means the
// whole platform; the search engine then decomposes by project as needed.
func scopeOf(project, branch string) platform.Component {
	if project == "" {
		return nil
	}
	if branch != "" {
		return platform.Branch{ProjectKey: project, Name: branch}
	}
	return platform.Project{Key: project}
}

// collect runs the exhaustive searches for the configured finding kinds on one
// platform, merging issues and hotspots into one keyed set.
func collect(client *platform.Client, scope platform.Component, lg hclog.Logger) (findings.Set, int, error) {
	predicate := search.ScopedPredicate(scope)

	engine := search.NewIssueEngine(client, AppConfig.Sync, lg)
	result, err := engine.Search(predicate)
	if err != nil {
		return nil, 0, err
	}
	set, truncated := result.Findings, result.Truncated
	if result.Failed > 0 {
		lg.Warn("some issue search partitions failed", "partitions", result.Failed)
	}

	if opts.Hotspots {
		hotspotEngine := search.NewHotspotEngine(client, AppConfig.Sync, lg)
		hotspotResult, err := hotspotEngine.Search(predicate)
		if err != nil {
			return nil, 0, err
		}
		set.Merge(hotspotResult.Findings)
		truncated += hotspotResult.Truncated
		if hotspotResult.Failed > 0 {
			lg.Warn("some hotspot search partitions failed", "partitions", hotspotResult.Failed)
		}
	}

	return set, truncated, nil
}

// runSyncer splits the finding sets by kind, since issues and hotspots replay
// through different write APIs, and runs the per-finding loop for each kind.
func runSyncer(sourceClient, targetClient *platform.Client, targets, sources findings.Set, rep *report.Report, lg hclog.Logger) {
	syncOpts := syncer.Options{
		MatchOptions: match.Options{IgnoreComponent: opts.IgnoreComponent},
		Policy: replicate.Policy{
			Assignments: !opts.NoAssignments,
			Comments:    !opts.NoComments,
			Tags:        !opts.NoTags,
		},
		DryRun:         !opts.Apply,
		Workers:        AppConfig.Sync.Workers,
		HistoryTimeout: AppConfig.Sync.ChangelogTimeout,
	}
	sourceLoader := syncer.PlatformLoader{Client: sourceClient}
	targetLoader := syncer.PlatformLoader{Client: targetClient}

	issueTargets, hotspotTargets := splitByKind(targets)
	issueSources, hotspotSources := splitByKind(sources)

	issueSyncer := syncer.New(sourceLoader, targetLoader,
		replicate.NewReplicator(replicate.NewIssueActions(targetClient, opts.MQRTarget), lg.Named("replicate")),
		lg, syncOpts)
	issueSyncer.Run(issueTargets, issueSources, rep)

	if opts.Hotspots {
		hotspotSyncer := syncer.New(sourceLoader, targetLoader,
			replicate.NewReplicator(replicate.NewHotspotActions(targetClient), lg.Named("replicate")),
			lg, syncOpts)
		hotspotSyncer.Run(hotspotTargets, hotspotSources, rep)
	}
}

func splitByKind(set findings.Set) (issues, hotspots findings.Set) {
	issues, hotspots = findings.Set{}, findings.Set{}
	for key, f := range set {
		if f.IsHotspot() {
			hotspots[key] = f
		} else {
			issues[key] = f
		}
	}
	return issues, hotspots
}

func writeReportFile(rep *report.Report, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return rep.WriteJSON(file)
}
