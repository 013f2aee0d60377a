package syncer

import (
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/sonarsync/sonarsync/internal/findings"
	"github.com/sonarsync/sonarsync/internal/platform"
	"github.com/sonarsync/sonarsync/pkg/shared"
)

// HistoryLoader fetches the changelog and comment streams of one finding.
type HistoryLoader interface {
	History(f *findings.Finding) ([]findings.ChangelogEntry, []findings.Comment, error)
}

// PlatformLoader loads finding history from a platform client, dispatching on
// the finding kind.
type PlatformLoader struct {
	Client *platform.Client
}

// History fetches the finding's changelog and comments.
func (l PlatformLoader) History(f *findings.Finding) ([]findings.ChangelogEntry, []findings.Comment, error) {
	if f.IsHotspot() {
		return l.Client.Hotspots.History(f.Key)
	}
	entries, err := l.Client.Issues.Changelog(f.Key)
	if err != nil {
		return nil, nil, err
	}
	comments, err := l.Client.Issues.Comments(f.Key)
	if err != nil {
		return nil, nil, err
	}
	return entries, comments, nil
}

type historyResult struct {
	entries  []findings.ChangelogEntry
	comments []findings.Comment
	err      error
}

// loadHistories populates the changelog and comments of every finding in set,
// with at most workers concurrent fetches and a per-call timeout. One finding's
// failure is logged and counted; the batch continues. The number of failures is
// returned.
func loadHistories(set findings.Set, loader HistoryLoader, workers int, timeout time.Duration, logger hclog.Logger) int {
	items := make([]*findings.Finding, 0, len(set))
	for _, f := range set {
		items = append(items, f)
	}

	failures := 0
	var mu sync.Mutex

	shared.ForEveryWithBoundedGoroutines(workers, items, func(i int, f *findings.Finding) {
		entries, comments, err := loadWithTimeout(loader, f, timeout)
		if err != nil {
			logger.Error("failed to load finding history, skipping", "finding", f.Key, "error", err)
			mu.Lock()
			failures++
			mu.Unlock()
			return
		}
		f.Changelog = entries
		f.Comments = comments
	})

	return failures
}

// loadWithTimeout bounds one history fetch. A timed-out call is a failure for
// that one finding only; the late result is discarded.
func loadWithTimeout(loader HistoryLoader, f *findings.Finding, timeout time.Duration) ([]findings.ChangelogEntry, []findings.Comment, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	done := make(chan historyResult, 1)
	go func() {
		entries, comments, err := loader.History(f)
		done <- historyResult{entries: entries, comments: comments, err: err}
	}()

	select {
	case res := <-done:
		return res.entries, res.comments, res.err
	case <-time.After(timeout):
		return nil, nil, fmt.Errorf("history fetch for %q timed out after %s", f.Key, timeout)
	}
}
