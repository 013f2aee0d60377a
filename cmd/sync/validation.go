package sync

import (
	"fmt"
	"net/url"
)

// validateSyncArgs validates the arguments provided to the sync command.
func validateSyncArgs(options *RunOptions) error {
	if options.SourceURL == "" {
		return fmt.Errorf("the 'source-url' flag must be specified")
	}
	if options.TargetURL == "" {
		return fmt.Errorf("the 'target-url' flag must be specified")
	}
	for _, u := range []string{options.SourceURL, options.TargetURL} {
		if _, err := url.ParseRequestURI(u); err != nil {
			return fmt.Errorf("provided URL %q is not valid: %w", u, err)
		}
	}
	if options.SourceToken == "" {
		return fmt.Errorf("the 'source-token' flag or SONARSYNC_SOURCE_TOKEN must be specified")
	}
	if options.TargetToken == "" {
		return fmt.Errorf("the 'target-token' flag or SONARSYNC_TARGET_TOKEN must be specified")
	}
	if options.SourceURL == options.TargetURL && options.SourceProject == "" {
		return fmt.Errorf("syncing a platform onto itself requires a 'source-project'")
	}
	if options.SourceBranch != "" && options.SourceProject == "" {
		return fmt.Errorf("the 'source-branch' flag requires 'source-project'")
	}
	if options.TargetBranch != "" && targetProject() == "" {
		return fmt.Errorf("the 'target-branch' flag requires a project key")
	}
	return nil
}
