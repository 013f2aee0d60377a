package export

import (
	"fmt"
	"net/url"
	"time"

	"github.com/sonarsync/sonarsync/internal/search"
)

const dayFormat = "2006-01-02"

func validateExportArgs(opts *RunOptions) error {
	if opts.URL == "" {
		return fmt.Errorf("'url' flag must be specified")
	}
	if _, err := url.ParseRequestURI(opts.URL); err != nil {
		return fmt.Errorf("'url' flag is not a valid URL: %w", err)
	}
	if opts.Token == "" {
		return fmt.Errorf("'token' flag or SONARSYNC_TOKEN must be specified")
	}
	if opts.Branch != "" && opts.Project == "" {
		return fmt.Errorf("'branch' flag requires 'project'")
	}
	switch opts.Format {
	case "json", "sarif":
	default:
		return fmt.Errorf("'format' must be json or sarif, got %q", opts.Format)
	}
	return nil
}

// datedPredicate narrows the predicate to the creation-date window the flags
// describe. Either side may be left open.
func datedPredicate(p search.Predicate, after, before string) (search.Predicate, error) {
	var start, end time.Time
	var err error
	if after != "" {
		if start, err = time.Parse(dayFormat, after); err != nil {
			return p, fmt.Errorf("'created-after' must be a YYYY-MM-DD day: %w", err)
		}
	}
	if before != "" {
		if end, err = time.Parse(dayFormat, before); err != nil {
			return p, fmt.Errorf("'created-before' must be a YYYY-MM-DD day: %w", err)
		}
	}
	switch {
	case after != "" && before != "":
		if end.Before(start) {
			return p, fmt.Errorf("'created-before' day is earlier than 'created-after'")
		}
		return p.WithCreatedRange(start, end), nil
	case after != "":
		return p.With(search.FilterCreatedAfter, after), nil
	case before != "":
		return p.With(search.FilterCreatedBefore, before), nil
	}
	return p, nil
}
