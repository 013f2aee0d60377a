package match

import (
	"strings"

	"github.com/sonarsync/sonarsync/internal/findings"
)

// Score thresholds of the weighted similarity function. A candidate matches
// approximately at the full score, or one point short of it when the content
// hashes agree: the hash fallback covers rules whose hash computation is not
// deterministic across environments.
const (
	fullScore     = 8
	hashFallback  = 7
	messageCutoff = 5
)

// Options tunes which dimensions the matcher compares. An ignored dimension
// counts as matching for the approximate score and is skipped by the exact test
// where noted.
type Options struct {
	IgnoreComponent bool
	IgnoreLine      bool
	IgnoreAuthor    bool
	IgnoreType      bool
	IgnoreSeverity  bool
}

// Classification is the 3-way outcome of matching one target finding against a
// candidate set. The buckets are disjoint: a candidate whose own manual history
// is newer than the target's lands in Disqualified regardless of its score,
// because applying it would overwrite newer manual work.
type Classification struct {
	Exact        []*findings.Finding
	Approximate  []*findings.Finding
	Disqualified []*findings.Finding
}

// Classify computes the sibling relation between the target finding and every
// candidate. Exact siblings share rule, content hash, message and file;
// approximate siblings reach the weighted score threshold. Candidates carrying
// manual history newer than the target's are disqualified from both buckets.
func Classify(target *findings.Finding, candidates []*findings.Finding, opts Options) Classification {
	var c Classification
	targetLast := target.LastManualChange()

	for _, candidate := range candidates {
		if candidate.Key == target.Key {
			continue
		}

		exact := isExact(target, candidate, opts)
		if !exact && !isApproximate(target, candidate, opts) {
			continue
		}

		// A target whose own manual history is newer than the candidate's would
		// have that work silently superseded by a replay; such candidates are
		// excluded from both matched buckets regardless of score.
		if !targetLast.IsZero() && candidate.LastManualChange().Before(targetLast) {
			c.Disqualified = append(c.Disqualified, candidate)
			continue
		}

		if exact {
			c.Exact = append(c.Exact, candidate)
		} else {
			c.Approximate = append(c.Approximate, candidate)
		}
	}

	sortByLineGap(target, c.Exact)
	return c
}

// isExact applies the strict identity test: same rule, same content hash, same
// message and same file, plus component equality unless ignored. Rules prone to
// duplicate-hash collisions on the same line get an additional column tie-break
// before equality is declared.
func isExact(target, candidate *findings.Finding, opts Options) bool {
	if candidate.Rule != target.Rule ||
		candidate.Hash != target.Hash ||
		candidate.Message != target.Message ||
		candidate.File() != target.File() {
		return false
	}
	if !opts.IgnoreComponent && candidate.Component != target.Component {
		return false
	}
	if duplicateHashProne(target.Rule) && candidate.StartColumn() != target.StartColumn() {
		return false
	}
	return true
}

// isApproximate computes the weighted similarity score, only consulted when no
// exact identity holds.
func isApproximate(target, candidate *findings.Finding, opts Options) bool {
	if candidate.Rule != target.Rule {
		return false
	}

	score := 0
	switch {
	case candidate.Message == target.Message:
		score += 2
	case DistanceWithin(candidate.Message, target.Message, messageCutoff) <= messageCutoff:
		score++
	}
	if candidate.File() == target.File() {
		score++
	}
	if opts.IgnoreLine || candidate.Line == target.Line {
		score++
	}
	if opts.IgnoreComponent || candidate.Component == target.Component {
		score++
	}
	if opts.IgnoreAuthor || candidate.Author == target.Author {
		score++
	}
	if opts.IgnoreType || candidate.Type == target.Type {
		score++
	}
	if opts.IgnoreSeverity || candidate.Severity == target.Severity {
		score++
	}

	if score >= fullScore {
		return true
	}
	return score >= hashFallback && candidate.Hash != "" && candidate.Hash == target.Hash
}

// duplicateHashProne reports whether the rule is known to produce identical
// content hashes for distinct findings on the same line, as duplicated-method
// detectors do.
func duplicateHashProne(rule string) bool {
	return strings.HasSuffix(rule, ":S4144")
}

// sortByLineGap orders exact siblings by absolute line distance from the
// target, scanning no further once a zero-gap candidate leads.
func sortByLineGap(target *findings.Finding, siblings []*findings.Finding) {
	if len(siblings) < 2 {
		return
	}
	best := 0
	bestGap := lineGap(target, siblings[0])
	for i := 1; i < len(siblings) && bestGap != 0; i++ {
		if gap := lineGap(target, siblings[i]); gap < bestGap {
			best, bestGap = i, gap
		}
	}
	siblings[0], siblings[best] = siblings[best], siblings[0]
}

func lineGap(a, b *findings.Finding) int {
	gap := a.Line - b.Line
	if gap < 0 {
		gap = -gap
	}
	return gap
}
