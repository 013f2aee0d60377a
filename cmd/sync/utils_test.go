package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sonarsync/sonarsync/internal/findings"
	"github.com/sonarsync/sonarsync/internal/platform"
)

func TestScopeOf(t *testing.T) {
	assert.Nil(t, scopeOf("", ""))
	assert.Equal(t, platform.Project{Key: "proj-a"}, scopeOf("proj-a", ""))
	assert.Equal(t, platform.Branch{ProjectKey: "proj-a", Name: "main"}, scopeOf("proj-a", "main"))
}

func TestTargetProjectDefaultsToSource(t *testing.T) {
	opts = RunOptions{SourceProject: "proj-src"}
	assert.Equal(t, "proj-src", targetProject())

	opts.TargetProject = "proj-tgt"
	assert.Equal(t, "proj-tgt", targetProject())
}

func TestSplitByKind(t *testing.T) {
	set := findings.Set{
		"i1": {Key: "i1", Type: findings.TypeBug},
		"i2": {Key: "i2", Type: findings.TypeCodeSmell},
		"h1": {Key: "h1", Type: findings.TypeHotspot},
	}

	issues, hotspots := splitByKind(set)

	assert.Len(t, issues, 2)
	assert.Len(t, hotspots, 1)
	assert.Contains(t, hotspots, "h1")
}
