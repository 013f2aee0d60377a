package replicate

import (
	"fmt"

	"github.com/sonarsync/sonarsync/internal/findings"
	"github.com/sonarsync/sonarsync/internal/platform"
)

// transitions of the issue workflow, by resolution outcome.
var issueTransitions = map[findings.Kind]string{
	findings.KindFalsePositive: "falsepositive",
	findings.KindWontFix:       "wontfix",
	findings.KindAccept:        "accept",
}

// issueActions drives the issue write API of one platform.
type issueActions struct {
	client  *platform.Client
	mqrMode bool
}

// NewIssueActions builds the Actions surface for issues on the given platform.
// mqrMode selects impact-based severity writes for servers running the MQR taxonomy.
func NewIssueActions(client *platform.Client, mqrMode bool) Actions {
	return &issueActions{client: client, mqrMode: mqrMode}
}

func (a *issueActions) Assign(key, login string) error {
	return a.client.Issues.Assign(key, login)
}

func (a *issueActions) Reopen(key string) error {
	return a.client.Issues.DoTransition(key, "reopen")
}

func (a *issueActions) Confirm(key string) error {
	return a.client.Issues.DoTransition(key, "confirm")
}

func (a *issueActions) Unconfirm(key string) error {
	return a.client.Issues.DoTransition(key, "unconfirm")
}

func (a *issueActions) SetSeverity(key, severity string, issueType findings.Type) error {
	return a.client.Issues.SetSeverity(key, severity, issueType, a.mqrMode)
}

func (a *issueActions) SetType(key, issueType string) error {
	return a.client.Issues.SetType(key, issueType)
}

func (a *issueActions) Resolve(key string, resolution findings.Kind) error {
	transition, ok := issueTransitions[resolution]
	if !ok {
		return fmt.Errorf("no issue transition for resolution %q", resolution)
	}
	return a.client.Issues.DoTransition(key, transition)
}

func (a *issueActions) SetTags(key string, tags []string) error {
	return a.client.Issues.SetTags(key, tags)
}

func (a *issueActions) AddComment(key, text string) error {
	return a.client.Issues.AddComment(key, text)
}

// hotspotActions drives the hotspot write API. Hotspots have a reduced
// workflow: a review status with a resolution instead of severity, type or
// assignment changes.
type hotspotActions struct {
	client *platform.Client
}

// NewHotspotActions builds the Actions surface for hotspots on the given platform.
func NewHotspotActions(client *platform.Client) Actions {
	return &hotspotActions{client: client}
}

func (a *hotspotActions) Assign(key, login string) error {
	return fmt.Errorf("hotspot assignment is not replayable")
}

func (a *hotspotActions) Reopen(key string) error {
	return a.client.Hotspots.ChangeStatus(key, "TO_REVIEW", "", "")
}

func (a *hotspotActions) Confirm(key string) error {
	return a.client.Hotspots.ChangeStatus(key, "REVIEWED", "ACKNOWLEDGED", "")
}

func (a *hotspotActions) Unconfirm(key string) error {
	return a.client.Hotspots.ChangeStatus(key, "TO_REVIEW", "", "")
}

func (a *hotspotActions) SetSeverity(key, severity string, issueType findings.Type) error {
	return fmt.Errorf("hotspot severity is not replayable")
}

func (a *hotspotActions) SetType(key, issueType string) error {
	return fmt.Errorf("hotspot type is not replayable")
}

func (a *hotspotActions) Resolve(key string, resolution findings.Kind) error {
	switch resolution {
	case findings.KindFalsePositive:
		return a.client.Hotspots.ChangeStatus(key, "REVIEWED", "SAFE", "")
	case findings.KindWontFix, findings.KindAccept:
		return a.client.Hotspots.ChangeStatus(key, "REVIEWED", "ACKNOWLEDGED", "")
	}
	return fmt.Errorf("no hotspot status for resolution %q", resolution)
}

func (a *hotspotActions) SetTags(key string, tags []string) error {
	return fmt.Errorf("hotspot tags are not replayable")
}

func (a *hotspotActions) AddComment(key, text string) error {
	return a.client.Hotspots.AddComment(key, text)
}
