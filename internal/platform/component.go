package platform

// Component identifies the scope findings are searched in. It is a closed set
// of variants: Project, Branch, PullRequest and ApplicationBranch. Each variant
// knows how to turn itself into the component-related search parameters.
type Component interface {
	// ResolveComponentKey returns the component key plus the branch or pull
	// request qualifier, either of which may be empty.
	ResolveComponentKey() (key, branch, pullRequest string)

	isComponent()
}

// Project scopes a search to a whole project's main branch.
type Project struct {
	Key string
}

func (p Project) ResolveComponentKey() (string, string, string) {
	return p.Key, "", ""
}

func (Project) isComponent() {}

// Branch scopes a search to one branch of a project.
type Branch struct {
	ProjectKey string
	Name       string
}

func (b Branch) ResolveComponentKey() (string, string, string) {
	return b.ProjectKey, b.Name, ""
}

func (Branch) isComponent() {}

// PullRequest scopes a search to one pull request of a project.
type PullRequest struct {
	ProjectKey string
	ID         string
}

func (pr PullRequest) ResolveComponentKey() (string, string, string) {
	return pr.ProjectKey, "", pr.ID
}

func (PullRequest) isComponent() {}

// ApplicationBranch scopes a search to one branch of an application.
type ApplicationBranch struct {
	ApplicationKey string
	Branch         string
}

func (ab ApplicationBranch) ResolveComponentKey() (string, string, string) {
	return ab.ApplicationKey, ab.Branch, ""
}

func (ApplicationBranch) isComponent() {}

// ComponentParams converts a component into search filter parameters. A nil
// component yields no scope filter at all.
func ComponentParams(c Component) map[string]string {
	if c == nil {
		return nil
	}
	key, branch, pullRequest := c.ResolveComponentKey()
	params := map[string]string{}
	if key != "" {
		params["componentKeys"] = key
	}
	if branch != "" {
		params["branch"] = branch
	}
	if pullRequest != "" {
		params["pullRequest"] = pullRequest
	}
	return params
}
