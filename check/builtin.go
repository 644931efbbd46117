package check

import (
	"fmt"

	"github.com/randalmurphal/qw/artifact"
	"github.com/randalmurphal/qw/resolve"
)

// Check names.
const (
	UserNeedLinksLabelled  = "User need links have qw-user-need label"
	UserNeedLinksExist     = "User Need links must exist"
	ClosingIssuesAreReqs   = "Closing Issues are Requirements"
	NoParentIssue          = "No parent issue is given for a PR"
	ParentLinksResolve     = "Parent links resolve"
	ParentLinksFollowChain = "Parent links follow the chain"
	ComponentRegistered    = "Component must be registered"
	VerificationHasTests   = "Verification has test mapping"
	TestMappingWellFormed  = "Test mapping table is well formed"
	ClosureReasonValid     = "Closure reason is valid"
	ArtifactParsesCleanly  = "Artifact parses cleanly"
	CheckConfiguration     = "Check configuration"
)

var (
	pullRequestKinds = []artifact.Kind{
		artifact.KindDesignOutput,
		artifact.KindDesignVerification,
		artifact.KindDesignValidation,
	}
	testedKinds = []artifact.Kind{
		artifact.KindDesignVerification,
		artifact.KindDesignValidation,
	}
	// Kinds whose parent links are not covered by the user need checks.
	nonRequirementKinds = []artifact.Kind{
		artifact.KindUserNeed,
		artifact.KindDesignOutput,
		artifact.KindDesignVerification,
		artifact.KindDesignValidation,
	}
)

// Builtin returns the registered checks in a fixed order.
func Builtin() []Check {
	return []Check{
		{
			Name:        UserNeedLinksLabelled,
			Description: "Every parent a requirement names must be a user need in this repository.",
			Kinds:       []artifact.Kind{artifact.KindRequirement},
			Artifact: problemMessages(func(p resolve.ResolutionProblem) bool {
				switch p.Code {
				case resolve.CodeWrongKind, resolve.CodeUnresolved, resolve.CodeForeign:
					return true
				}
				return false
			}),
		},
		{
			Name:        UserNeedLinksExist,
			Description: "Every requirement must trace back to at least one user need.",
			Kinds:       []artifact.Kind{artifact.KindRequirement},
			Artifact:    userNeedExists,
		},
		{
			Name:        ClosingIssuesAreReqs,
			Description: "The issues a pull request closes must be QW items further up the chain.",
			Kinds:       pullRequestKinds,
			Artifact: problemMessages(func(p resolve.ResolutionProblem) bool {
				return p.Edge.Closing && (p.Code == resolve.CodeWrongKind || p.Code == resolve.CodeUnresolved)
			}),
		},
		{
			Name:        NoParentIssue,
			Description: "Every pull request must close an issue.",
			Kinds:       pullRequestKinds,
			Artifact: problemMessages(func(p resolve.ResolutionProblem) bool {
				return p.Code == resolve.CodeNoParent
			}),
		},
		{
			Name:        ParentLinksResolve,
			Description: "Linked issues must exist in this repository.",
			Kinds:       nonRequirementKinds,
			Artifact: problemMessages(func(p resolve.ResolutionProblem) bool {
				return !p.Edge.Closing && (p.Code == resolve.CodeUnresolved || p.Code == resolve.CodeForeign)
			}),
		},
		{
			Name:        ParentLinksFollowChain,
			Description: "Linked items must sit higher in the chain under the configured chain-start policy.",
			Kinds:       nonRequirementKinds,
			Artifact: problemMessages(func(p resolve.ResolutionProblem) bool {
				return !p.Edge.Closing && p.Code == resolve.CodeWrongKind
			}),
		},
		{
			Name:        ComponentRegistered,
			Description: "A requirement's component must be in the component registry.",
			Kinds:       []artifact.Kind{artifact.KindRequirement},
			Artifact:    componentRegistered,
		},
		{
			Name:        VerificationHasTests,
			Description: "Design verification and validation pull requests must be targeted by a test.",
			Kinds:       testedKinds,
			Artifact:    verificationHasTests,
		},
		{
			Name:        TestMappingWellFormed,
			Description: "Every row of the test mapping table must be readable.",
			Global:      testMappingWellFormed,
		},
		{
			Name:        ClosureReasonValid,
			Description: "Issues closed without a resolving pull request must give a valid closure reason.",
			Kinds:       []artifact.Kind{artifact.KindUserNeed, artifact.KindRequirement},
			Artifact:    closureReasonValid,
		},
		{
			Name:        ArtifactParsesCleanly,
			Description: "Issue and pull request bodies must follow the templates.",
			Global:      artifactParsesCleanly,
		},
		{
			Name:            CheckConfiguration,
			Description:     "The check configuration must only name known checks.",
			DefaultSeverity: SeverityWarning,
			Global:          checkConfiguration,
		},
	}
}

func problemMessages(match func(resolve.ResolutionProblem) bool) func(*Env, *artifact.Artifact) []string {
	return func(env *Env, a *artifact.Artifact) []string {
		var out []string
		for _, p := range env.ResolutionProblems(a.ID) {
			if match(p) {
				out = append(out, p.Reason)
			}
		}
		return out
	}
}

func userNeedExists(env *Env, a *artifact.Artifact) []string {
	for _, anc := range env.Graph.Ancestors(a.ID) {
		if anc.Kind == artifact.KindUserNeed {
			return nil
		}
	}
	return []string{fmt.Sprintf("%s has no user need", a.DisplayName())}
}

func componentRegistered(env *Env, a *artifact.Artifact) []string {
	if a.ComponentCode == "" {
		return nil
	}
	if _, ok := artifact.FindComponent(env.Components, a.ComponentCode); ok {
		return nil
	}
	return []string{fmt.Sprintf("component %q is not registered", a.ComponentCode)}
}

func verificationHasTests(env *Env, a *artifact.Artifact) []string {
	if env.TestMap.Covers(a.ID) {
		return nil
	}
	return []string{fmt.Sprintf("no test in the test mapping targets %s", a.ID)}
}

func testMappingWellFormed(env *Env) []Finding {
	if env.TestMap == nil {
		return nil
	}
	var out []Finding
	for _, issue := range env.TestMap.Issues {
		out = append(out, Finding{
			Message: fmt.Sprintf("%s line %d: %s", env.TestMap.Source, issue.Line, issue.Reason),
		})
	}
	return out
}

func closureReasonValid(env *Env, a *artifact.Artifact) []string {
	var out []string
	for _, p := range env.ParseProblems(a.ID) {
		if p.Field == artifact.FieldClosureReason {
			out = append(out, p.Reason)
		}
	}
	return out
}

func artifactParsesCleanly(env *Env) []Finding {
	var out []Finding
	for _, p := range env.allParse {
		if p.Field == artifact.FieldClosureReason || !env.InScope(p.ArtifactID) {
			continue
		}
		msg := p.Reason
		if p.Field != "" {
			msg = fmt.Sprintf("%s: %s", p.Field, p.Reason)
		}
		out = append(out, Finding{ArtifactID: p.ArtifactID, Message: msg})
	}
	return out
}

func checkConfiguration(env *Env) []Finding {
	var out []Finding
	for _, name := range env.Config.Unknown(env.checks) {
		out = append(out, Finding{
			Message: fmt.Sprintf("unknown check %q in %s", name, env.Config.Source),
		})
	}
	return out
}
