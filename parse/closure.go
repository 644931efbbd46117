package parse

import (
	"fmt"
	"strings"

	"github.com/randalmurphal/qw/artifact"
	"github.com/randalmurphal/qw/graph"
)

// Closures reads the closure reason of every closed issue that no pull
// request resolves. It runs after link resolution because only then is it
// known which issues a pull request closed. Parsed reasons are stored on the
// artifacts.
func Closures(g *graph.Graph) []artifact.ParseProblem {
	var problems []artifact.ParseProblem

	for _, a := range g.QwArtifacts() {
		if a.IsPR || !a.State.Closed() || len(g.ResolvingPRs(a.ID)) > 0 {
			continue
		}

		text := a.Fields[artifact.FieldClosureReason]
		if text == "" {
			if a.State == artifact.StateClosedNotPlanned {
				problems = append(problems, artifact.ParseProblem{
					ArtifactID: a.ID,
					Field:      artifact.FieldClosureReason,
					Reason:     "closed as not planned without a closure reason",
				})
			}
			continue
		}

		t, ok := artifact.ParseClosureType(firstLine(text))
		if !ok {
			problems = append(problems, artifact.ParseProblem{
				ArtifactID: a.ID,
				Field:      artifact.FieldClosureReason,
				Reason:     fmt.Sprintf("unknown closure reason %q; want one of %s", firstLine(text), allowedClosures()),
			})
			continue
		}
		a.ClosureReason = &artifact.ClosureReason{
			Type:        t,
			Explanation: a.Fields[artifact.FieldExplanation],
		}
	}

	SortProblems(problems)
	return problems
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}

func allowedClosures() string {
	names := make([]string, 0, len(artifact.ClosureTypes))
	for _, t := range artifact.ClosureTypes {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}
