package artifact

import "fmt"

// Kind classifies a tracked item.
type Kind string

// Artifact kinds, in canonical chain order.
const (
	KindUserNeed           Kind = "user-need"
	KindRequirement        Kind = "requirement"
	KindDesignOutput       Kind = "design-output"
	KindDesignVerification Kind = "design-verification"
	KindDesignValidation   Kind = "design-validation"

	// KindNonQw marks items excluded from every check.
	KindNonQw Kind = "non-qw"
)

// Labels that classify issues and pull requests.
const (
	LabelUserNeed           = "qw-user-need"
	LabelRequirement        = "qw-requirement"
	LabelDesignOutput       = "qw-design-output"
	LabelDesignVerification = "qw-design-verification"
	LabelDesignValidation   = "qw-design-validation"
	LabelIgnore             = "qw-ignore"

	// LabelNeedsReverification is applied to children of a bumped artifact.
	LabelNeedsReverification = "qw-needs-reverification"
)

// Chain lists the QW kinds from the top of the chain down.
var Chain = []Kind{
	KindUserNeed,
	KindRequirement,
	KindDesignOutput,
	KindDesignVerification,
	KindDesignValidation,
}

var kindLabels = map[string]Kind{
	LabelUserNeed:           KindUserNeed,
	LabelRequirement:        KindRequirement,
	LabelDesignOutput:       KindDesignOutput,
	LabelDesignVerification: KindDesignVerification,
	LabelDesignValidation:   KindDesignValidation,
}

// Level returns the position of k in the chain, or -1 for non-QW items.
func (k Kind) Level() int {
	for i, c := range Chain {
		if c == k {
			return i
		}
	}
	return -1
}

// IsQw reports whether k takes part in the chain.
func (k Kind) IsQw() bool {
	return k.Level() >= 0
}

// Label returns the label that marks an item as k.
func (k Kind) Label() string {
	for label, kind := range kindLabels {
		if kind == k {
			return label
		}
	}
	return ""
}

// String returns a human-readable name such as "Design output".
func (k Kind) String() string {
	switch k {
	case KindUserNeed:
		return "User need"
	case KindRequirement:
		return "Requirement"
	case KindDesignOutput:
		return "Design output"
	case KindDesignVerification:
		return "Design verification"
	case KindDesignValidation:
		return "Design validation"
	case KindNonQw:
		return "Non-QW item"
	default:
		return string(k)
	}
}

// ParseKind converts a kind name back to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if k == KindNonQw || k.IsQw() {
		return k, nil
	}
	return "", fmt.Errorf("unknown artifact kind %q", s)
}

// KindFromLabels classifies an item by its labels. The ignore label wins over
// everything else. Issues without a kind label are not QW items; pull requests
// default to design outputs. More than one kind label is ambiguous and reported
// through ok == false.
func KindFromLabels(labels []string, isPR bool) (kind Kind, ok bool) {
	var found []Kind
	for _, l := range labels {
		if l == LabelIgnore {
			return KindNonQw, true
		}
		if k, known := kindLabels[l]; known {
			found = append(found, k)
		}
	}

	switch {
	case len(found) == 1:
		return found[0], true
	case len(found) > 1:
		return KindNonQw, false
	case isPR:
		return KindDesignOutput, true
	default:
		return KindNonQw, true
	}
}

// HasLabel reports whether labels contains label.
func HasLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}
