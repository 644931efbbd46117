package artifact

// Section headings recognized in issue and pull request bodies.
const (
	FieldDescription        = "Description"
	FieldParentUserNeed     = "Parent user need"
	FieldSystemRequirements = "System requirements"
	FieldLinkedIssue        = "Linked issue"
	FieldRequirementType    = "Type of requirement"
	FieldComponent          = "Component"
	FieldClosureReason      = "Closure reason"
	FieldExplanation        = "Explanation"
	FieldOtherInformation   = "Other information"
)

// Fields lists every recognized heading.
var Fields = []string{
	FieldDescription,
	FieldParentUserNeed,
	FieldSystemRequirements,
	FieldLinkedIssue,
	FieldRequirementType,
	FieldComponent,
	FieldClosureReason,
	FieldExplanation,
	FieldOtherInformation,
}

// ReferenceFields are the sections scanned for parent references.
var ReferenceFields = []string{
	FieldParentUserNeed,
	FieldSystemRequirements,
	FieldLinkedIssue,
}

// closureFields describe why an item was closed, not what it requires.
var closureFields = map[string]bool{
	FieldClosureReason: true,
	FieldExplanation:   true,
}

// RequirementTypes are the accepted values of the "Type of requirement" field.
var RequirementTypes = []string{
	"Functional",
	"Performance",
	"Usability",
	"Interface",
	"Regulatory",
	"Security",
	"Safety",
	"Risk control",
	"Other",
}
