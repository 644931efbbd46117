// Package artifact defines the typed traceability model.
//
// Core types:
//   - Kind: UserNeed, Requirement, DesignOutput, DesignVerification,
//     DesignValidation, or NonQw for items excluded from checks
//   - RawItem: an issue or pull request as fetched from the hosting service
//   - Artifact: a parsed item with structured fields and parent references
//   - Component: a registered subsystem referenced by requirements
//   - Edge: a resolved child to parent link
//   - ParseProblem: a per-item parse failure, accumulated rather than raised
//
// Kinds come from labels:
//
//	kind, ok := artifact.KindFromLabels([]string{"qw-requirement"}, false)
//	// kind == artifact.KindRequirement, ok == true
//
// ComputeHash digests the fields that matter for versioning. Cosmetic content
// (the "Other information" tail and closure metadata) never changes the hash.
package artifact
