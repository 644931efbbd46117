// Package snapshot holds the frozen graph: the version, content hash and
// parent links of every artifact at the last freeze, plus the component
// registry.
//
// The records file is JSON lines sorted by id so that it diffs cleanly under
// version control:
//
//	{"id":6,"kind":"requirement","title":"Dose limit","version":2,...}
//	{"id":7,"kind":"design-output","is_pr":true,"title":"Clamp dose","version":1,...}
//
// FileStore writes both files with temp-file-then-rename, so a failed save
// leaves the previous store intact.
package snapshot
