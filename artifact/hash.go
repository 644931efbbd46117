package artifact

import (
	"encoding/hex"
	"sort"
	"strconv"

	"golang.org/x/crypto/blake2b"
)

// ComputeHash digests the parts of a that matter for versioning: kind, title,
// structured fields, parent references and component code. The unstructured
// tail and closure metadata are excluded, and parent order does not matter.
func ComputeHash(a *Artifact) string {
	h, _ := blake2b.New256(nil) // nil key never errors

	write := func(key, value string) {
		h.Write([]byte(key))
		h.Write([]byte{0})
		h.Write([]byte(value))
		h.Write([]byte{'\n'})
	}

	write("kind", string(a.Kind))
	write("title", a.Title)

	names := make([]string, 0, len(a.Fields))
	for name := range a.Fields {
		if closureFields[name] || name == FieldOtherInformation {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		write("field:"+name, a.Fields[name])
	}

	parents := SortIDs(append([]ID(nil), a.ParentRefs...))
	for _, p := range parents {
		write("parent", strconv.Itoa(int(p)))
	}
	write("component", a.ComponentCode)

	return hex.EncodeToString(h.Sum(nil))
}

// HashedFields returns the fields that feed ComputeHash.
func HashedFields(a *Artifact) map[string]string {
	out := make(map[string]string, len(a.Fields))
	for name, value := range a.Fields {
		if closureFields[name] || name == FieldOtherInformation {
			continue
		}
		out[name] = value
	}
	return out
}
