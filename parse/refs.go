package parse

import (
	"regexp"
	"strconv"

	"github.com/randalmurphal/qw/artifact"
)

var (
	localRefPattern   = regexp.MustCompile(`(?:^|[^\w/#!&])([#!])(\d+)\b`)
	foreignRefPattern = regexp.MustCompile(`\b([\w.-]+/[\w.-]+)#(\d+)\b`)
	closingRefPattern = regexp.MustCompile(`(?i)\b(?:close[sd]?|fix(?:e[sd])?|resolve[sd]?)\s*:?\s+#(\d+)\b`)
)

// References returns the local "#N" and merge request "!N" references in
// text, in encounter order and without duplicates.
func References(text string) []artifact.ID {
	var ids []artifact.ID
	seen := make(map[artifact.ID]bool)
	for _, m := range localRefPattern.FindAllStringSubmatch(text, -1) {
		id, err := artifact.ParseID(m[1] + m[2])
		if err != nil {
			continue
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// ForeignReferences returns "owner/repo#N" references in text.
func ForeignReferences(text string) []string {
	var refs []string
	for _, m := range foreignRefPattern.FindAllString(text, -1) {
		refs = append(refs, m)
	}
	return refs
}

// ClosingReferences returns the issues a pull request body closes using the
// "closes #N" keywords understood by hosting services.
func ClosingReferences(body string) []artifact.ID {
	var ids []artifact.ID
	seen := make(map[artifact.ID]bool)
	for _, m := range closingRefPattern.FindAllStringSubmatch(body, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			continue
		}
		id := artifact.ID(n)
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

func appendUnique(dst []artifact.ID, src ...artifact.ID) []artifact.ID {
	for _, id := range src {
		dup := false
		for _, d := range dst {
			if d == id {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, id)
		}
	}
	return dst
}
