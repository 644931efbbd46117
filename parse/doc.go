// Package parse turns raw issue and pull request bodies into artifacts.
//
// Bodies are tokenized line by line. Lines of the form "### Heading" whose
// heading is one of the recognized section names (matched case-insensitively)
// open a new section; any other line, including unknown headings, belongs to
// the current section. Text before the first recognized heading is the
// preamble, which stands in for the description of pull requests written
// without a template. Everything from "### Other information" on is the
// unstructured tail: kept verbatim, never validated, never hashed.
//
// Parent references are "#N" tokens found in the "Parent user need",
// "System requirements" and "Linked issue" sections, in encounter order.
// Pull requests additionally list the issues they close first.
//
// Example:
//
//	p := parse.NewParser()
//	arts, problems := p.ParseAll(items)
package parse
