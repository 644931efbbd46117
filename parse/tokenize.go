package parse

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"

	"github.com/randalmurphal/qw/artifact"
)

// TokenKind distinguishes recognized headings from everything else.
type TokenKind int

// Token kinds.
const (
	TokenText TokenKind = iota
	TokenHeading
)

// Token is one line of a body.
type Token struct {
	Kind TokenKind
	Line int

	// Text is the raw line for TokenText and the canonical heading name for
	// TokenHeading.
	Text string
}

// noResponse is what issue forms write for an empty optional field.
const noResponse = "_No response_"

var headingPattern = regexp.MustCompile(`^ {0,3}#{1,6}[ \t]+(.*?)[ \t]*#*[ \t]*$`)

// Tokenizer splits bodies into tokens. Headings are matched case-insensitively
// against the recognized set; unknown headings are plain text.
//
// A Tokenizer is not safe for concurrent use.
type Tokenizer struct {
	fold     cases.Caser
	headings map[string]string
}

// NewTokenizer creates a tokenizer for the recognized headings.
func NewTokenizer() *Tokenizer {
	t := &Tokenizer{
		fold:     cases.Fold(),
		headings: make(map[string]string, len(artifact.Fields)),
	}
	for _, name := range artifact.Fields {
		t.headings[t.fold.String(name)] = name
	}
	return t
}

// Tokenize returns one token per line of body.
func (t *Tokenizer) Tokenize(body string) []Token {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	lines := strings.Split(body, "\n")
	tokens := make([]Token, 0, len(lines))

	for i, line := range lines {
		if name, ok := t.heading(line); ok {
			tokens = append(tokens, Token{Kind: TokenHeading, Line: i + 1, Text: name})
			continue
		}
		tokens = append(tokens, Token{Kind: TokenText, Line: i + 1, Text: line})
	}
	return tokens
}

func (t *Tokenizer) heading(line string) (string, bool) {
	m := headingPattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	key := t.fold.String(strings.TrimSuffix(strings.TrimSpace(m[1]), ":"))
	name, ok := t.headings[key]
	return name, ok
}

// Document is a body split into recognized sections.
type Document struct {
	// Preamble is the text before the first recognized heading.
	Preamble string

	// Sections maps heading names to their trimmed content.
	Sections map[string]string

	// Order lists headings in the order they appear.
	Order []string

	// Tail is everything from the "Other information" heading on, verbatim.
	Tail string

	// Duplicates lists headings that appeared more than once. The first
	// occurrence wins.
	Duplicates []string
}

// Split groups tokens into a Document.
func (t *Tokenizer) Split(body string) *Document {
	doc := &Document{Sections: make(map[string]string)}
	tokens := t.Tokenize(body)

	var (
		current string
		buf     []string
		seen    = make(map[string]bool)
	)

	flush := func() {
		text := clean(strings.Join(buf, "\n"))
		buf = buf[:0]
		if current == "" {
			doc.Preamble = text
			return
		}
		if _, exists := doc.Sections[current]; !exists {
			doc.Sections[current] = text
		}
	}

	for i, tok := range tokens {
		if tok.Kind == TokenHeading && tok.Text == artifact.FieldOtherInformation {
			flush()
			var tail []string
			for _, rest := range tokens[i+1:] {
				if rest.Kind == TokenHeading {
					tail = append(tail, rawLine(body, rest.Line))
					continue
				}
				tail = append(tail, rest.Text)
			}
			doc.Tail = strings.TrimSpace(strings.Join(tail, "\n"))
			doc.Order = append(doc.Order, tok.Text)
			return doc
		}

		if tok.Kind != TokenHeading {
			buf = append(buf, tok.Text)
			continue
		}

		flush()
		current = tok.Text
		if seen[current] {
			doc.Duplicates = append(doc.Duplicates, current)
			continue
		}
		seen[current] = true
		doc.Order = append(doc.Order, current)
	}
	flush()
	return doc
}

func rawLine(body string, line int) string {
	lines := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")
	if line-1 < len(lines) {
		return lines[line-1]
	}
	return ""
}

func clean(s string) string {
	s = strings.TrimSpace(s)
	if s == noResponse {
		return ""
	}
	return s
}
