// Package templates parses placeholder templates of the form
// "My name is [PERSON] and I live at [ADDRESS]". Square-bracket markers are
// the raw authoring format; parsing rewrites them to brace slots and numbers
// repeated entities so every slot key is unique within a template.
package templates

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Parse errors.
var (
	ErrEmptySlot      = errors.New("template contains an empty placeholder")
	ErrUnmatchedBrace = errors.New("template contains an unmatched brace")
	ErrNoTemplates    = errors.New("template file contains no templates")
)

var slotPattern = regexp.MustCompile(`\{([A-Z_0-9]+)\}`)

// Template is one parsed placeholder template.
type Template struct {
	ID       int
	Raw      string
	Text     string
	Entities []string
	Counts   map[string]int
}

// HasEntities reports whether the template contains any slots. Templates
// without slots are legal and produce entity-free samples.
func (t *Template) HasEntities() bool {
	return len(t.Entities) > 0
}

// Slot is one placeholder occurrence inside a template, with the byte range
// the marker occupies in the template text.
type Slot struct {
	Key   string
	Start int
	End   int
}

// Slots returns the template's slot occurrences in order of appearance.
func (t *Template) Slots() []Slot {
	matches := slotPattern.FindAllStringSubmatchIndex(t.Text, -1)
	slots := make([]Slot, 0, len(matches))

	for _, m := range matches {
		slots = append(slots, Slot{
			Key:   t.Text[m[2]:m[3]],
			Start: m[0],
			End:   m[1],
		})
	}

	return slots
}

// Prep normalizes a raw template line: whitespace trimmed, square-bracket
// markers rewritten to brace slots.
func Prep(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "[", "{")
	s = strings.ReplaceAll(s, "]", "}")

	return s
}

// Parse preps a raw template and resolves its slots. Repeated entities are
// numbered left to right: the second {PERSON} becomes {PERSON2} and maps to
// a second sampled identity at fill time.
func Parse(id int, raw string) (*Template, error) {
	prepped := Prep(raw)

	if strings.Contains(prepped, "{}") {
		return nil, fmt.Errorf("%w: %q", ErrEmptySlot, raw)
	}

	matches := slotPattern.FindAllStringSubmatchIndex(prepped, -1)

	// Any brace outside a recognized slot means a typo in the template.
	remainder := slotPattern.ReplaceAllString(prepped, "")
	if strings.ContainsAny(remainder, "{}") {
		return nil, fmt.Errorf("%w: %q", ErrUnmatchedBrace, raw)
	}

	tmpl := &Template{
		ID:     id,
		Raw:    raw,
		Counts: make(map[string]int),
	}

	var sb strings.Builder

	last := 0

	for _, m := range matches {
		name := prepped[m[2]:m[3]]

		tmpl.Counts[name]++

		key := name
		if n := tmpl.Counts[name]; n > 1 {
			key = name + strconv.Itoa(n)
		}

		tmpl.Entities = append(tmpl.Entities, key)

		sb.WriteString(prepped[last:m[0]])
		sb.WriteString("{" + key + "}")
		last = m[1]
	}

	sb.WriteString(prepped[last:])
	tmpl.Text = sb.String()

	return tmpl, nil
}

// ParseAll parses a list of raw template lines with sequential IDs.
func ParseAll(raws []string) ([]Template, error) {
	parsed := make([]Template, 0, len(raws))

	for i, raw := range raws {
		tmpl, err := Parse(i, raw)
		if err != nil {
			return nil, fmt.Errorf("template %d: %w", i, err)
		}

		parsed = append(parsed, *tmpl)
	}

	return parsed, nil
}

// Load reads a template file: one template per line, blank lines and lines
// starting with '#' ignored.
func Load(path string) ([]Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}

	return LoadBytes(data)
}

// LoadBytes parses template lines out of raw file content.
func LoadBytes(data []byte) ([]Template, error) {
	var raws []string

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNum := 0

	for scanner.Scan() {
		lineNum++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		raws = append(raws, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan template file: %w", err)
	}

	if len(raws) == 0 {
		return nil, ErrNoTemplates
	}

	parsed, err := ParseAll(raws)
	if err != nil {
		return nil, err
	}

	return parsed, nil
}

// EntityBase strips the numeric suffix from a slot key: PERSON2 -> PERSON.
func EntityBase(key string) string {
	return strings.TrimRight(key, "0123456789")
}
