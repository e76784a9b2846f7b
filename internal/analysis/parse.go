package analysis

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/kiranshivaraju/projectlens/pkg/models"
)

// Outcome is the result of parsing one response: Parsed or Malformed.
type Outcome interface {
	isOutcome()
}

// Parsed carries the interpreted sub-fields keyed by FieldSpec.Name.
type Parsed struct {
	Fields Fields
}

// Malformed says why a response could not be read against its schema.
type Malformed struct {
	Reason string
}

func (Parsed) isOutcome()    {}
func (Malformed) isOutcome() {}

// Value is one interpreted sub-field. Only the member matching the
// field's kind is set.
type Value struct {
	Kind     FieldKind
	Text     string
	Items    []string
	Level    models.Level
	Score    int
	Decision models.Decision
}

// Fields maps sub-field names to values. Optional fields that were absent
// have no entry.
type Fields map[string]Value

func (f Fields) text(name string) string             { return f[name].Text }
func (f Fields) items(name string) []string          { return f[name].Items }
func (f Fields) level(name string) models.Level      { return f[name].Level }
func (f Fields) score(name string) int               { return f[name].Score }
func (f Fields) decision(name string) models.Decision { return f[name].Decision }

var (
	bulletRe      = regexp.MustCompile(`^(?:[-*•+]|\d{1,2}[.)])\s+(.*)$`)
	labelPrefixRe = regexp.MustCompile(`^(?:[-*•+]|\d{1,2}[.)])\s*`)
	parentheticRe = regexp.MustCompile(`\s*\([^)]*\)`)
	scoreRe       = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(%)?\s*(?:/\s*(\d+))?`)
	decisionNoise = regexp.MustCompile(`(?i)\bgo\s*/\s*no[\s_-]*go\b|\bgo[\s_-]+to[\s_-]+market\b`)
	verdictRe     = regexp.MustCompile(`(?i)\b(?:(?:no|not|don'?t|do\s+not)[\s_-]*(?:to[\s_-]+)?go|conditional(?:ly)?(?:[\s_-]+go)?|go)\b`)
)

const maxLabelLen = 40

// Parse reads a model response against schema. It accepts labels in any
// case, markdown emphasis and headings, bullets or numbering before labels,
// ":" "=" or dash separators, values on the line after their label, and
// trailing words after enum values. It rejects responses that lack a
// required sub-field or carry an uninterpretable level, score or decision.
func Parse(schema Schema, text string) Outcome {
	if strings.TrimSpace(text) == "" {
		return Malformed{Reason: "empty response"}
	}

	aliases := schema.aliasIndex()
	kinds := make(map[string]FieldKind, len(schema.Fields))
	for _, fs := range schema.Fields {
		kinds[fs.Name] = fs.Kind
	}
	sections := make(map[string]*section)
	var cur *section
	prose := false

	for _, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		ln := classify(raw)
		if ln.blank {
			continue
		}
		if name, rest, ok := matchLabel(ln, aliases, prose); ok {
			if name == "" {
				// Label of something we don't collect; drop its content.
				cur, prose = nil, false
				continue
			}
			if sections[name] == nil {
				sections[name] = &section{}
			}
			cur = sections[name]
			prose = kinds[name] == KindText || kinds[name] == KindList
			if rest != "" {
				cur.add(rest, false)
			}
			continue
		}
		if cur != nil {
			cur.add(ln.content, ln.bullet)
		}
	}

	fields := make(Fields, len(schema.Fields))
	for _, fs := range schema.Fields {
		v, present, err := interpret(fs, sections[fs.Name])
		if err != nil {
			return Malformed{Reason: err.Error()}
		}
		if !present {
			if fs.Required {
				return Malformed{Reason: fmt.Sprintf("missing required field %s", fs.Label())}
			}
			continue
		}
		fields[fs.Name] = v
	}
	return Parsed{Fields: fields}
}

type entry struct {
	text   string
	bullet bool
}

type section struct {
	entries []entry
}

func (s *section) add(text string, bullet bool) {
	s.entries = append(s.entries, entry{text: text, bullet: bullet})
}

func (s *section) joined() string {
	if s == nil {
		return ""
	}
	lines := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		if e.bullet {
			lines = append(lines, "- "+e.text)
		} else {
			lines = append(lines, e.text)
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// listItems turns bullets into items. Plain lines following a bullet
// continue it; other plain lines are items of their own, split on ";".
func (s *section) listItems() []string {
	if s == nil {
		return nil
	}
	var items []string
	lastBullet := false
	for _, e := range s.entries {
		switch {
		case e.bullet:
			items = append(items, e.text)
		case lastBullet && len(items) > 0:
			items[len(items)-1] += " " + e.text
			continue
		default:
			for _, part := range strings.Split(e.text, ";") {
				if p := strings.TrimSpace(part); p != "" {
					items = append(items, p)
				}
			}
		}
		lastBullet = e.bullet
	}
	return items
}

func interpret(fs FieldSpec, s *section) (Value, bool, error) {
	v := Value{Kind: fs.Kind}
	switch fs.Kind {
	case KindList:
		v.Items = s.listItems()
		return v, len(v.Items) > 0, nil
	case KindText:
		v.Text = s.joined()
		return v, v.Text != "", nil
	}

	raw := s.joined()
	if raw == "" {
		return v, false, nil
	}
	switch fs.Kind {
	case KindLevel:
		lvl, ok := findLevel(raw)
		if !ok {
			return v, false, fmt.Errorf("field %s: %q is not Low, Medium or High", fs.Label(), firstLine(raw))
		}
		v.Level = lvl
	case KindScore:
		n, err := findScore(raw)
		if err != nil {
			return v, false, fmt.Errorf("field %s: %v", fs.Label(), err)
		}
		v.Score = n
	case KindDecision:
		d, err := findDecision(raw)
		if err != nil {
			return v, false, fmt.Errorf("field %s: %v", fs.Label(), err)
		}
		v.Decision = d
	}
	return v, true, nil
}

// findLevel returns the first word of s that names a level, so
// "Medium - crowded but fragmented" reads as Medium. A negated level word
// is skipped: "Not high; Low overall" reads as Low.
func findLevel(s string) (models.Level, bool) {
	words := strings.FieldsFunc(s, func(r rune) bool { return !unicode.IsLetter(r) && r != '\'' })
	for i, w := range words {
		lvl, ok := models.ParseLevel(strings.Trim(w, "'"))
		if !ok {
			continue
		}
		if i > 0 && negates(words[i-1]) {
			continue
		}
		return lvl, true
	}
	return "", false
}

func negates(w string) bool {
	w = strings.ToLower(w)
	switch w {
	case "not", "no", "never":
		return true
	}
	return strings.HasSuffix(w, "n't")
}

// findScore reads the first number in s. "78", "78/100", "78%", "7.8/10"
// and the fraction "0.78" all yield 78. Negative numbers are rejected.
func findScore(s string) (int, error) {
	m := scoreRe.FindStringSubmatchIndex(s)
	if m == nil {
		return 0, fmt.Errorf("%q has no number", firstLine(s))
	}
	num := s[m[2]:m[3]]
	if m[2] > 0 && s[m[2]-1] == '-' && (m[2] == 1 || !isWordByte(s[m[2]-2])) {
		return 0, fmt.Errorf("score -%s is negative", num)
	}
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("%q: %v", num, err)
	}
	percent := m[4] >= 0
	switch {
	case m[6] >= 0:
		den, err := strconv.ParseFloat(s[m[6]:m[7]], 64)
		if err != nil || den == 0 {
			return 0, fmt.Errorf("%q has an invalid scale", firstLine(s))
		}
		n = n / den * 100
	case !percent && n > 0 && n < 1:
		n *= 100
	}
	score := int(math.Round(n))
	if score < 0 || score > 100 {
		return 0, fmt.Errorf("score %d is outside 0-100", score)
	}
	return score, nil
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

// findDecision reads the verdict from the first line of s that carries one.
// "not go" and "do not go" read as NO-GO, "conditional go" as CONDITIONAL.
// The phrases "Go/No-Go" and "go-to-market" are not verdicts. Two different
// verdicts on the same line are an error.
func findDecision(s string) (models.Decision, error) {
	for _, l := range strings.Split(s, "\n") {
		tokens := verdictRe.FindAllString(decisionNoise.ReplaceAllString(l, " "), -1)
		if len(tokens) == 0 {
			continue
		}
		d := verdictOf(tokens[0])
		for _, tok := range tokens[1:] {
			if other := verdictOf(tok); other != d {
				return "", fmt.Errorf("%q names both %s and %s", l, d, other)
			}
		}
		return d, nil
	}
	return "", fmt.Errorf("%q is not GO, NO-GO or CONDITIONAL", firstLine(s))
}

func verdictOf(token string) models.Decision {
	t := strings.ToLower(token)
	switch {
	case strings.HasPrefix(t, "conditional"):
		return models.DecisionConditional
	case t == "go":
		return models.DecisionGo
	default:
		return models.DecisionNoGo
	}
}

type line struct {
	content    string
	bullet     bool
	heading    bool
	emphasized bool
	blank      bool
}

func classify(raw string) line {
	s := strings.TrimSpace(raw)
	for strings.HasPrefix(s, ">") {
		s = strings.TrimSpace(s[1:])
	}

	var ln line
	if strings.HasPrefix(s, "#") {
		ln.heading = true
		s = strings.TrimSpace(strings.TrimLeft(s, "#"))
	}
	if m := bulletRe.FindStringSubmatch(s); m != nil {
		ln.bullet = true
		s = m[1]
	}
	ln.emphasized = strings.HasPrefix(s, "**") || strings.HasPrefix(s, "__")

	s = strings.NewReplacer("**", "", "__", "", "`", "").Replace(s)
	s = strings.TrimSpace(strings.Trim(s, "*_"))
	ln.content = s
	ln.blank = strings.Trim(s, "-=_*|~ \t") == ""
	return ln
}

// matchLabel decides whether ln opens a section. It returns the field name
// for labels of this schema, an empty name for other recognised labels,
// and ok=false for content lines. Inside a prose section, a foreign label
// followed by content on the same line is content: "GDPR: strict rules"
// under RISKS stays a risk.
func matchLabel(ln line, aliases map[string]string, prose bool) (name, rest string, ok bool) {
	s := ln.content

	if idx := strings.IndexAny(s, ":="); idx > 0 && idx <= maxLabelLen {
		left := normalizeLabel(s[:idx])
		rest = strings.TrimSpace(s[idx+1:])
		if field, known := aliases[left]; known {
			return field, rest, true
		}
		foreign := knownLabels[left] || isShouted(s[:idx])
		bare := rest == "" || ln.heading || ln.emphasized
		if !ln.bullet && foreign && (bare || !prose) {
			return "", "", true
		}
	}

	for _, sep := range []string{" - ", " – ", " — "} {
		if idx := strings.Index(s, sep); idx > 0 && idx <= maxLabelLen {
			if field, known := aliases[normalizeLabel(s[:idx])]; known {
				return field, strings.TrimSpace(s[idx+len(sep):]), true
			}
		}
	}

	// Bare label on its own line, value below.
	if len(s) <= maxLabelLen && (ln.heading || ln.emphasized || isShouted(s)) {
		left := normalizeLabel(s)
		if field, known := aliases[left]; known {
			return field, "", true
		}
		if !ln.bullet && knownLabels[left] {
			return "", "", true
		}
	}
	return "", "", false
}

func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = labelPrefixRe.ReplaceAllString(s, "")
	s = parentheticRe.ReplaceAllString(s, "")
	s = strings.Trim(s, " \t.:;-*#`_")
	return strings.Join(strings.Fields(s), " ")
}

// isShouted reports whether s looks like an all-caps label such as
// "MARKET SIZE".
func isShouted(s string) bool {
	s = strings.TrimSpace(s)
	letters := 0
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			letters++
		case unicode.IsLower(r):
			return false
		case r == ' ' || r == '&' || r == '/' || r == '-' || r == '\'':
		default:
			return false
		}
	}
	return letters >= 2 && len(strings.Fields(s)) <= 5
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
