package notion

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Store limits on rich text: runes per text object and objects per array.
const (
	maxRichTextLen      = 2000
	maxRichTextSegments = 100
)

// Properties is a partial attribute update keyed by property name.
// Sending the same Properties twice leaves the record in the same state.
type Properties map[string]Value

// Value is a typed property value.
type Value interface {
	encode() propertyPayload
}

// Text is a rich_text property. Long content is split across text objects;
// what does not fit in the store's array limit is dropped.
type Text string

// Select is a select property; the empty string clears it.
type Select string

// Number is a number property.
type Number float64

// Date is a date property carrying only the calendar day.
type Date time.Time

func (t Text) encode() propertyPayload {
	return propertyPayload{RichText: textSegments(string(t))}
}

// textSegments splits s into rich text objects within the store limits.
func textSegments(s string) []richText {
	parts := splitRunes(s, maxRichTextLen)
	if len(parts) > maxRichTextSegments {
		parts = parts[:maxRichTextSegments]
	}
	out := make([]richText, 0, len(parts))
	for _, p := range parts {
		out = append(out, richText{Type: "text", Text: &textContent{Content: p}})
	}
	return out
}

func (s Select) encode() propertyPayload {
	if s == "" {
		return propertyPayload{clearSelect: true}
	}
	return propertyPayload{Select: &selectOption{Name: string(s)}}
}

func (n Number) encode() propertyPayload {
	v := float64(n)
	return propertyPayload{Number: &v}
}

func (d Date) encode() propertyPayload {
	return propertyPayload{Date: &dateValue{Start: time.Time(d).Format("2006-01-02")}}
}

// propertyPayload is the wire form of a single property value.
type propertyPayload struct {
	RichText    []richText    `json:"rich_text,omitempty"`
	Select      *selectOption `json:"select,omitempty"`
	Number      *float64      `json:"number,omitempty"`
	Date        *dateValue    `json:"date,omitempty"`
	clearSelect bool
}

// MarshalJSON emits an explicit null select when clearing.
func (p propertyPayload) MarshalJSON() ([]byte, error) {
	if p.clearSelect {
		return []byte(`{"select":null}`), nil
	}
	type plain propertyPayload
	return json.Marshal(plain(p))
}

type dateValue struct {
	Start string `json:"start"`
}

// plainText renders a readable property as a string. ok is false for
// property types that carry no text.
func (p propertyValue) plainText() (string, bool) {
	switch p.Type {
	case "title":
		return joinRichText(p.Title), true
	case "rich_text":
		return joinRichText(p.RichText), true
	case "select":
		if p.Select == nil {
			return "", true
		}
		return p.Select.Name, true
	case "status":
		if p.Status == nil {
			return "", true
		}
		return p.Status.Name, true
	case "multi_select":
		names := make([]string, 0, len(p.MultiSelect))
		for _, o := range p.MultiSelect {
			names = append(names, o.Name)
		}
		return strings.Join(names, ", "), true
	case "number":
		if p.Number == nil {
			return "", true
		}
		return strconv.FormatFloat(*p.Number, 'f', -1, 64), true
	case "url":
		return deref(p.URL), true
	case "email":
		return deref(p.Email), true
	case "phone_number":
		return deref(p.PhoneNumber), true
	}
	return "", false
}

func joinRichText(parts []richText) string {
	var b strings.Builder
	for _, rt := range parts {
		if rt.PlainText != "" {
			b.WriteString(rt.PlainText)
		} else if rt.Text != nil {
			b.WriteString(rt.Text.Content)
		}
	}
	return b.String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// splitRunes cuts s into chunks of at most n runes. An empty s yields one
// empty chunk.
func splitRunes(s string, n int) []string {
	if utf8.RuneCountInString(s) <= n {
		return []string{s}
	}
	var chunks []string
	start, count := 0, 0
	for pos := range s {
		if count == n {
			chunks = append(chunks, s[start:pos])
			start, count = pos, 0
		}
		count++
	}
	return append(chunks, s[start:])
}
