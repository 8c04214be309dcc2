// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package citation rewrites the citation markers an assistant embeds in its
// answers into navigable, time-coded links.
//
// A marker is a bracketed [sourceID:timeExpr] span, for example
// [516f84b0-2cd2-4f7c-8eb7-62ea59087922:9:27-14:14; 14:25-16:49]. Scanning
// and interpretation are separate steps: FindMarkers only locates the
// brackets, and the time expression is interpreted afterwards by StartOf,
// ParseTimestamp and ParseRanges. Everything in this package is pure and
// safe for concurrent use.
package citation

import (
	"regexp"
	"strings"

	"github.com/pdiddy/citechat/pkg/types"
)

// markerRe matches [id:content]. The content capture runs to the first
// closing bracket and is never validated here; a stricter time grammar in
// this pattern is what used to drop multi-range lists like
// "9:27-14:14; 14:25-16:49".
var markerRe = regexp.MustCompile(`\[([a-zA-Z0-9_-]+):([^\]]+)\]`)

// Marker is one citation marker located in a message.
type Marker struct {
	// SourceID is the identifier before the first colon.
	SourceID string

	// RawSpan is the uninterpreted time expression between the colon and
	// the closing bracket.
	RawSpan string

	// Start and End are the byte offsets of the whole bracketed marker.
	Start, End int
}

// ResolvedCitation is a marker resolved to a playable offset.
type ResolvedCitation struct {
	SourceID string `json:"source_id" yaml:"source_id"`

	// DisplayLabel is the original time expression, shown verbatim.
	DisplayLabel string `json:"display_label" yaml:"display_label"`

	// StartText is the first time value of the first range.
	StartText string `json:"start_text" yaml:"start_text"`

	// StartSeconds is StartText in whole seconds. Navigation only ever
	// uses this offset; later ranges are display-only.
	StartSeconds int `json:"start_seconds" yaml:"start_seconds"`

	// Ranges is the display decomposition of DisplayLabel.
	Ranges []Range `json:"ranges,omitempty" yaml:"ranges,omitempty"`
}

// Link returns the navigation target for c.
func (c ResolvedCitation) Link() Link {
	return Link{VideoID: c.SourceID, StartText: c.StartText, Seconds: c.StartSeconds}
}

// Result is the output of Annotate.
type Result struct {
	// Text is the message with every marker replaced by a citation link
	// token (see Link.Markdown).
	Text string `json:"text" yaml:"text"`

	// Citations holds one entry per replaced marker, in text order.
	Citations []ResolvedCitation `json:"citations" yaml:"citations"`
}

// FindMarkers returns every citation marker in text, in order. Unterminated
// or id-less brackets are not markers.
func FindMarkers(text string) []Marker {
	matches := markerRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}
	markers := make([]Marker, 0, len(matches))
	for _, m := range matches {
		markers = append(markers, Marker{
			SourceID: text[m[2]:m[3]],
			RawSpan:  text[m[4]:m[5]],
			Start:    m[0],
			End:      m[1],
		})
	}
	return markers
}

// Resolve interprets a marker's time expression.
func Resolve(m Marker) ResolvedCitation {
	start := StartOf(m.RawSpan)
	return ResolvedCitation{
		SourceID:     m.SourceID,
		DisplayLabel: m.RawSpan,
		StartText:    start,
		StartSeconds: ParseTimestamp(start),
		Ranges:       ParseRanges(m.RawSpan),
	}
}

// Annotate replaces the citation markers in content with link tokens the
// renderer turns into citation chips. Only assistant turns carry citations;
// for any other role content is returned untouched.
//
// Annotate never fails. A bracket that does not look like a marker stays
// literal text, and a marker whose time cannot be parsed resolves to
// offset 0. It is safe to call on every streaming update of a growing
// message: markers fully inside an unchanged prefix always resolve the same.
func Annotate(content string, role types.Role) Result {
	if role != types.RoleAssistant {
		return Result{Text: content}
	}

	markers := FindMarkers(content)
	if len(markers) == 0 {
		return Result{Text: content}
	}

	var (
		b    strings.Builder
		last int
		res  Result
	)
	b.Grow(len(content) + len(markers)*64)

	for _, m := range markers {
		c := Resolve(m)
		b.WriteString(content[last:m.Start])
		b.WriteString(c.Link().Markdown(c.DisplayLabel))
		last = m.End
		res.Citations = append(res.Citations, c)
	}
	b.WriteString(content[last:])

	res.Text = b.String()
	return res
}
