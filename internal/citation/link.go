// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package citation

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// The link token Annotate emits is a markdown link whose destination is a
// bare query string:
//
//	[9:27-14:14; 14:25-16:49](?citation=true&t=567&time=9%3A27&videoId=516f84b0-...)
//
// Markdown renderers keep relative query destinations intact, and
// "?citation=true" never occurs in ordinary prose links, so the renderer can
// recognise chips unambiguously.
const linkMarker = "citation"

// linkTokenRe matches a citation link token produced by Link.Markdown. The
// label allows backslash escapes; the destination is URL-encoded and so
// never contains ')'.
var linkTokenRe = regexp.MustCompile(`\[((?:\\.|[^\[\]\\])*)\]\((\?citation=true[^)\s]*)\)`)

// Link is the navigation target of a citation.
type Link struct {
	VideoID   string
	StartText string
	Seconds   int
}

// Href encodes l as the citation link destination.
func (l Link) Href() string {
	v := url.Values{
		linkMarker: {"true"},
		"videoId":  {l.VideoID},
		"time":     {l.StartText},
		"t":        {strconv.Itoa(l.Seconds)},
	}
	return "?" + v.Encode()
}

// Markdown returns the full link token for l with the given label.
func (l Link) Markdown(label string) string {
	return "[" + escapeLabel(label) + "](" + l.Href() + ")"
}

// WatchURL returns the YouTube URL that opens l at its start offset.
func (l Link) WatchURL() string {
	return WatchURL(l.VideoID, l.Seconds)
}

// ParseLink recognises a citation link destination. Any href whose query
// does not carry citation=true and a videoId is not a citation. A missing
// or malformed t falls back to parsing the time text.
func ParseLink(href string) (Link, bool) {
	_, query, ok := strings.Cut(href, "?")
	if !ok {
		return Link{}, false
	}
	v, err := url.ParseQuery(query)
	if err != nil || v.Get(linkMarker) != "true" {
		return Link{}, false
	}
	l := Link{
		VideoID:   v.Get("videoId"),
		StartText: v.Get("time"),
	}
	if l.VideoID == "" {
		return Link{}, false
	}
	if secs, err := strconv.Atoi(v.Get("t")); err == nil && secs >= 0 {
		l.Seconds = secs
	} else {
		l.Seconds = ParseTimestamp(l.StartText)
	}
	return l, true
}

// ReplaceLinks rewrites every citation link token in annotated text with
// the output of fn, which receives the unescaped label and the parsed link.
// Text outside citation tokens, including ordinary markdown links, is left
// as is.
func ReplaceLinks(annotated string, fn func(label string, l Link) string) string {
	return linkTokenRe.ReplaceAllStringFunc(annotated, func(tok string) string {
		m := linkTokenRe.FindStringSubmatch(tok)
		l, ok := ParseLink(m[2])
		if !ok {
			return tok
		}
		return fn(unescapeLabel(m[1]), l)
	})
}

// WatchURL returns https://www.youtube.com/watch?v=<id>&t=<seconds>s.
func WatchURL(videoID string, seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(videoID) + "&t=" + strconv.Itoa(seconds) + "s"
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`)

func escapeLabel(s string) string { return labelEscaper.Replace(s) }

func unescapeLabel(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
