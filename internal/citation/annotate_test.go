// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package citation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citechat/pkg/types"
)

const multiRange = "The speaker highlights [516f84b0-2cd2-4f7c-8eb7-62ea59087922:9:27-14:14; 14:25-16:49]."

// --- Annotate ---

func TestAnnotate_MultiRangeRegression(t *testing.T) {
	res := Annotate(multiRange, types.RoleAssistant)

	assert.NotEqual(t, multiRange, res.Text, "marker must be matched and rewritten")
	require.Len(t, res.Citations, 1)

	c := res.Citations[0]
	assert.Equal(t, "516f84b0-2cd2-4f7c-8eb7-62ea59087922", c.SourceID)
	assert.Equal(t, "9:27-14:14; 14:25-16:49", c.DisplayLabel)
	assert.Equal(t, "9:27", c.StartText)
	assert.Equal(t, 567, c.StartSeconds)

	assert.True(t, strings.HasPrefix(res.Text, "The speaker highlights ["))
	assert.True(t, strings.HasSuffix(res.Text, ")."))
	assert.Contains(t, res.Text, "videoId=516f84b0-2cd2-4f7c-8eb7-62ea59087922")
	assert.Contains(t, res.Text, "t=567")
}

func TestAnnotate_NoCitations(t *testing.T) {
	res := Annotate("No citations here.", types.RoleAssistant)
	assert.Equal(t, "No citations here.", res.Text)
	assert.Empty(t, res.Citations)
}

func TestAnnotate_UserRoleIsIdentity(t *testing.T) {
	res := Annotate(multiRange, types.RoleUser)
	assert.Equal(t, multiRange, res.Text)
	assert.Empty(t, res.Citations)

	res = Annotate(multiRange, types.Role("system"))
	assert.Equal(t, multiRange, res.Text)
}

func TestAnnotate_StartOffsets(t *testing.T) {
	tests := []struct {
		name    string
		marker  string
		id      string
		seconds int
	}{
		{"minutes seconds", "[abc:12:34]", "abc", 12*60 + 34},
		{"hours minutes seconds", "[abc:1:02:03]", "abc", 3600 + 2*60 + 3},
		{"dash range uses start", "[abc:12:34-15:00]", "abc", 12*60 + 34},
		{"semicolon list uses first start", "[abc:12:34-15:00; 20:00-21:00]", "abc", 12*60 + 34},
		{"single then list", "[abc:0:45; 3:00]", "abc", 45},
		{"underscore id", "[vid_01:2:00]", "vid_01", 120},
		{"unparseable time", "[abc:soon]", "abc", 0},
		{"garbage components", "[abc:xx:yy]", "abc", 0},
		{"padded start", "[abc:  4:05 - 5:00]", "abc", 245},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Annotate("see "+tt.marker+" now", types.RoleAssistant)
			require.Len(t, res.Citations, 1)
			assert.Equal(t, tt.id, res.Citations[0].SourceID)
			assert.Equal(t, tt.seconds, res.Citations[0].StartSeconds)
			assert.NotContains(t, res.Text, tt.marker)
		})
	}
}

func TestAnnotate_RangeMatchesSingleValue(t *testing.T) {
	single := Annotate("[v:7:07]", types.RoleAssistant).Citations[0]
	ranged := Annotate("[v:7:07-9:00]", types.RoleAssistant).Citations[0]
	assert.Equal(t, single.StartSeconds, ranged.StartSeconds)
	assert.Equal(t, single.StartText, ranged.StartText)
}

func TestAnnotate_LeavesMalformedMarkersLiteral(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unterminated", "before [abc:9:27-14:14 after"},
		{"empty id", "before [:9:27] after"},
		{"empty content", "before [abc:] after"},
		{"no colon", "before [abc] after"},
		{"id with spaces", "before [a b:1:00] after"},
		{"nested brackets", "before [a[b]c] after"},
		{"plain markdown link", "a [link](https://example.com) b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Annotate(tt.input, types.RoleAssistant)
			assert.Equal(t, tt.input, res.Text)
			assert.Empty(t, res.Citations)
		})
	}
}

func TestAnnotate_DoesNotCrossClosingBracket(t *testing.T) {
	res := Annotate("[a:1:00] and [b:2:00]", types.RoleAssistant)
	require.Len(t, res.Citations, 2)
	assert.Equal(t, "1:00", res.Citations[0].DisplayLabel)
	assert.Equal(t, "2:00", res.Citations[1].DisplayLabel)
	assert.Contains(t, res.Text, " and ")
}

func TestAnnotate_PreservesSurroundingMarkdown(t *testing.T) {
	in := "## Summary\n\n* **Point** one [v1:1:00]\n* Point two [v2:2:00-3:00]\n"
	res := Annotate(in, types.RoleAssistant)
	require.Len(t, res.Citations, 2)
	assert.True(t, strings.HasPrefix(res.Text, "## Summary\n\n* **Point** one ["))
	assert.Contains(t, res.Text, "\n* Point two [")
	assert.True(t, strings.HasSuffix(res.Text, ")\n"))
}

func TestAnnotate_StreamingPrefixesAgree(t *testing.T) {
	full := "First [aa:1:05] then [bb:2:10-3:00; 4:00-5:00] and finally [cc:1:00:01]."

	final := Annotate(full, types.RoleAssistant)
	require.Len(t, final.Citations, 3)

	for n := 0; n <= len(full); n++ {
		prefix := full[:n]
		res := Annotate(prefix, types.RoleAssistant)
		for _, c := range res.Citations {
			idx := indexOfSource(final.Citations, c.SourceID)
			require.GreaterOrEqual(t, idx, 0, "prefix %q produced unknown source %s", prefix, c.SourceID)
			assert.Equal(t, final.Citations[idx].StartSeconds, c.StartSeconds)
			assert.Equal(t, final.Citations[idx].DisplayLabel, c.DisplayLabel)
		}
	}
}

func indexOfSource(cs []ResolvedCitation, id string) int {
	for i, c := range cs {
		if c.SourceID == id {
			return i
		}
	}
	return -1
}

func TestAnnotate_OutputRoundTripsThroughReplaceLinks(t *testing.T) {
	res := Annotate(multiRange, types.RoleAssistant)

	var got []Link
	var labels []string
	out := ReplaceLinks(res.Text, func(label string, l Link) string {
		labels = append(labels, label)
		got = append(got, l)
		return "<chip>"
	})

	assert.Equal(t, "The speaker highlights <chip>.", out)
	require.Len(t, got, 1)
	assert.Equal(t, "9:27-14:14; 14:25-16:49", labels[0])
	assert.Equal(t, res.Citations[0].Link(), got[0])
}

// --- FindMarkers ---

func TestFindMarkers_Offsets(t *testing.T) {
	text := "x [id1:0:10] y [id2:1:00-2:00]"
	markers := FindMarkers(text)
	require.Len(t, markers, 2)
	for _, m := range markers {
		assert.Equal(t, "["+m.SourceID+":"+m.RawSpan+"]", text[m.Start:m.End])
	}
	assert.Nil(t, FindMarkers("nothing"))
}
