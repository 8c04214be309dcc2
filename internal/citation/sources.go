// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package citation

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/citechat/pkg/types"
)

// ValidateSources checks the structured citation list the backend attaches
// to a completed answer. Each entry needs an identifier, a topic and a start
// timestamp. Surrounding whitespace is trimmed in the returned copy. When
// any entry is invalid the error lists every bad index and the valid
// entries are still returned.
func ValidateSources(sources []types.Source) ([]types.Source, error) {
	var (
		valid []types.Source
		errs  []error
	)
	for i, src := range sources {
		src.VideoID = strings.TrimSpace(src.VideoID)
		src.YouTubeID = strings.TrimSpace(src.YouTubeID)
		src.Topic = strings.TrimSpace(src.Topic)
		src.Reasoning = strings.TrimSpace(src.Reasoning)
		src.TimestampStart = strings.TrimSpace(src.TimestampStart)
		src.TimestampEnd = strings.TrimSpace(src.TimestampEnd)

		var missing []string
		if src.ID() == "" {
			missing = append(missing, "video_id")
		}
		if src.Topic == "" {
			missing = append(missing, "topic")
		}
		if src.TimestampStart == "" {
			missing = append(missing, "timestamp_start")
		}
		if len(missing) > 0 {
			errs = append(errs, fmt.Errorf("source %d: missing %s", i, strings.Join(missing, ", ")))
			continue
		}
		valid = append(valid, src)
	}
	return valid, errors.Join(errs...)
}

// SourceLink returns the navigation target of a sources-panel entry. It
// resolves the start time exactly as Annotate does, so a chip and a panel
// entry for the same moment open the same offset.
func SourceLink(src types.Source) Link {
	start := StartOf(src.TimestampStart)
	return Link{
		VideoID:   src.ID(),
		StartText: start,
		Seconds:   ParseTimestamp(start),
	}
}

// SourceIDs returns the distinct source identifiers cited in r, sorted.
func SourceIDs(r Result) []string {
	seen := make(map[string]bool, len(r.Citations))
	ids := make([]string, 0, len(r.Citations))
	for _, c := range r.Citations {
		if seen[c.SourceID] {
			continue
		}
		seen[c.SourceID] = true
		ids = append(ids, c.SourceID)
	}
	sort.Strings(ids)
	return ids
}

// CheckAgreement reports whether the inline citations of an annotated
// answer and its structured source list name the same set of sources. A
// source counts as cited when either its video_id or its youtube_id
// appears inline.
func CheckAgreement(r Result, sources []types.Source) error {
	inline := make(map[string]bool)
	for _, id := range SourceIDs(r) {
		inline[id] = true
	}

	covered := make(map[string]bool)
	var missing []string
	for _, src := range sources {
		switch {
		case src.VideoID != "" && inline[src.VideoID]:
			covered[src.VideoID] = true
		case src.YouTubeID != "" && inline[src.YouTubeID]:
			covered[src.YouTubeID] = true
		default:
			missing = append(missing, src.ID())
		}
	}

	var uncited []string
	for id := range inline {
		if !covered[id] {
			uncited = append(uncited, id)
		}
	}
	sort.Strings(uncited)

	var errs []error
	if len(missing) > 0 {
		errs = append(errs, fmt.Errorf("sources not cited inline: %s", strings.Join(missing, ", ")))
	}
	if len(uncited) > 0 {
		errs = append(errs, fmt.Errorf("inline citations without a source: %s", strings.Join(uncited, ", ")))
	}
	return errors.Join(errs...)
}
