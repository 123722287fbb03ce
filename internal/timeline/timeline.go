// Package timeline models interchange editorial timelines: tracks of clips,
// gaps, and transitions with rational-time ranges, plus parsers for the
// CMX3600 EDL and FCP7 XML formats. The model is deliberately small; it
// carries exactly what instance derivation needs and nothing more.
package timeline

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
)

// RationalTime is a time value expressed in frames at a given rate.
type RationalTime struct {
	Value float64
	Rate  float64
}

// Frames rounds the time value to whole frames.
func (t RationalTime) Frames() int {
	return int(math.Round(t.Value))
}

// TimeRange is a half-open span: StartTime inclusive, StartTime+Duration
// exclusive.
type TimeRange struct {
	StartTime RationalTime
	Duration  RationalTime
}

// EndTimeInclusive returns the last frame inside the range.
func (r TimeRange) EndTimeInclusive() RationalTime {
	return RationalTime{Value: r.StartTime.Value + r.Duration.Value - 1, Rate: r.StartTime.Rate}
}

// EndTimeExclusive returns the first frame after the range.
func (r TimeRange) EndTimeExclusive() RationalTime {
	return RationalTime{Value: r.StartTime.Value + r.Duration.Value, Rate: r.StartTime.Rate}
}

// ReferenceKind tells what a clip's media reference points at.
type ReferenceKind string

const (
	ReferenceExternal  ReferenceKind = "external"
	ReferenceGenerator ReferenceKind = "generator"
	ReferenceMissing   ReferenceKind = "missing"
)

// MediaReference describes the media behind a clip.
type MediaReference struct {
	Kind           ReferenceKind
	TargetPath     string
	AvailableRange *TimeRange
}

// Clip is one edited segment of a track.
type Clip struct {
	Name        string
	SourceRange *TimeRange
	Media       MediaReference
}

// ItemKind distinguishes the things that occupy track time.
type ItemKind string

const (
	ItemClip       ItemKind = "clip"
	ItemGap        ItemKind = "gap"
	ItemTransition ItemKind = "transition"
)

// Item is one entry of a track. Clip is set only for ItemClip; Duration
// carries the length of gaps. Transitions overlap their neighbours and do
// not advance track time.
type Item struct {
	Kind     ItemKind
	Clip     *Clip
	Duration RationalTime
}

// TrackKind separates picture from sound tracks.
type TrackKind string

const (
	TrackVideo TrackKind = "video"
	TrackAudio TrackKind = "audio"
)

// Track is an ordered lane of items.
type Track struct {
	Name        string
	Kind        TrackKind
	SourceRange *TimeRange
	Items       []Item
}

// StartFrame returns the frame offset this track contributes to clip
// positions. Tracks without an explicit source range contribute nothing.
func (t *Track) StartFrame(timelineFrameStart int) int {
	if t.SourceRange == nil {
		return 0
	}
	return int(math.Abs(t.SourceRange.StartTime.Value)) - timelineFrameStart
}

// Timeline is a parsed editorial document.
type Timeline struct {
	Name      string
	FrameRate float64
	Tracks    []Track
}

// PlacedClip pairs a content clip with its position in its track. The
// trimmed range falls back to the range in parent when the interchange
// format omitted the clip's source range.
type PlacedClip struct {
	Clip          *Clip
	Track         *Track
	RangeInParent TimeRange
}

// TrimmedRange returns the clip's source range, reconstructed from its
// position in the track when the document carried none.
func (p PlacedClip) TrimmedRange() TimeRange {
	if p.Clip.SourceRange != nil {
		return *p.Clip.SourceRange
	}
	return p.RangeInParent
}

// ContentClips walks tracks of the given kinds in document order and yields
// clips that can become instances. Nameless clips, gaps, transitions, and
// generator media are filtered out, but still occupy their track time.
func (tl *Timeline) ContentClips(kinds ...TrackKind) []PlacedClip {
	if len(kinds) == 0 {
		kinds = []TrackKind{TrackVideo}
	}
	wanted := make(map[TrackKind]struct{}, len(kinds))
	for _, k := range kinds {
		wanted[k] = struct{}{}
	}

	var placed []PlacedClip
	for i := range tl.Tracks {
		track := &tl.Tracks[i]
		if _, ok := wanted[track.Kind]; !ok {
			continue
		}
		position := 0.0
		for _, item := range track.Items {
			switch item.Kind {
			case ItemGap:
				position += item.Duration.Value
			case ItemTransition:
				// Transitions overlap adjacent clips.
			case ItemClip:
				clip := item.Clip
				duration := clipDuration(clip, item)
				rangeInParent := TimeRange{
					StartTime: RationalTime{Value: position, Rate: tl.FrameRate},
					Duration:  RationalTime{Value: duration, Rate: tl.FrameRate},
				}
				position += duration
				if clip.Name == "" || clip.Media.Kind == ReferenceGenerator {
					continue
				}
				placed = append(placed, PlacedClip{Clip: clip, Track: track, RangeInParent: rangeInParent})
			}
		}
	}
	return placed
}

func clipDuration(clip *Clip, item Item) float64 {
	if clip.SourceRange != nil {
		return clip.SourceRange.Duration.Value
	}
	return item.Duration.Value
}

// Timing is the frame arithmetic derived for one placed clip.
type Timing struct {
	ClipIn       int
	ClipOut      int
	ClipDuration int
	SourceIn     int
	SourceOut    int
	FrameStart   int
	FrameEnd     int
}

// ComputeTiming derives the instance frame numbers for a placed clip.
// workfileStartFrame, when non-nil, pins frameStart regardless of the
// clip's position in the timeline.
func ComputeTiming(clip PlacedClip, trackStartFrame, timelineOffset int, workfileStartFrame *int) Timing {
	trimmed := clip.TrimmedRange()

	timing := Timing{
		ClipIn:       clip.RangeInParent.StartTime.Frames() + trackStartFrame + timelineOffset,
		ClipOut:      clip.RangeInParent.EndTimeInclusive().Frames() + trackStartFrame + timelineOffset,
		ClipDuration: trimmed.Duration.Frames(),
		SourceIn:     trimmed.StartTime.Frames(),
	}
	timing.SourceOut = timing.SourceIn + timing.ClipDuration
	if workfileStartFrame != nil {
		timing.FrameStart = *workfileStartFrame
	} else {
		timing.FrameStart = timing.ClipIn
	}
	timing.FrameEnd = timing.FrameStart + timing.ClipDuration - 1
	return timing
}

// FromFile parses an editorial document chosen by file extension. EDL input
// needs an explicit fps because the format carries no frame rate.
func FromFile(path string, fps float64) (*Timeline, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".edl":
		if fps <= 0 {
			return nil, fmt.Errorf("edl input requires an explicit fps")
		}
		return parseEDLFile(path, fps)
	case ".xml":
		return parseFCPXMLFile(path)
	default:
		return nil, fmt.Errorf("unsupported timeline format %q", filepath.Ext(path))
	}
}
