package timeline

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// CMX3600 event line: number, reel, channel, transition, then four
// timecodes (source in/out, record in/out). Dissolves carry an extra
// duration field after the transition code.
var edlEvent = regexp.MustCompile(`^(\d+)\s+(\S+)\s+(\S+)\s+(\S+)(?:\s+(\d+))?\s+` +
	`(\d{1,2}[:;]\d{2}[:;]\d{2}[:;]\d{2})\s+(\d{1,2}[:;]\d{2}[:;]\d{2}[:;]\d{2})\s+` +
	`(\d{1,2}[:;]\d{2}[:;]\d{2}[:;]\d{2})\s+(\d{1,2}[:;]\d{2}[:;]\d{2}[:;]\d{2})\s*$`)

func parseEDLFile(path string, fps float64) (*Timeline, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open edl: %w", err)
	}
	defer file.Close()
	return ParseEDL(file, fps)
}

// ParseEDL reads a CMX3600 edit decision list. The format carries no frame
// rate, so fps must be supplied. Mismatches between an event's source and
// record durations are tolerated; the record range wins.
func ParseEDL(r io.Reader, fps float64) (*Timeline, error) {
	tl := &Timeline{FrameRate: fps}
	video := Track{Name: "V", Kind: TrackVideo}
	audio := Track{Name: "A", Kind: TrackAudio}

	videoPos := -1
	audioPos := -1
	var lastClip *Clip

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "" || strings.HasPrefix(line, "FCM:"):
			continue
		case strings.HasPrefix(line, "TITLE:"):
			tl.Name = strings.TrimSpace(strings.TrimPrefix(line, "TITLE:"))
			continue
		case strings.HasPrefix(line, "*"):
			applyEDLComment(line, lastClip)
			continue
		}

		m := edlEvent.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		reel, channel, transition := m[2], m[3], m[4]
		srcIn, err1 := timecodeToFrames(m[6], fps)
		srcOut, err2 := timecodeToFrames(m[7], fps)
		recIn, err3 := timecodeToFrames(m[8], fps)
		recOut, err4 := timecodeToFrames(m[9], fps)
		for _, err := range []error{err1, err2, err3, err4} {
			if err != nil {
				return nil, fmt.Errorf("edl line %d: %w", lineNo, err)
			}
		}
		// The record range is authoritative when the source span
		// disagrees with it.
		duration := recOut - recIn
		if duration <= 0 {
			duration = srcOut - srcIn
		}
		if duration <= 0 {
			return nil, fmt.Errorf("edl line %d: record out before record in", lineNo)
		}

		track := &video
		pos := &videoPos
		if !strings.Contains(channel, "V") {
			track = &audio
			pos = &audioPos
		}

		if *pos < 0 {
			*pos = recIn
		}
		if gap := recIn - *pos; gap > 0 {
			track.Items = append(track.Items, Item{
				Kind:     ItemGap,
				Duration: RationalTime{Value: float64(gap), Rate: fps},
			})
			*pos = recIn
		}

		if strings.HasPrefix(transition, "D") || strings.HasPrefix(transition, "W") {
			length, _ := strconv.Atoi(m[5])
			track.Items = append(track.Items, Item{
				Kind:     ItemTransition,
				Duration: RationalTime{Value: float64(length), Rate: fps},
			})
		}

		if reel == "BL" {
			track.Items = append(track.Items, Item{
				Kind:     ItemGap,
				Duration: RationalTime{Value: float64(duration), Rate: fps},
			})
			*pos += duration
			lastClip = nil
			continue
		}

		clip := &Clip{
			Name: reel,
			SourceRange: &TimeRange{
				StartTime: RationalTime{Value: float64(srcIn), Rate: fps},
				Duration:  RationalTime{Value: float64(duration), Rate: fps},
			},
			Media: MediaReference{Kind: ReferenceMissing},
		}
		track.Items = append(track.Items, Item{Kind: ItemClip, Clip: clip})
		*pos += duration
		lastClip = clip
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read edl: %w", err)
	}

	if len(video.Items) > 0 {
		tl.Tracks = append(tl.Tracks, video)
	}
	if len(audio.Items) > 0 {
		tl.Tracks = append(tl.Tracks, audio)
	}
	return tl, nil
}

// applyEDLComment folds the conventional "* FROM CLIP NAME:" and
// "* SOURCE FILE:" annotations into the event they follow.
func applyEDLComment(line string, clip *Clip) {
	if clip == nil {
		return
	}
	comment := strings.TrimSpace(strings.TrimPrefix(line, "*"))
	switch {
	case strings.HasPrefix(comment, "FROM CLIP NAME:"):
		clip.Name = strings.TrimSpace(strings.TrimPrefix(comment, "FROM CLIP NAME:"))
	case strings.HasPrefix(comment, "SOURCE FILE:"):
		clip.Media = MediaReference{
			Kind:       ReferenceExternal,
			TargetPath: strings.TrimSpace(strings.TrimPrefix(comment, "SOURCE FILE:")),
		}
	}
}

// timecodeToFrames converts hh:mm:ss:ff to a frame count. Drop-frame
// separators are read as their non-drop equivalents.
func timecodeToFrames(tc string, fps float64) (int, error) {
	parts := strings.FieldsFunc(tc, func(r rune) bool { return r == ':' || r == ';' })
	if len(parts) != 4 {
		return 0, fmt.Errorf("malformed timecode %q", tc)
	}
	values := make([]int, 4)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return 0, fmt.Errorf("malformed timecode %q", tc)
		}
		values[i] = n
	}
	nominal := int(math.Round(fps))
	seconds := (values[0]*60+values[1])*60 + values[2]
	return seconds*nominal + values[3], nil
}
