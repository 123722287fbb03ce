package timeline

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"
	"strings"
)

type xmemlDoc struct {
	XMLName  xml.Name      `xml:"xmeml"`
	Sequence xmemlSequence `xml:"sequence"`
}

type xmemlSequence struct {
	Name  string    `xml:"name"`
	Rate  xmemlRate `xml:"rate"`
	Media struct {
		Video struct {
			Tracks []xmemlTrack `xml:"track"`
		} `xml:"video"`
		Audio struct {
			Tracks []xmemlTrack `xml:"track"`
		} `xml:"audio"`
	} `xml:"media"`
}

type xmemlRate struct {
	Timebase float64 `xml:"timebase"`
	NTSC     string  `xml:"ntsc"`
}

func (r xmemlRate) fps() float64 {
	if strings.EqualFold(r.NTSC, "TRUE") {
		return r.Timebase * 1000 / 1001
	}
	return r.Timebase
}

type xmemlTrack struct {
	ClipItems   []xmemlClipItem   `xml:"clipitem"`
	Generators  []xmemlClipItem   `xml:"generatoritem"`
	Transitions []xmemlTransition `xml:"transitionitem"`
}

type xmemlClipItem struct {
	Name  string    `xml:"name"`
	Start float64   `xml:"start"`
	End   float64   `xml:"end"`
	In    float64   `xml:"in"`
	Out   float64   `xml:"out"`
	File  xmemlFile `xml:"file"`
}

type xmemlFile struct {
	ID      string `xml:"id,attr"`
	Name    string `xml:"name"`
	PathURL string `xml:"pathurl"`
}

type xmemlTransition struct {
	Start float64 `xml:"start"`
	End   float64 `xml:"end"`
}

func parseFCPXMLFile(path string) (*Timeline, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open xml: %w", err)
	}
	defer file.Close()
	return ParseFCPXML(file)
}

// ParseFCPXML reads an FCP7 interchange (xmeml) document. Clip positions
// come from the explicit start/end values; the space between consecutive
// clips becomes gap items so track arithmetic stays positional.
func ParseFCPXML(r io.Reader) (*Timeline, error) {
	var doc xmemlDoc
	decoder := xml.NewDecoder(r)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse xmeml: %w", err)
	}

	seq := doc.Sequence
	fps := seq.Rate.fps()
	if fps <= 0 {
		return nil, fmt.Errorf("sequence %q has no usable frame rate", seq.Name)
	}

	tl := &Timeline{Name: seq.Name, FrameRate: fps}
	// File elements after the first reference by id only.
	filePaths := make(map[string]xmemlFile)

	for i, track := range seq.Media.Video.Tracks {
		tl.Tracks = append(tl.Tracks, buildXMLTrack(track, TrackVideo, fmt.Sprintf("V%d", i+1), fps, filePaths))
	}
	for i, track := range seq.Media.Audio.Tracks {
		tl.Tracks = append(tl.Tracks, buildXMLTrack(track, TrackAudio, fmt.Sprintf("A%d", i+1), fps, filePaths))
	}
	return tl, nil
}

type xmlEntry struct {
	kind      ItemKind
	start     float64
	end       float64
	clip      *Clip
	generator bool
}

func buildXMLTrack(src xmemlTrack, kind TrackKind, name string, fps float64, filePaths map[string]xmemlFile) Track {
	var entries []xmlEntry
	for _, item := range src.ClipItems {
		entries = append(entries, clipEntry(item, fps, false, filePaths))
	}
	for _, item := range src.Generators {
		entries = append(entries, clipEntry(item, fps, true, filePaths))
	}
	for _, item := range src.Transitions {
		entries = append(entries, xmlEntry{kind: ItemTransition, start: item.Start, end: item.End})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].start < entries[j].start })

	track := Track{Name: name, Kind: kind}
	position := 0.0
	for _, entry := range entries {
		if entry.kind == ItemTransition {
			track.Items = append(track.Items, Item{
				Kind:     ItemTransition,
				Duration: RationalTime{Value: entry.end - entry.start, Rate: fps},
			})
			continue
		}
		start := entry.start
		if start < position {
			start = position
		}
		if gap := start - position; gap > 0 {
			track.Items = append(track.Items, Item{
				Kind:     ItemGap,
				Duration: RationalTime{Value: gap, Rate: fps},
			})
			position = start
		}
		duration := entry.end - start
		if duration <= 0 {
			continue
		}
		track.Items = append(track.Items, Item{Kind: ItemClip, Clip: entry.clip})
		position += duration
	}
	return track
}

func clipEntry(item xmemlClipItem, fps float64, generator bool, filePaths map[string]xmemlFile) xmlEntry {
	file := item.File
	if file.ID != "" {
		if file.PathURL == "" && file.Name == "" {
			file = filePaths[file.ID]
		} else {
			filePaths[file.ID] = file
		}
	}

	media := MediaReference{Kind: ReferenceMissing}
	if generator {
		media.Kind = ReferenceGenerator
	} else if file.PathURL != "" {
		media = MediaReference{Kind: ReferenceExternal, TargetPath: pathFromURL(file.PathURL)}
	}

	clip := &Clip{
		Name: item.Name,
		SourceRange: &TimeRange{
			StartTime: RationalTime{Value: item.In, Rate: fps},
			Duration:  RationalTime{Value: item.Out - item.In, Rate: fps},
		},
		Media: media,
	}
	return xmlEntry{kind: ItemClip, start: item.Start, end: item.End, clip: clip, generator: generator}
}

func pathFromURL(pathURL string) string {
	path := pathURL
	path = strings.TrimPrefix(path, "file://localhost")
	path = strings.TrimPrefix(path, "file://")
	if unescaped, err := url.PathUnescape(path); err == nil {
		path = unescaped
	}
	return path
}
