package ffprobe

import (
	"context"
	"encoding/json"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"sprocket/internal/pipeline"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	Duration   string `json:"duration"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	RFrameRate string `json:"r_frame_rate"`
	NBFrames   string `json:"nb_frames"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	FormatName string `json:"format_name"`
}

// Inspect executes ffprobe against the provided path and decodes the JSON
// response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, pipeline.Wrap(pipeline.ErrFfprobe, "ffprobe", "inspect", "empty path", nil)
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return Result{}, pipeline.Wrap(pipeline.ErrFfprobe, "ffprobe", "inspect",
			path+": "+strings.TrimSpace(string(output)), err)
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, pipeline.Wrap(pipeline.ErrFfprobe, "ffprobe", "parse", path, err)
	}
	return result, nil
}

// VideoStream returns the first video stream, or nil when the container
// has none.
func (r Result) VideoStream() *Stream {
	for i := range r.Streams {
		if strings.EqualFold(r.Streams[i].CodecType, "video") {
			return &r.Streams[i]
		}
	}
	return nil
}

// FrameRate returns the video frame rate in frames per second, or 0 when
// the container has no video stream or an unusable rate.
func (r Result) FrameRate() float64 {
	stream := r.VideoStream()
	if stream == nil {
		return 0
	}
	return parseRational(stream.RFrameRate)
}

// FrameCount returns the number of video frames. When the stream does not
// report nb_frames it is derived from duration and frame rate.
func (r Result) FrameCount() int {
	stream := r.VideoStream()
	if stream == nil {
		return 0
	}
	if n, err := strconv.Atoi(strings.TrimSpace(stream.NBFrames)); err == nil && n > 0 {
		return n
	}
	duration := parseFloat(stream.Duration)
	if duration == 0 || math.IsNaN(duration) {
		duration = parseFloat(r.Format.Duration)
	}
	fps := parseRational(stream.RFrameRate)
	if duration <= 0 || fps <= 0 || math.IsNaN(duration) {
		return 0
	}
	return int(math.Round(duration * fps))
}

// DurationSeconds returns the container duration in seconds, or 0 when
// unavailable.
func (r Result) DurationSeconds() float64 {
	duration := parseFloat(r.Format.Duration)
	if math.IsNaN(duration) {
		return 0
	}
	return duration
}

// parseRational reads ffprobe's "num/den" rate notation.
func parseRational(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	num, den, found := strings.Cut(value, "/")
	if !found {
		rate := parseFloat(value)
		if math.IsNaN(rate) {
			return 0
		}
		return rate
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
