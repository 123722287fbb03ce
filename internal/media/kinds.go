// Package media classifies file extensions into the content kinds ingest
// cares about. The ffprobe subpackage handles actual media inspection.
package media

import "strings"

var videoExtensions = map[string]struct{}{
	".avi": {}, ".m4v": {}, ".mkv": {}, ".mov": {}, ".mp4": {},
	".mpg": {}, ".mpeg": {}, ".mxf": {}, ".webm": {}, ".wmv": {},
}

var imageExtensions = map[string]struct{}{
	".bmp": {}, ".dpx": {}, ".exr": {}, ".gif": {}, ".jpeg": {},
	".jpg": {}, ".png": {}, ".psd": {}, ".tga": {}, ".tif": {},
	".tiff": {},
}

var audioExtensions = map[string]struct{}{
	".aac": {}, ".aif": {}, ".aiff": {}, ".flac": {}, ".mp3": {},
	".ogg": {}, ".wav": {},
}

func normalize(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// IsVideo reports whether ext names a video container.
func IsVideo(ext string) bool {
	_, ok := videoExtensions[normalize(ext)]
	return ok
}

// IsImage reports whether ext names a still image format.
func IsImage(ext string) bool {
	_, ok := imageExtensions[normalize(ext)]
	return ok
}

// IsAudio reports whether ext names an audio format.
func IsAudio(ext string) bool {
	_, ok := audioExtensions[normalize(ext)]
	return ok
}
