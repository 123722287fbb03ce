package media

import "testing"

func TestKinds(t *testing.T) {
	cases := []struct {
		ext   string
		video bool
		image bool
		audio bool
	}{
		{".mov", true, false, false},
		{"MP4", true, false, false},
		{".exr", false, true, false},
		{"jpg", false, true, false},
		{".wav", false, false, true},
		{".abc", false, false, false},
		{"", false, false, false},
	}
	for _, c := range cases {
		if got := IsVideo(c.ext); got != c.video {
			t.Errorf("IsVideo(%q) = %v", c.ext, got)
		}
		if got := IsImage(c.ext); got != c.image {
			t.Errorf("IsImage(%q) = %v", c.ext, got)
		}
		if got := IsAudio(c.ext); got != c.audio {
			t.Errorf("IsAudio(%q) = %v", c.ext, got)
		}
	}
}
