package transcript

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		url  string
		want Kind
	}{
		{"photo.JPG", KindImage},
		{"https://cdn.example.com/u/1/photo.jpeg", KindImage},
		{"pic.webp", KindImage},
		{"scan.jfif", KindImage},
		{"clip.mp4", KindVideo},
		{"clip.WEBM", KindVideo},
		{"stream.ogg", KindVideo},
		{"note.mp3", KindAudio},
		{"voice.wav", KindAudio},
		{"report.pdf", KindGeneric},
		{"archive.tar.gz", KindGeneric},
		{"noext", KindGeneric},
		{"", KindGeneric},
		{"trailingdot.", KindGeneric},
		{"https://host/dir.with.dots/file", KindGeneric},
		{"https://host/a/photo.png?token=abc", KindImage},
	}
	for _, tc := range cases {
		if got := Classify(tc.url); got != tc.want {
			t.Errorf("Classify(%q) = %v, want %v", tc.url, got, tc.want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://cdn.example.com/uploads/report.pdf", "report.pdf"},
		{"report.pdf", "report.pdf"},
		{"https://host/a/b/c/data.bin?sig=x", "data.bin"},
	}
	for _, tc := range cases {
		if got := DisplayName(tc.url); got != tc.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}
