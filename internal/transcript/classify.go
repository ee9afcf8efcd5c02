package transcript

import "strings"

// Kind is the coarse content category of an attachment, derived solely from
// the trailing extension token of its URL. There is no content sniffing.
type Kind int

const (
	KindGeneric Kind = iota
	KindImage
	KindVideo
	KindAudio
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	default:
		return "file"
	}
}

var kindByExtension = map[string]Kind{
	"jpg":  KindImage,
	"jpeg": KindImage,
	"png":  KindImage,
	"gif":  KindImage,
	"bmp":  KindImage,
	"webp": KindImage,
	"jfif": KindImage,
	"mp4":  KindVideo,
	"webm": KindVideo,
	"ogg":  KindVideo,
	"mp3":  KindAudio,
	"wav":  KindAudio,
}

// Classify maps an attachment URL to its content kind. The extension is the
// lowercased substring after the last '.' in the path portion; anything
// unrecognized, including a missing extension, is KindGeneric.
func Classify(url string) Kind {
	path := stripQuery(url)
	dot := strings.LastIndex(path, ".")
	if dot < 0 || dot == len(path)-1 {
		return KindGeneric
	}
	ext := strings.ToLower(path[dot+1:])
	// a '.' inside a directory segment is not an extension
	if strings.Contains(ext, "/") {
		return KindGeneric
	}
	if kind, ok := kindByExtension[ext]; ok {
		return kind
	}
	return KindGeneric
}

// DisplayName returns the final path segment of an attachment URL, used as
// the label for generic download links.
func DisplayName(url string) string {
	path := stripQuery(url)
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		path = path[idx+1:]
	}
	return path
}

func stripQuery(url string) string {
	if idx := strings.IndexAny(url, "?#"); idx >= 0 {
		return url[:idx]
	}
	return url
}
