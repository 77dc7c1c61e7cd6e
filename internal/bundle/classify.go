package bundle

import (
	"mime"
	"path"
	"strings"
)

// Kind is the classification of a bundle entry or object key.
type Kind int

const (
	// KindNone is neither image, OCR nor junk. Such entries are ignored.
	KindNone Kind = iota

	// KindImage is a page image under an images/ segment.
	KindImage

	// KindOCR is an OCR sidecar under an ocr/ segment.
	KindOCR

	// KindJunk is a hidden, resource-fork or directory entry.
	KindJunk
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindOCR:
		return "ocr"
	case KindJunk:
		return "junk"
	default:
		return "none"
	}
}

// ocrExtensions are the sidecar types accepted under ocr/.
var ocrExtensions = map[string]bool{
	"txt":  true,
	"xml":  true,
	"json": true,
	"html": true,
	"hocr": true,
	"tsv":  true,
}

// imageTypes covers formats the platform MIME table may not know.
var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".jp2":  "image/jp2",
	".bmp":  "image/bmp",
	".webp": "image/webp",
}

// Classify decides what a bundle path or object key is.
// It is a pure function of the string.
func Classify(p string) Kind {
	if IsJunk(p) {
		return KindJunk
	}
	segs := segments(p)
	if hasSegment(segs, "images") && strings.HasPrefix(GuessType(p), "image/") {
		return KindImage
	}
	if hasSegment(segs, "ocr") && ocrExtensions[extension(p)] {
		return KindOCR
	}
	return KindNone
}

// IsJunk reports whether p is an empty path, a directory entry, or has a
// hidden (".", "~") or resource-fork ("__") segment.
func IsJunk(p string) bool {
	if p == "" || strings.HasSuffix(p, "/") || strings.HasSuffix(p, `\`) {
		return true
	}
	for _, seg := range segments(p) {
		if seg == "." || seg == ".." {
			continue
		}
		if strings.HasPrefix(seg, ".") || strings.HasPrefix(seg, "~") || strings.HasPrefix(seg, "__") {
			return true
		}
	}
	return false
}

// IsMetadata reports whether p names the volume metadata file:
// basename without extension equal to "metadata", case-insensitively.
func IsMetadata(p string) bool {
	if IsJunk(p) {
		return false
	}
	base := Base(p)
	stem := strings.TrimSuffix(base, path.Ext(base))
	return strings.EqualFold(stem, "metadata")
}

// GuessType returns the MIME type for p's extension, or "".
func GuessType(p string) string {
	ext := strings.ToLower(path.Ext(Base(p)))
	if ext == "" {
		return ""
	}
	if t, ok := imageTypes[ext]; ok {
		return t
	}
	return mime.TypeByExtension(ext)
}

// Base returns the last segment of a slash or backslash separated path.
func Base(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}
	return p
}

// Stem returns the basename without its extension.
func Stem(p string) string {
	base := Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}

// PrefixPID prepends "{pid}_" to name unless the pid already appears in it.
func PrefixPID(pid, name string) string {
	if pid == "" || strings.Contains(name, pid) {
		return name
	}
	return pid + "_" + name
}

func extension(p string) string {
	return strings.TrimPrefix(strings.ToLower(path.Ext(Base(p))), ".")
}

func segments(p string) []string {
	return strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' })
}

func hasSegment(segs []string, want string) bool {
	// The last segment is the file itself.
	for i := 0; i < len(segs)-1; i++ {
		if strings.EqualFold(segs[i], want) {
			return true
		}
	}
	return false
}
