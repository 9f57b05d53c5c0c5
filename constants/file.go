package constants

import "strings"

// FileFormat classifies an input by how it must be normalized before OCR.
type FileFormat string

const (
	PDF   FileFormat = "PDF"
	IMAGE FileFormat = "IMAGE"
)

// AllowedExtensions holds the file extensions accepted for document ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"heic": {},
	"heif": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a normalized extension to its input format.
// Returns "" for unsupported extensions.
func MapExtToFormat(ext string) FileFormat {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "jpg", "jpeg", "png", "heic", "heif":
		return IMAGE
	default:
		return ""
	}
}

// IsHEICExt reports whether the extension requires HEIC decoding.
func IsHEICExt(ext string) bool {
	e := NormalizeExt(ext)
	return e == "heic" || e == "heif"
}
