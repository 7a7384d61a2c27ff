// Package render decides how a requested file is presented: streamed
// directly as a PDF, converted first, or embedded as an image.
package render

import (
	"path"
	"strings"
)

// Class is the presentation category of a file, derived purely from its
// extension.
type Class int

const (
	Unsupported Class = iota
	DirectStreamPdf
	ConvertThenStream
	ImageDisplay
)

func (c Class) String() string {
	switch c {
	case DirectStreamPdf:
		return "direct-stream-pdf"
	case ConvertThenStream:
		return "convert-then-stream"
	case ImageDisplay:
		return "image-display"
	default:
		return "unsupported"
	}
}

// Classify maps a file name to its presentation class, case-insensitively.
// It is a pure function with no side effects.
func Classify(filename string) Class {
	switch strings.ToLower(path.Ext(filename)) {
	case ".pdf":
		return DirectStreamPdf
	case ".docx", ".doc", ".odt":
		return ConvertThenStream
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return ImageDisplay
	default:
		return Unsupported
	}
}
