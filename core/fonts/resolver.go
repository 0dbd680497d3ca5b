// Package fonts picks the TrueType font embedded into rendered schedules.
//
// Resolution is an explicit probe over an ordered list of paths; the result is
// a plain Font value that the caller owns and passes to the renderer. Nothing
// here is cached globally: probing again is a deliberate call to Resolve.
package fonts

import (
	"os"
)

// DefaultCandidates returns the built-in search order. Only TrueType (.ttf)
// files are listed because the PDF backend cannot embed collections (.ttc)
// or CFF-flavoured OpenType.
func DefaultCandidates() []string {
	return []string{
		"/app/fonts/NotoSansJP-Regular.ttf",
		"/usr/share/fonts/truetype/noto/NotoSansJP-Regular.ttf",
		"/usr/share/fonts/opentype/ipaexfont-gothic/ipaexg.ttf",
		"/usr/share/fonts/truetype/fonts-japanese-gothic.ttf",
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		"/Library/Fonts/Arial Unicode.ttf",
		"C:/Windows/Fonts/arial.ttf",
	}
}

// Font is the outcome of a probe. The zero value means no usable font file was
// found and the renderer must fall back to a built-in core font.
type Font struct {
	Path string
}

// Available reports whether a font file was found.
func (f Font) Available() bool { return f.Path != "" }

// Name returns the font path, or "system_default" when none was found.
func (f Font) Name() string {
	if f.Path == "" {
		return "system_default"
	}
	return f.Path
}

// Resolver probes candidate paths in order.
type Resolver struct {
	candidates []string
	stat       func(string) (os.FileInfo, error)
}

// NewResolver creates a Resolver over candidates. An empty list means
// DefaultCandidates.
func NewResolver(candidates []string) *Resolver {
	if len(candidates) == 0 {
		candidates = DefaultCandidates()
	}
	return &Resolver{
		candidates: append([]string(nil), candidates...),
		stat:       os.Stat,
	}
}

// Candidates returns a copy of the search order.
func (r *Resolver) Candidates() []string {
	return append([]string(nil), r.candidates...)
}

// Resolve returns the first candidate that exists as a regular file.
// It only touches the filesystem; calling it twice gives the same answer
// unless the filesystem changed in between.
func (r *Resolver) Resolve() Font {
	for _, path := range r.candidates {
		info, err := r.stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		return Font{Path: path}
	}
	return Font{}
}
