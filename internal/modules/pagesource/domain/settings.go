package domain

import (
	"path"
	"strings"
)

const (
	MinPage = 1
	MaxPage = 9999

	MinDPI     = 1
	MaxDPI     = 600
	DefaultDPI = 72
)

// SupportedExtensions lists the document types offered by the file picker.
var SupportedExtensions = []string{".pdf", ".ps", ".eps", ".epsf"}

// SizeOverride forces a fixed media size in points.
type SizeOverride struct {
	Width     int
	Height    int
	FitToPage bool
}

// DPIOverride forces the output resolution.
type DPIOverride struct {
	DPI int
}

// Settings is the normalized state a source renders from. A nil override
// means the engine default is used.
type Settings struct {
	FilePath string
	Page     int
	Size     *SizeOverride
	DPI      *DPIOverride
}

// HasDocument reports whether a document path is configured.
func (s Settings) HasDocument() bool {
	return strings.TrimSpace(s.FilePath) != ""
}

// BrowseDir is the directory a file picker should open in: the directory of
// the current path with separators normalized to '/'.
func (s Settings) BrowseDir() string {
	if !s.HasDocument() {
		return ""
	}
	p := strings.ReplaceAll(s.FilePath, `\`, "/")
	idx := strings.LastIndex(p, "/")
	if idx < 0 {
		return ""
	}
	return p[:idx+1]
}

// Properties is the flat record produced by host configuration. Every
// override keeps its value while disabled so toggling it back restores the
// previous numbers.
type Properties struct {
	FilePath           string `yaml:"file_path"`
	PageNumber         int    `yaml:"page_number"`
	OverridePageSize   bool   `yaml:"should_override_page_size"`
	OverrideWidth      int    `yaml:"override_width"`
	OverrideHeight     int    `yaml:"override_height"`
	OverrideFitToPage  bool   `yaml:"override_fit_to_page"`
	OverrideDPIEnabled bool   `yaml:"should_override_dpi"`
	OverrideDPI        int    `yaml:"override_dpi"`
}

func DefaultProperties() Properties {
	return Properties{
		PageNumber:        MinPage,
		OverrideFitToPage: true,
		OverrideDPI:       DefaultDPI,
	}
}

// Settings converts the flat record into Settings. Out-of-range values are
// clamped; a size override without a positive width and height is dropped.
func (p Properties) Settings() Settings {
	s := Settings{
		FilePath: strings.TrimSpace(p.FilePath),
		Page:     ClampPage(p.PageNumber),
	}
	if p.OverridePageSize && p.OverrideWidth > 0 && p.OverrideHeight > 0 {
		s.Size = &SizeOverride{
			Width:     p.OverrideWidth,
			Height:    p.OverrideHeight,
			FitToPage: p.OverrideFitToPage,
		}
	}
	if p.OverrideDPIEnabled {
		s.DPI = &DPIOverride{DPI: clamp(p.OverrideDPI, MinDPI, MaxDPI)}
	}
	return s
}

// IsSupportedFile reports whether name has an extension the file picker
// offers. Other files may still render; this is advisory.
func IsSupportedFile(name string) bool {
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(name, `\`, "/")))
	for _, supported := range SupportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

func ClampPage(page int) int {
	return clamp(page, MinPage, MaxPage)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
