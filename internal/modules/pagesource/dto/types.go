package dto

import "time"

type Direction string

const (
	DirectionPrevious Direction = "previous"
	DirectionNext     Direction = "next"
)

// Properties mirrors the flat host configuration record.
type Properties struct {
	FilePath           string
	PageNumber         int
	OverridePageSize   bool
	OverrideWidth      int
	OverrideHeight     int
	OverrideFitToPage  bool
	OverrideDPIEnabled bool
	OverrideDPI        int
}

type OpenInput struct {
	Name       string
	Properties Properties
}

type UpdateInput struct {
	Name       string
	Properties Properties
}

type NavigateInput struct {
	Name      string
	Direction Direction
}

// Snapshot is the host-visible state of an open source.
type Snapshot struct {
	Name       string
	FilePath   string
	BrowseDir  string
	Page       int
	Width      int
	Height     int
	HasTexture bool
	Stats      Stats
}

type Stats struct {
	Cycles            int
	EngineRuns        int
	TexturesCreated   int
	TexturesUpdated   int
	TexturesDestroyed int
	LastRendered      bool
	LastCycle         time.Duration
}

// Frame is what a render tick draws: the texture (nil when nothing is
// rendered) and the size to draw it at.
type Frame struct {
	Width   int
	Height  int
	Texture any
}

type SavePropertiesInput struct {
	Name       string
	Properties Properties
}

type NamedProperties struct {
	Name       string
	Properties Properties
}
