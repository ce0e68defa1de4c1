package domain

import "time"

// LoadStats counts what a source has done since it was created.
type LoadStats struct {
	Cycles            int
	EngineRuns        int
	TexturesCreated   int
	TexturesUpdated   int
	TexturesDestroyed int
	LastRendered      bool
	LastCycle         time.Duration
}
