package domain

import "fmt"

type Direction string

const (
	DirectionPrevious Direction = "previous"
	DirectionNext     Direction = "next"
)

func (d Direction) Validate() error {
	switch d {
	case DirectionPrevious, DirectionNext:
		return nil
	default:
		return fmt.Errorf("unknown direction: %q", d)
	}
}

// Cursor is the current page of a source, always within [MinPage, MaxPage].
type Cursor struct {
	page int
}

func NewCursor(page int) Cursor {
	return Cursor{page: ClampPage(page)}
}

func (c Cursor) Page() int {
	if c.page == 0 {
		return MinPage
	}
	return c.page
}

// Step moves one page in d. At either bound the cursor is unchanged.
func (c Cursor) Step(d Direction) Cursor {
	page := c.Page()
	switch d {
	case DirectionPrevious:
		if page > MinPage {
			page--
		}
	case DirectionNext:
		if page < MaxPage {
			page++
		}
	}
	return Cursor{page: page}
}
