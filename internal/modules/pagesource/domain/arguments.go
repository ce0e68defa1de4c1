package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Display device ABI version the callback table is built against. An engine
// reporting a different version rejects the table.
const (
	DisplayVersionMajor = 3
	DisplayVersionMinor = 0
)

// DisplayFormat is the bit set describing the raster layout the display
// device delivers.
type DisplayFormat uint32

const (
	DisplayColorsRGB    DisplayFormat = 1 << 2
	DisplayUnusedLast   DisplayFormat = 1 << 8
	DisplayDepth8       DisplayFormat = 1 << 12
	DisplayLittleEndian DisplayFormat = 1 << 16
	DisplayTopFirst     DisplayFormat = 0

	// DisplayFormatBGRX is 8-bit RGB stored little-endian with a trailing
	// pad byte, first row at the top: B, G, R, X in memory.
	DisplayFormatBGRX = DisplayColorsRGB | DisplayUnusedLast | DisplayDepth8 | DisplayLittleEndian | DisplayTopFirst
)

// BytesPerPixel of DisplayFormatBGRX.
const BytesPerPixel = 4

// Engine argument tokens.
const (
	ArgProgram       = "gs"
	ArgDeviceDisplay = "-sDEVICE=display"
	ArgFixedMedia    = "-dFIXEDMEDIA"
	ArgFitPage       = "-dPDFFitPage"
	ArgFile          = "-f"

	ArgPrefixDisplayHandle = "-sDisplayHandle="
	ArgPrefixDisplayFormat = "-dDisplayFormat="
	ArgPrefixPageList      = "-sPageList="
	ArgPrefixWidthPoints   = "-dDEVICEWIDTHPOINTS="
	ArgPrefixHeightPoints  = "-dDEVICEHEIGHTPOINTS="
	ArgPrefixResolution    = "-r"
)

var ErrInvalidDisplayHandle = errors.New("invalid display handle")

// DisplayHandle identifies the source a display callback belongs to.
type DisplayHandle uint64

// String renders the handle in the engine's radix notation, e.g. 16#2a.
func (h DisplayHandle) String() string {
	return "16#" + strconv.FormatUint(uint64(h), 16)
}

func ParseDisplayHandle(value string) (DisplayHandle, error) {
	hex, ok := strings.CutPrefix(value, "16#")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDisplayHandle, value)
	}
	n, err := strconv.ParseUint(hex, 16, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDisplayHandle, value)
	}
	return DisplayHandle(n), nil
}

// RenderRequest is everything one engine invocation depends on.
type RenderRequest struct {
	Handle   DisplayHandle
	FilePath string
	Page     int
	Size     *SizeOverride
	DPI      *DPIOverride
}

// BuildArguments returns the engine argument vector for req. The order is
// fixed: program, device, handle, format, page list, size override tokens,
// resolution, then the file flag and path. Callers must not pass an empty
// path.
func BuildArguments(req RenderRequest) []string {
	args := make([]string, 0, 12)
	args = append(args,
		ArgProgram,
		ArgDeviceDisplay,
		ArgPrefixDisplayHandle+req.Handle.String(),
		ArgPrefixDisplayFormat+strconv.FormatUint(uint64(DisplayFormatBGRX), 10),
		ArgPrefixPageList+strconv.Itoa(req.Page),
	)
	if req.Size != nil {
		args = append(args, ArgFixedMedia)
		if req.Size.FitToPage {
			args = append(args, ArgFitPage)
		}
		args = append(args,
			ArgPrefixWidthPoints+strconv.Itoa(req.Size.Width),
			ArgPrefixHeightPoints+strconv.Itoa(req.Size.Height),
		)
	}
	if req.DPI != nil {
		args = append(args, ArgPrefixResolution+strconv.Itoa(req.DPI.DPI))
	}
	return append(args, ArgFile, req.FilePath)
}
