package page

import (
	"fmt"
	"image"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const upperHalf = "▀"

// Fit returns the largest cols x rows cell area keeping the aspect ratio of
// an imgW x imgH image inside maxCols x maxRows. One cell shows two pixel
// rows.
func Fit(imgW, imgH, maxCols, maxRows int) (int, int) {
	if imgW <= 0 || imgH <= 0 || maxCols <= 0 || maxRows <= 0 {
		return 0, 0
	}
	cols := maxCols
	rows := (imgH*cols/imgW + 1) / 2
	if rows > maxRows {
		rows = maxRows
		cols = imgW * rows * 2 / imgH
	}
	return max(cols, 1), max(rows, 1)
}

// HalfBlocks renders img into cols x rows cells using the upper half block
// with a foreground for the top pixel and a background for the bottom one.
// Sampling is nearest neighbour.
func HalfBlocks(img image.Image, cols, rows int) string {
	if img == nil || cols <= 0 || rows <= 0 {
		return ""
	}
	b := img.Bounds()
	var sb strings.Builder
	for row := 0; row < rows; row++ {
		if row > 0 {
			sb.WriteByte('\n')
		}
		topY := b.Min.Y + (2*row)*b.Dy()/(2*rows)
		botY := b.Min.Y + (2*row+1)*b.Dy()/(2*rows)
		for col := 0; col < cols; col++ {
			x := b.Min.X + col*b.Dx()/cols
			style := lipgloss.NewStyle().
				Foreground(hexColor(img, x, topY)).
				Background(hexColor(img, x, botY))
			sb.WriteString(style.Render(upperHalf))
		}
	}
	return sb.String()
}

func hexColor(img image.Image, x, y int) lipgloss.Color {
	r, g, b, _ := img.At(x, y).RGBA()
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8))
}
