package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"

	"github.com/verte-zerg/paperlist/internal/model"
)

const (
	defaultTrendHeight  = 8
	minTrendWidth       = 10
	trendLabelTop       = "T1"
	trendLabelBottom    = "T8"
	trendSeparator      = " │ "
	trendColor          = "\x1b[33m"
	terminalWidthBackup = 80
)

// RenderTrend plots the tier of each finish, oldest to newest, with the best
// tier at the top. Finishes are expected newest first, as History returns them.
func RenderTrend(w io.Writer, finishes []model.Finish, width, height int, useColor bool) error {
	if len(finishes) == 0 {
		_, err := fmt.Fprintln(w, "No finished lists found.")
		return err
	}
	if height <= 0 {
		height = defaultTrendHeight
	}
	if width <= 0 {
		width = TrendWidthFor(terminalWidth())
	}
	if width < minTrendWidth {
		width = minTrendWidth
	}

	tiers := make([]float64, len(finishes))
	for i, f := range finishes {
		tiers[len(finishes)-1-i] = float64(f.Tier)
	}
	values := resampleSeries(tiers, width)

	cells := makeCells(height, width)
	dots := height * 4
	prevX, prevY := -1, -1
	for x, v := range values {
		px, py := x*2, tierToRow(v, dots)
		if prevX >= 0 {
			drawLine(prevX, prevY, px, py, func(dx, dy int) {
				setBrailleDot(cells, dx, dy)
			})
		} else {
			setBrailleDot(cells, px, py)
		}
		prevX, prevY = px, py
	}

	if _, err := fmt.Fprintf(w, "Tier trend, last %d finishes (oldest to newest)\n", len(finishes)); err != nil {
		return err
	}
	labelWidth := utf8.RuneCountInString(trendLabelTop)
	for y := 0; y < height; y++ {
		label := ""
		switch y {
		case 0:
			label = trendLabelTop
		case height - 1:
			label = trendLabelBottom
		}
		var row strings.Builder
		row.WriteString(fmt.Sprintf("%*s%s", labelWidth, label, trendSeparator))
		if useColor {
			row.WriteString(trendColor)
		}
		for x := 0; x < width; x++ {
			row.WriteRune(brailleFromMask(cells[y][x]))
		}
		if useColor {
			row.WriteString(colorReset)
		}
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return err
		}
	}
	return nil
}

// TrendWidthFor computes a plot width that fits within the total available width.
func TrendWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minTrendWidth
	}
	axisWidth := utf8.RuneCountInString(trendLabelTop) + utf8.RuneCountInString(trendSeparator)
	width := totalWidth - axisWidth
	if width < minTrendWidth {
		width = minTrendWidth
	}
	return width
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

// tierToRow maps tier 1 to the top dot row and the last tier to the bottom one.
func tierToRow(tier float64, dots int) int {
	if dots <= 1 {
		return 0
	}
	pos := (tier - 1) / float64(model.TierCount-1)
	row := int(math.Round(pos * float64(dots-1)))
	if row < 0 {
		row = 0
	}
	if row >= dots {
		row = dots - 1
	}
	return row
}

func makeCells(height, width int) [][]uint8 {
	cells := make([][]uint8, height)
	for y := range cells {
		cells[y] = make([]uint8, width)
	}
	return cells
}

// resampleSeries averages buckets when shrinking and interpolates when stretching.
func resampleSeries(values []float64, width int) []float64 {
	if len(values) == 0 || width <= 0 {
		return nil
	}
	out := make([]float64, width)
	switch {
	case len(values) == width:
		copy(out, values)
	case len(values) > width:
		for i := 0; i < width; i++ {
			start := i * len(values) / width
			end := (i + 1) * len(values) / width
			if end <= start {
				end = start + 1
			}
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
	case len(values) == 1 || width == 1:
		for i := range out {
			out[i] = values[0]
		}
	default:
		last := len(values) - 1
		for i := 0; i < width; i++ {
			pos := float64(i) * float64(last) / float64(width-1)
			idx := int(math.Floor(pos))
			if idx >= last {
				out[i] = values[last]
				continue
			}
			frac := pos - float64(idx)
			out[i] = values[idx]*(1-frac) + values[idx+1]*frac
		}
	}
	return out
}

// drawLine walks the Bresenham line between two dot coordinates.
func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := x1 - x0
	if dx < 0 {
		dx = -dx
	}
	dy := y1 - y0
	if dy > 0 {
		dy = -dy
	}
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func setBrailleDot(cells [][]uint8, x, y int) {
	if x < 0 || y < 0 {
		return
	}
	cellY, cellX := y/4, x/2
	if cellY >= len(cells) || cellX >= len(cells[cellY]) {
		return
	}
	cells[cellY][cellX] |= brailleDotMask(x%2, y%4)
}

// brailleDotMask returns the Unicode braille bit for a dot in a 2x4 cell.
func brailleDotMask(x, y int) uint8 {
	left := [4]uint8{0x01, 0x02, 0x04, 0x40}
	right := [4]uint8{0x08, 0x10, 0x20, 0x80}
	if y < 0 || y > 3 {
		return 0
	}
	if x == 0 {
		return left[y]
	}
	if x == 1 {
		return right[y]
	}
	return 0
}

func brailleFromMask(mask uint8) rune {
	return rune(0x2800 + int(mask))
}
