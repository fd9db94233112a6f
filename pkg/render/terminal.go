// Package render draws collision shapes as ASCII frames.
package render

import (
	"bufio"
	"io"
	"math"
	"strings"

	"github.com/opd-ai/go-collide/pkg/physics"
)

// OverlapGlyph marks cells covered by more than one shape
const OverlapGlyph = '*'

// TerminalRenderer rasterizes shapes into a character grid. Each cell
// covers scale world units on a side.
type TerminalRenderer struct {
	width     int
	height    int
	buffer    [][]rune
	scale     float64
	centerPos physics.Vector2D
	// ClearScreen emits an ANSI clear before each frame.
	ClearScreen bool
}

// NewTerminalRenderer creates a new terminal renderer with the specified dimensions
func NewTerminalRenderer(width, height int, scale float64) *TerminalRenderer {
	buffer := make([][]rune, height)
	for i := range buffer {
		buffer[i] = make([]rune, width)
	}
	if scale <= 0 {
		scale = 1
	}

	r := &TerminalRenderer{
		width:  width,
		height: height,
		buffer: buffer,
		scale:  scale,
	}
	r.Clear()
	return r
}

// FitTo returns a renderer whose view covers area
func FitTo(area physics.Rect, width, height int) *TerminalRenderer {
	scale := math.Max(area.Width/float64(width), area.Height/float64(height))
	r := NewTerminalRenderer(width, height, scale)
	r.SetCenter(area.Center)
	return r
}

// SetCenter sets the center position of the view
func (r *TerminalRenderer) SetCenter(pos physics.Vector2D) {
	r.centerPos = pos
}

// worldToScreen converts world coordinates to screen coordinates
func (r *TerminalRenderer) worldToScreen(pos physics.Vector2D) (int, int) {
	screenX := int(math.Floor((pos.X-r.centerPos.X)/r.scale + float64(r.width)/2))
	screenY := int(math.Floor((pos.Y-r.centerPos.Y)/r.scale + float64(r.height)/2))
	return screenX, screenY
}

// cellCenter returns the world position of the centre of cell (x, y)
func (r *TerminalRenderer) cellCenter(x, y int) physics.Vector2D {
	return physics.Vec(
		(float64(x)+0.5-float64(r.width)/2)*r.scale+r.centerPos.X,
		(float64(y)+0.5-float64(r.height)/2)*r.scale+r.centerPos.Y,
	)
}

func (r *TerminalRenderer) inView(x, y int) bool {
	return x >= 0 && x < r.width && y >= 0 && y < r.height
}

// Clear blanks the buffer
func (r *TerminalRenderer) Clear() {
	for y := range r.buffer {
		for x := range r.buffer[y] {
			r.buffer[y][x] = ' '
		}
	}
}

// DrawShape fills every cell whose centre lies inside shape with glyph.
// Shapes smaller than a cell mark the cell holding their centre.
func (r *TerminalRenderer) DrawShape(shape physics.Shape, glyph rune) {
	if shape == nil {
		return
	}
	b := shape.Bounds()
	x0, y0 := r.worldToScreen(b.Min())
	x1, y1 := r.worldToScreen(b.Max())

	drawn := false
	for y := max(y0, 0); y <= min(y1, r.height-1); y++ {
		for x := max(x0, 0); x <= min(x1, r.width-1); x++ {
			if shape.ContainsPoint(r.cellCenter(x, y)) {
				r.plot(x, y, glyph)
				drawn = true
			}
		}
	}
	if !drawn {
		if x, y := r.worldToScreen(shape.Position()); r.inView(x, y) {
			r.plot(x, y, glyph)
		}
	}
}

func (r *TerminalRenderer) plot(x, y int, glyph rune) {
	if cur := r.buffer[y][x]; cur != ' ' && cur != glyph {
		glyph = OverlapGlyph
	}
	r.buffer[y][x] = glyph
}

// String returns the framed buffer
func (r *TerminalRenderer) String() string {
	var sb strings.Builder
	border := "+" + strings.Repeat("-", r.width) + "+\n"
	sb.WriteString(border)
	for y := range r.buffer {
		sb.WriteByte('|')
		sb.WriteString(string(r.buffer[y]))
		sb.WriteString("|\n")
	}
	sb.WriteString(border)
	return sb.String()
}

// Present writes the framed buffer to w
func (r *TerminalRenderer) Present(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if r.ClearScreen {
		bw.WriteString("\033[H\033[2J")
	}
	bw.WriteString(r.String())
	return bw.Flush()
}
