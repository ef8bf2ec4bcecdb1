// Package raster rasterizes the line primitives that both the server and any
// client must apply identically (spec §4.5).
package raster

// Point is an integer canvas coordinate.
type Point struct {
	X, Y int
}

// BresenhamLine returns every integer point on the line from (x0,y0) to
// (x1,y1) inclusive of both endpoints, using the single-loop symmetric
// Bresenham form (dy held negative, two independent error checks per step)
// rather than a major-axis-branch variant: the two produce different point
// sequences off the axes and diagonals, and spec §4.5 requires server and
// client to agree pixel-for-pixel.
func BresenhamLine(x0, y0, x1, y1 int) []Point {
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy

	points := make([]Point, 0, dx-dy+1)
	for {
		points = append(points, Point{x0, y0})
		if x0 == x1 && y0 == y1 {
			break
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
	return points
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
