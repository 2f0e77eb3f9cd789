// Package dashboard renders the daily and weekly HTML reports, including
// the inline SVG charts.
package dashboard

import (
	"fmt"
	"strings"
)

// Point is one chart coordinate in pixel space.
type Point struct {
	X float64
	Y float64
}

// Chart holds the plot geometry shared by the line and area charts.
type Chart struct {
	Width        int
	Height       int
	MarginLeft   int
	MarginRight  int
	MarginTop    int
	MarginBottom int
}

// NewChart returns the standard dashboard chart geometry.
func NewChart() Chart {
	return Chart{
		Width:        900,
		Height:       400,
		MarginLeft:   80,
		MarginRight:  50,
		MarginTop:    60,
		MarginBottom: 60,
	}
}

func (c Chart) plotWidth() float64 {
	return float64(c.Width - c.MarginLeft - c.MarginRight)
}

func (c Chart) plotHeight() float64 {
	return float64(c.Height - c.MarginTop - c.MarginBottom)
}

// X maps a sample index in a series of n to its pixel x.
func (c Chart) X(i, n int) float64 {
	if n <= 1 {
		return float64(c.MarginLeft)
	}
	return float64(c.MarginLeft) + c.plotWidth()*float64(i)/float64(n-1)
}

// Y maps a value onto the vertical axis scaled to max.
func (c Chart) Y(value, max float64) float64 {
	if max <= 0 {
		return float64(c.MarginTop) + c.plotHeight()
	}
	if value > max {
		value = max
	}
	if value < 0 {
		value = 0
	}
	return float64(c.MarginTop) + c.plotHeight()*(1-value/max)
}

// BaselineY is the y of the zero line.
func (c Chart) BaselineY() float64 {
	return float64(c.MarginTop) + c.plotHeight()
}

// Points scales a series onto the chart.
func (c Chart) Points(values []float64, max float64) []Point {
	pts := make([]Point, len(values))
	for i, v := range values {
		pts[i] = Point{X: c.X(i, len(values)), Y: c.Y(v, max)}
	}
	return pts
}

// LinePath renders a polyline path through the points.
func LinePath(pts []Point) string {
	if len(pts) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "M %.1f %.1f", pts[0].X, pts[0].Y)
	for _, p := range pts[1:] {
		fmt.Fprintf(&b, " L %.1f %.1f", p.X, p.Y)
	}
	return b.String()
}

// SmoothPath renders a Catmull-Rom smoothed cubic path through the points.
func SmoothPath(pts []Point) string {
	if len(pts) < 3 {
		return LinePath(pts)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "M %.1f %.1f", pts[0].X, pts[0].Y)
	for i := 0; i < len(pts)-1; i++ {
		p0 := pts[maxInt(i-1, 0)]
		p1 := pts[i]
		p2 := pts[i+1]
		p3 := pts[minInt(i+2, len(pts)-1)]

		c1 := Point{X: p1.X + (p2.X-p0.X)/6, Y: p1.Y + (p2.Y-p0.Y)/6}
		c2 := Point{X: p2.X - (p3.X-p1.X)/6, Y: p2.Y - (p3.Y-p1.Y)/6}
		fmt.Fprintf(&b, " C %.1f %.1f, %.1f %.1f, %.1f %.1f", c1.X, c1.Y, c2.X, c2.Y, p2.X, p2.Y)
	}
	return b.String()
}

// AreaPath closes a smoothed path down to the baseline so it can be
// filled.
func AreaPath(pts []Point, baselineY float64) string {
	if len(pts) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(SmoothPath(pts))
	fmt.Fprintf(&b, " L %.1f %.1f", pts[len(pts)-1].X, baselineY)
	fmt.Fprintf(&b, " L %.1f %.1f Z", pts[0].X, baselineY)
	return b.String()
}

// AxisLabel is a positioned tick label.
type AxisLabel struct {
	X    float64
	Y    float64
	Text string
}

// YLabels produces count+1 evenly spaced labels from 0 to max.
func (c Chart) YLabels(max float64, count int) []AxisLabel {
	if count <= 0 {
		count = 4
	}
	labels := make([]AxisLabel, 0, count+1)
	for i := 0; i <= count; i++ {
		v := max * float64(i) / float64(count)
		labels = append(labels, AxisLabel{
			X:    float64(c.MarginLeft) - 10,
			Y:    c.Y(v, max),
			Text: trimFloat(v),
		})
	}
	return labels
}

// XLabels positions the given tick texts under the plot.
func (c Chart) XLabels(texts []string) []AxisLabel {
	labels := make([]AxisLabel, len(texts))
	for i, text := range texts {
		labels[i] = AxisLabel{
			X:    c.X(i, len(texts)),
			Y:    c.BaselineY() + 20,
			Text: text,
		}
	}
	return labels
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.1f", v)
	s = strings.TrimSuffix(s, ".0")
	return s
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
