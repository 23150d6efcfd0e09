package report

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"time"
)

// Chart geometry. Line charts use a fixed canvas; bar charts grow with the
// number of rows.
const (
	lineChartWidth  = 960
	lineChartHeight = 480
	barChartWidth   = 960
	barRowHeight    = 28
)

type chartMargins struct {
	left, right, top, bottom float64
}

var lineMargins = chartMargins{left: 80, right: 30, top: 50, bottom: 60}
var barMargins = chartMargins{left: 240, right: 90, top: 50, bottom: 40}

// chartPalette follows the familiar matplotlib tab10 ordering so counters
// keep recognizable colors across charts.
var chartPalette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

type chartPoint struct {
	ts    time.Time
	value float64
}

type chartSeries struct {
	name   string
	points []chartPoint
}

type chartBar struct {
	label string
	value float64
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func xmlEscape(s string) string { return xmlEscaper.Replace(s) }

// renderLineChart draws one polyline per series over a shared time axis.
// Series with no points are skipped; a chart with no data at all still
// renders its frame and title.
func renderLineChart(title string, allSeries []chartSeries) []byte {
	var buf bytes.Buffer
	openSVG(&buf, lineChartWidth, lineChartHeight)
	writeTitle(&buf, title, lineChartWidth)

	plotLeft := lineMargins.left
	plotTop := lineMargins.top
	plotWidth := float64(lineChartWidth) - lineMargins.left - lineMargins.right
	plotHeight := float64(lineChartHeight) - lineMargins.top - lineMargins.bottom

	var tsMin, tsMax time.Time
	valMin, valMax := math.Inf(1), math.Inf(-1)
	var seen int
	for _, s := range allSeries {
		for _, p := range s.points {
			if seen == 0 || p.ts.Before(tsMin) {
				tsMin = p.ts
			}
			if seen == 0 || p.ts.After(tsMax) {
				tsMax = p.ts
			}
			valMin = math.Min(valMin, p.value)
			valMax = math.Max(valMax, p.value)
			seen++
		}
	}

	drawFrame(&buf, plotLeft, plotTop, plotWidth, plotHeight)
	if seen == 0 {
		writeNoData(&buf, plotLeft+plotWidth/2, plotTop+plotHeight/2)
		closeSVG(&buf)
		return buf.Bytes()
	}

	// Pad the value range so extreme points do not sit on the frame. A
	// constant series still needs a non-zero span to scale against.
	span := valMax - valMin
	if span == 0 {
		span = math.Max(math.Abs(valMax), 1)
	}
	valMin -= span * 0.05
	valMax += span * 0.05

	xAt := func(ts time.Time) float64 {
		total := tsMax.Sub(tsMin)
		if total <= 0 {
			return plotLeft + plotWidth/2
		}
		return plotLeft + plotWidth*float64(ts.Sub(tsMin))/float64(total)
	}
	yAt := func(v float64) float64 {
		return plotTop + plotHeight*(1-(v-valMin)/(valMax-valMin))
	}

	// Horizontal gridlines with value labels.
	for i := 0; i <= 4; i++ {
		v := valMin + (valMax-valMin)*float64(i)/4
		y := yAt(v)
		fmt.Fprintf(&buf, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#e0e0e0"/>`+"\n",
			plotLeft, y, plotLeft+plotWidth, y)
		fmt.Fprintf(&buf, `<text x="%.1f" y="%.1f" font-size="11" text-anchor="end" fill="#555">%s</text>`+"\n",
			plotLeft-6, y+4, xmlEscape(formatAxisValue(v)))
	}

	// Boundary timestamps on the x axis.
	const axisTimeLayout = "2006-01-02 15:04"
	fmt.Fprintf(&buf, `<text x="%.1f" y="%.1f" font-size="11" fill="#555">%s</text>`+"\n",
		plotLeft, plotTop+plotHeight+18, xmlEscape(tsMin.Format(axisTimeLayout)))
	if tsMax.After(tsMin) {
		fmt.Fprintf(&buf, `<text x="%.1f" y="%.1f" font-size="11" text-anchor="end" fill="#555">%s</text>`+"\n",
			plotLeft+plotWidth, plotTop+plotHeight+18, xmlEscape(tsMax.Format(axisTimeLayout)))
	}

	legendX := plotLeft
	for i, s := range allSeries {
		if len(s.points) == 0 {
			continue
		}
		color := chartPalette[i%len(chartPalette)]

		var coords strings.Builder
		for j, p := range s.points {
			if j > 0 {
				coords.WriteByte(' ')
			}
			fmt.Fprintf(&coords, "%.1f,%.1f", xAt(p.ts), yAt(p.value))
		}
		if len(s.points) > 1 {
			fmt.Fprintf(&buf, `<polyline points="%s" fill="none" stroke="%s" stroke-width="2"/>`+"\n",
				coords.String(), color)
		}
		for _, p := range s.points {
			fmt.Fprintf(&buf, `<circle cx="%.1f" cy="%.1f" r="3" fill="%s"/>`+"\n",
				xAt(p.ts), yAt(p.value), color)
		}

		fmt.Fprintf(&buf, `<rect x="%.1f" y="%.1f" width="10" height="10" fill="%s"/>`+"\n",
			legendX, plotTop-24, color)
		fmt.Fprintf(&buf, `<text x="%.1f" y="%.1f" font-size="12" fill="#333">%s</text>`+"\n",
			legendX+14, plotTop-15, xmlEscape(s.name))
		legendX += 14 + 8*float64(len(s.name)) + 24
	}

	closeSVG(&buf)
	return buf.Bytes()
}

// renderBarChart draws horizontal bars, one row per entry, with a shared
// zero line so negative values extend left.
func renderBarChart(title string, bars []chartBar) []byte {
	height := barMargins.top + barRowHeight*float64(len(bars)) + barMargins.bottom
	if len(bars) == 0 {
		height = 200
	}

	var buf bytes.Buffer
	openSVG(&buf, barChartWidth, int(height))
	writeTitle(&buf, title, barChartWidth)

	plotLeft := barMargins.left
	plotTop := barMargins.top
	plotWidth := float64(barChartWidth) - barMargins.left - barMargins.right

	if len(bars) == 0 {
		writeNoData(&buf, plotLeft+plotWidth/2, height/2)
		closeSVG(&buf)
		return buf.Bytes()
	}

	valMin, valMax := 0.0, 0.0
	for _, bar := range bars {
		valMin = math.Min(valMin, bar.value)
		valMax = math.Max(valMax, bar.value)
	}
	if valMax == valMin {
		valMax = valMin + 1
	}

	xAt := func(v float64) float64 {
		return plotLeft + plotWidth*(v-valMin)/(valMax-valMin)
	}
	zeroX := xAt(0)

	for i, bar := range bars {
		y := plotTop + float64(i)*barRowHeight
		color := chartPalette[0]
		x, width := zeroX, xAt(bar.value)-zeroX
		if bar.value < 0 {
			color = "#d62728"
			x, width = xAt(bar.value), zeroX-xAt(bar.value)
		}

		fmt.Fprintf(&buf, `<rect x="%.1f" y="%.1f" width="%.1f" height="%d" fill="%s"/>`+"\n",
			x, y+4, width, barRowHeight-8, color)
		fmt.Fprintf(&buf, `<text x="%.1f" y="%.1f" font-size="12" text-anchor="end" fill="#333">%s</text>`+"\n",
			plotLeft-8, y+barRowHeight/2+4, xmlEscape(truncateLabel(bar.label)))

		valueX := x + width + 6
		anchor := "start"
		if bar.value < 0 {
			valueX = x - 6
			anchor = "end"
		}
		fmt.Fprintf(&buf, `<text x="%.1f" y="%.1f" font-size="11" text-anchor="%s" fill="#555">%s</text>`+"\n",
			valueX, y+barRowHeight/2+4, anchor, xmlEscape(formatAxisValue(bar.value)))
	}

	fmt.Fprintf(&buf, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#999"/>`+"\n",
		zeroX, plotTop, zeroX, plotTop+float64(len(bars))*barRowHeight)

	closeSVG(&buf)
	return buf.Bytes()
}

func openSVG(buf *bytes.Buffer, width, height int) {
	fmt.Fprintf(buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`+"\n",
		width, height, width, height)
	fmt.Fprintf(buf, `<rect width="%d" height="%d" fill="white"/>`+"\n", width, height)
}

func closeSVG(buf *bytes.Buffer) {
	buf.WriteString("</svg>\n")
}

func writeTitle(buf *bytes.Buffer, title string, width int) {
	fmt.Fprintf(buf, `<text x="%d" y="24" font-size="16" text-anchor="middle" fill="#111">%s</text>`+"\n",
		width/2, xmlEscape(title))
}

func writeNoData(buf *bytes.Buffer, x, y float64) {
	fmt.Fprintf(buf, `<text x="%.1f" y="%.1f" font-size="14" text-anchor="middle" fill="#888">no data</text>`+"\n", x, y)
}

func drawFrame(buf *bytes.Buffer, left, top, width, height float64) {
	fmt.Fprintf(buf, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="none" stroke="#999"/>`+"\n",
		left, top, width, height)
}

func formatAxisValue(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return formatFloat(v)
	}
	return fmt.Sprintf("%.2f", v)
}

func truncateLabel(label string) string {
	runes := []rune(label)
	if len(runes) <= 24 {
		return label
	}
	return string(runes[:23]) + "…"
}
