// Package report renders analysis runs as SVG charts, HTML and Markdown
// reports, CSV data files and terminal tables.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Tarini2005/Financial-News-Impact-Analyzer/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// SVG Chart Generator
// ════════════════════════════════════════════════════════════════════

// NoDataMessage is shown on charts that have nothing to plot.
const NoDataMessage = "No data available"

// ChartConfig holds rendering parameters for SVG charts.
type ChartConfig struct {
	Width        int    // SVG width in pixels (default: 800)
	Height       int    // SVG height in pixels (default: 400)
	MarginTop    int    // top margin (default: 40)
	MarginRight  int    // right margin (default: 60)
	MarginBottom int    // bottom margin (default: 50)
	MarginLeft   int    // left margin (default: 70)
	BgColor      string // background color
	GridColor    string // grid line color
	TextColor    string // axis label color
	FontSize     int    // axis label font size (default: 11)
	Title        string // chart title
}

// DefaultChartConfig returns sensible defaults for chart rendering.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:        800,
		Height:       400,
		MarginTop:    40,
		MarginRight:  60,
		MarginBottom: 50,
		MarginLeft:   70,
		BgColor:      "#ffffff",
		GridColor:    "#e8e8e8",
		TextColor:    "#333333",
		FontSize:     11,
	}
}

// withDefaults fills a zero config and keeps the caller's title.
func (c ChartConfig) withDefaults(title string) ChartConfig {
	if c.Width == 0 {
		t := c.Title
		c = DefaultChartConfig()
		c.Title = t
	}
	if c.Title == "" {
		c.Title = title
	}
	return c
}

// plotArea returns the usable drawing area dimensions.
func (c ChartConfig) plotArea() (x, y, w, h int) {
	return c.MarginLeft, c.MarginTop,
		c.Width - c.MarginLeft - c.MarginRight,
		c.Height - c.MarginTop - c.MarginBottom
}

// frame writes the header, background and title.
func frame(sb *strings.Builder, cfg ChartConfig) {
	sb.WriteString(svgHeader(cfg))
	sb.WriteString(fmt.Sprintf(`<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`,
		cfg.Width, cfg.Height, cfg.BgColor))
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="20" font-size="14" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
		cfg.Width/2, cfg.TextColor, escapeXML(cfg.Title)))
}

// yGrid draws horizontal grid lines with value labels.
func yGrid(sb *strings.Builder, cfg ChartConfig, minVal, vRange float64, format string) {
	px, py, pw, ph := cfg.plotArea()
	gridLines := 5
	for i := 0; i <= gridLines; i++ {
		val := minVal + vRange*float64(i)/float64(gridLines)
		y := py + ph - int(float64(ph)*float64(i)/float64(gridLines))
		sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-dasharray="3,3"/>`,
			px, y, px+pw, y, cfg.GridColor))
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" font-size="%d" fill="%s" text-anchor="end">`+format+`</text>`,
			px-5, y+4, cfg.FontSize, cfg.TextColor, val))
	}
}

// paddedRange returns min and span widened by pad on each side.
func paddedRange(minVal, maxVal, pad float64) (float64, float64) {
	vRange := maxVal - minVal
	if vRange < 0.001 {
		vRange = 1
		minVal -= 0.5
		maxVal += 0.5
	}
	minVal -= vRange * pad
	maxVal += vRange * pad
	return minVal, maxVal - minVal
}

// ════════════════════════════════════════════════════════════════════
// Line Chart
// ════════════════════════════════════════════════════════════════════

// LineChartSeries represents a named data series for line charts.
type LineChartSeries struct {
	Name   string
	Values []float64 // NaN marks a gap
	Color  string    // hex color (optional, auto-assigned if empty)
}

var seriesColors = []string{"#2196f3", "#ff9800", "#4caf50", "#e91e63", "#9c27b0", "#00bcd4"}

// LineChart generates an SVG line chart with one or more series.
// Labels are optional X-axis labels corresponding to data points.
func LineChart(series []LineChartSeries, labels []string, cfg ChartConfig) string {
	cfg = cfg.withDefaults("Line Chart")

	minVal, maxVal := math.MaxFloat64, -math.MaxFloat64
	maxLen := 0
	for _, s := range series {
		maxLen = max(maxLen, len(s.Values))
		for _, v := range s.Values {
			if math.IsNaN(v) {
				continue
			}
			minVal = math.Min(minVal, v)
			maxVal = math.Max(maxVal, v)
		}
	}
	if maxLen == 0 || minVal > maxVal {
		return emptySVG(cfg, NoDataMessage)
	}
	minVal, vRange := paddedRange(minVal, maxVal, 0.05)

	px, py, pw, ph := cfg.plotArea()
	xAt := func(i int) float64 {
		if maxLen == 1 {
			return float64(px) + float64(pw)/2
		}
		return float64(px) + float64(i)*float64(pw)/float64(maxLen-1)
	}

	var sb strings.Builder
	frame(&sb, cfg)
	yGrid(&sb, cfg, minVal, vRange, "%.2f")

	if minVal < 0 && minVal+vRange > 0 {
		zeroY := float64(py+ph) - (-minVal/vRange)*float64(ph)
		sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%.1f" x2="%d" y2="%.1f" stroke="#999" stroke-width="1"/>`,
			px, zeroY, px+pw, zeroY))
	}

	for si, s := range series {
		color := s.Color
		if color == "" {
			color = seriesColors[si%len(seriesColors)]
		}

		var pathParts []string
		for i, v := range s.Values {
			if math.IsNaN(v) {
				continue
			}
			cy := float64(py+ph) - (v-minVal)/vRange*float64(ph)
			cmd := "L"
			if len(pathParts) == 0 {
				cmd = "M"
			}
			pathParts = append(pathParts, fmt.Sprintf("%s%.1f,%.1f", cmd, xAt(i), cy))
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="2.5" fill="%s"/>`, xAt(i), cy, color))
		}
		if len(pathParts) > 1 {
			sb.WriteString(fmt.Sprintf(`<path d="%s" fill="none" stroke="%s" stroke-width="2"/>`,
				strings.Join(pathParts, " "), color))
		}

		// Legend
		ly := py + 10 + si*16
		sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="2"/>`,
			px+10, ly, px+30, ly, color))
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" font-size="10" fill="%s">%s</text>`,
			px+35, ly+4, cfg.TextColor, escapeXML(s.Name)))
	}

	xLabels(&sb, cfg, labels, maxLen, xAt)

	sb.WriteString("</svg>")
	return sb.String()
}

func xLabels(sb *strings.Builder, cfg ChartConfig, labels []string, n int, xAt func(int) float64) {
	_, py, _, ph := cfg.plotArea()
	interval := max(n/6, 1)
	for i := 0; i < len(labels) && i < n; i += interval {
		cx := xAt(i)
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" font-size="%d" fill="%s" text-anchor="middle">%s</text>`,
			cx, py+ph+18, cfg.FontSize-1, cfg.TextColor, escapeXML(labels[i])))
	}
}

// ════════════════════════════════════════════════════════════════════
// Bar Chart (Horizontal)
// ════════════════════════════════════════════════════════════════════

// BarItem represents a single bar in a horizontal bar chart.
type BarItem struct {
	Label string
	Value float64
	Color string // optional; green/red by sign otherwise
}

// HorizontalBarChart generates an SVG horizontal bar chart. Negative values
// extend left of a zero line.
func HorizontalBarChart(items []BarItem, valueFormat string, cfg ChartConfig) string {
	cfg = cfg.withDefaults("Comparison")
	if len(items) == 0 {
		return emptySVG(cfg, NoDataMessage)
	}
	if valueFormat == "" {
		valueFormat = "%.2f"
	}
	cfg.MarginLeft = 120 // wider for labels

	px, py, pw, ph := cfg.plotArea()

	maxVal, minVal := 0.0, 0.0
	for _, item := range items {
		maxVal = math.Max(maxVal, item.Value)
		minVal = math.Min(minVal, item.Value)
	}
	valRange := maxVal - minVal
	if valRange < 1e-9 {
		valRange = 1
	}

	barH := math.Min(float64(ph)/float64(len(items))*0.7, 30)
	gap := (float64(ph) - barH*float64(len(items))) / float64(len(items)+1)

	var sb strings.Builder
	frame(&sb, cfg)

	zeroX := float64(px) + (-minVal/valRange)*float64(pw)
	sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%d" x2="%.1f" y2="%d" stroke="#999" stroke-width="1"/>`,
		zeroX, py, zeroX, py+ph))

	for i, item := range items {
		by := float64(py) + gap + float64(i)*(barH+gap)
		color := item.Color
		if color == "" {
			color = signColor(item.Value)
		}

		bw := math.Abs(item.Value) / valRange * float64(pw)
		bx := zeroX
		if item.Value < 0 {
			bx = zeroX - bw
		}

		sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" rx="2"/>`,
			bx, by, bw, barH, color))
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%.1f" font-size="%d" fill="%s" text-anchor="end">%s</text>`,
			px-5, by+barH/2+4, cfg.FontSize, cfg.TextColor, escapeXML(item.Label)))
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" font-size="%d" fill="%s">`+valueFormat+`</text>`,
			math.Max(bx+bw, zeroX)+5, by+barH/2+4, cfg.FontSize, cfg.TextColor, item.Value))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func signColor(v float64) string {
	if v >= 0 {
		return "#4caf50"
	}
	return "#ef5350"
}

// ════════════════════════════════════════════════════════════════════
// Scatter Chart with least-squares line
// ════════════════════════════════════════════════════════════════════

// XY is one scatter point.
type XY struct {
	X, Y  float64
	Label string // optional tooltip
}

// LinearFit returns the least-squares slope and intercept of pts. ok is false
// when fewer than two points or no X variance.
func LinearFit(pts []XY) (slope, intercept float64, ok bool) {
	if len(pts) < 2 {
		return 0, 0, false
	}
	var sx, sy float64
	for _, p := range pts {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(pts))
	mx, my := sx/n, sy/n
	var sxx, sxy float64
	for _, p := range pts {
		sxx += (p.X - mx) * (p.X - mx)
		sxy += (p.X - mx) * (p.Y - my)
	}
	if sxx == 0 {
		return 0, 0, false
	}
	slope = sxy / sxx
	return slope, my - slope*mx, true
}

// ScatterChart plots Y against X and overlays the least-squares line.
func ScatterChart(pts []XY, xName, yName string, cfg ChartConfig) string {
	cfg = cfg.withDefaults("Scatter")
	if len(pts) == 0 {
		return emptySVG(cfg, NoDataMessage)
	}

	minX, maxX := pts[0].X, pts[0].X
	minY, maxY := pts[0].Y, pts[0].Y
	for _, p := range pts {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	minX, xRange := paddedRange(minX, maxX, 0.05)
	minY, yRange := paddedRange(minY, maxY, 0.05)

	px, py, pw, ph := cfg.plotArea()
	toX := func(x float64) float64 { return float64(px) + (x-minX)/xRange*float64(pw) }
	toY := func(y float64) float64 { return float64(py+ph) - (y-minY)/yRange*float64(ph) }

	var sb strings.Builder
	frame(&sb, cfg)
	yGrid(&sb, cfg, minY, yRange, "%.2f")

	for i := 0; i <= 5; i++ {
		val := minX + xRange*float64(i)/5
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" font-size="%d" fill="%s" text-anchor="middle">%.2f</text>`,
			toX(val), py+ph+18, cfg.FontSize, cfg.TextColor, val))
	}

	for _, p := range pts {
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="4" fill="#2196f3" opacity="0.7">`, toX(p.X), toY(p.Y)))
		if p.Label != "" {
			sb.WriteString(fmt.Sprintf(`<title>%s</title>`, escapeXML(p.Label)))
		}
		sb.WriteString(`</circle>`)
	}

	if slope, intercept, ok := LinearFit(pts); ok {
		x0, x1 := minX, minX+xRange
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#e91e63" stroke-width="2" stroke-dasharray="6,3"/>`,
			toX(x0), clampF(toY(slope*x0+intercept), float64(py), float64(py+ph)),
			toX(x1), clampF(toY(slope*x1+intercept), float64(py), float64(py+ph))))
	}

	// Axis names
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" font-size="%d" fill="%s" text-anchor="middle">%s</text>`,
		px+pw/2, cfg.Height-8, cfg.FontSize, cfg.TextColor, escapeXML(xName)))
	sb.WriteString(fmt.Sprintf(`<text x="14" y="%d" font-size="%d" fill="%s" text-anchor="middle" transform="rotate(-90,14,%d)">%s</text>`,
		py+ph/2, cfg.FontSize, cfg.TextColor, py+ph/2, escapeXML(yName)))

	sb.WriteString("</svg>")
	return sb.String()
}

func clampF(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// ════════════════════════════════════════════════════════════════════
// Heatmap
// ════════════════════════════════════════════════════════════════════

// HeatmapChart renders a rows × columns grid of values in [-1, 1] using a
// red-white-green scale. NaN cells are drawn grey.
func HeatmapChart(rows, cols []string, values [][]float64, cfg ChartConfig) string {
	cfg = cfg.withDefaults("Heatmap")
	if len(rows) == 0 || len(cols) == 0 {
		return emptySVG(cfg, NoDataMessage)
	}
	cfg.MarginLeft = 80
	cfg.MarginBottom = 70

	px, py, pw, ph := cfg.plotArea()
	cw := float64(pw) / float64(len(cols))
	rh := float64(ph) / float64(len(rows))

	var sb strings.Builder
	frame(&sb, cfg)

	for r, name := range rows {
		y := float64(py) + float64(r)*rh
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%.1f" font-size="%d" fill="%s" text-anchor="end">%s</text>`,
			px-5, y+rh/2+4, cfg.FontSize, cfg.TextColor, escapeXML(name)))
		for c := range cols {
			v := math.NaN()
			if r < len(values) && c < len(values[r]) {
				v = values[r][c]
			}
			sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" stroke="#fff"><title>%s %s: %s</title></rect>`,
				float64(px)+float64(c)*cw, y, cw, rh, heatColor(v),
				escapeXML(name), escapeXML(cols[c]), formatCell(v)))
		}
	}

	interval := max(len(cols)/10, 1)
	for c := 0; c < len(cols); c += interval {
		x := float64(px) + float64(c)*cw + cw/2
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" font-size="%d" fill="%s" text-anchor="end" transform="rotate(-45,%.1f,%d)">%s</text>`,
			x, py+ph+14, cfg.FontSize-1, cfg.TextColor, x, py+ph+14, escapeXML(cols[c])))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", v)
}

// heatColor maps [-1, 1] onto red → white → green.
func heatColor(v float64) string {
	if math.IsNaN(v) {
		return "#eeeeee"
	}
	v = clampF(v, -1, 1)
	if v >= 0 {
		// white (255,255,255) to green (76,175,80)
		return fmt.Sprintf("#%02x%02x%02x",
			255-int(179*v), 255-int(80*v), 255-int(175*v))
	}
	v = -v
	// white to red (239,83,80)
	return fmt.Sprintf("#%02x%02x%02x",
		255-int(16*v), 255-int(172*v), 255-int(175*v))
}

// ════════════════════════════════════════════════════════════════════
// Box Plot
// ════════════════════════════════════════════════════════════════════

// BoxStats is the five-number summary of one group.
type BoxStats struct {
	Label                    string
	Min, Q1, Median, Q3, Max float64
	N                        int
}

// NewBoxStats summarises values. Quartiles interpolate linearly between
// order statistics. ok is false for an empty group.
func NewBoxStats(label string, values []float64) (BoxStats, bool) {
	if len(values) == 0 {
		return BoxStats{}, false
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return BoxStats{
		Label:  label,
		Min:    sorted[0],
		Q1:     quantile(sorted, 0.25),
		Median: quantile(sorted, 0.5),
		Q3:     quantile(sorted, 0.75),
		Max:    sorted[len(sorted)-1],
		N:      len(sorted),
	}, true
}

func quantile(sorted []float64, p float64) float64 {
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := min(lo+1, len(sorted)-1)
	return sorted[lo] + (pos-float64(lo))*(sorted[hi]-sorted[lo])
}

// BoxChart draws one vertical box per group: whiskers at min and max, the
// box spanning the quartiles and a line at the median.
func BoxChart(boxes []BoxStats, cfg ChartConfig) string {
	cfg = cfg.withDefaults("Box Plot")
	if len(boxes) == 0 {
		return emptySVG(cfg, NoDataMessage)
	}

	minVal, maxVal := boxes[0].Min, boxes[0].Max
	for _, b := range boxes {
		minVal, maxVal = math.Min(minVal, b.Min), math.Max(maxVal, b.Max)
	}
	minVal, vRange := paddedRange(minVal, maxVal, 0.05)

	px, py, pw, ph := cfg.plotArea()
	toY := func(v float64) float64 { return float64(py+ph) - (v-minVal)/vRange*float64(ph) }
	slot := float64(pw) / float64(len(boxes))
	boxW := math.Min(slot*0.5, 60)

	var sb strings.Builder
	frame(&sb, cfg)
	yGrid(&sb, cfg, minVal, vRange, "%.2f")

	for i, b := range boxes {
		cx := float64(px) + slot*(float64(i)+0.5)
		color := seriesColors[i%len(seriesColors)]
		sb.WriteString(fmt.Sprintf(`<g><title>%s n=%d min %.3f q1 %.3f median %.3f q3 %.3f max %.3f</title>`,
			escapeXML(b.Label), b.N, b.Min, b.Q1, b.Median, b.Q3, b.Max))
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#555"/>`,
			cx, toY(b.Max), cx, toY(b.Q3)))
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#555"/>`,
			cx, toY(b.Q1), cx, toY(b.Min)))
		for _, v := range []float64{b.Min, b.Max} {
			sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#555"/>`,
				cx-boxW/4, toY(v), cx+boxW/4, toY(v)))
		}
		sb.WriteString(fmt.Sprintf(`<rect class="box" x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" fill-opacity="0.5" stroke="%s"/>`,
			cx-boxW/2, toY(b.Q3), boxW, math.Max(toY(b.Q1)-toY(b.Q3), 1), color, color))
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#333" stroke-width="2"/></g>`,
			cx-boxW/2, toY(b.Median), cx+boxW/2, toY(b.Median)))
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" font-size="%d" fill="%s" text-anchor="middle">%s</text>`,
			cx, py+ph+18, cfg.FontSize, cfg.TextColor, escapeXML(b.Label)))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// ════════════════════════════════════════════════════════════════════
// Price with sentiment markers
// ════════════════════════════════════════════════════════════════════

// PriceSentimentChart draws the close price line and marks each day with
// news using a green (positive) or red (negative) dot sized by article count.
func PriceSentimentChart(bars []models.PriceBar, daily []models.SentimentScore, cfg ChartConfig) string {
	cfg = cfg.withDefaults("Price and Sentiment")
	bars = models.DedupBars(bars)
	if len(bars) == 0 {
		return emptySVG(cfg, NoDataMessage)
	}

	minP, maxP := bars[0].Price(), bars[0].Price()
	for _, b := range bars {
		minP, maxP = math.Min(minP, b.Price()), math.Max(maxP, b.Price())
	}
	minP, pRange := paddedRange(minP, maxP, 0.05)

	px, py, pw, ph := cfg.plotArea()
	n := len(bars)
	xAt := func(i int) float64 {
		if n == 1 {
			return float64(px) + float64(pw)/2
		}
		return float64(px) + float64(i)*float64(pw)/float64(n-1)
	}
	toY := func(p float64) float64 { return float64(py+ph) - (p-minP)/pRange*float64(ph) }

	byDay := make(map[time.Time]models.SentimentScore, len(daily))
	for _, d := range daily {
		byDay[models.Day(d.Date)] = d
	}

	var sb strings.Builder
	frame(&sb, cfg)
	yGrid(&sb, cfg, minP, pRange, "%.2f")

	var path []string
	labels := make([]string, n)
	for i, b := range bars {
		cmd := "L"
		if i == 0 {
			cmd = "M"
		}
		path = append(path, fmt.Sprintf("%s%.1f,%.1f", cmd, xAt(i), toY(b.Price())))
		labels[i] = b.Date.Format("Jan 02")
	}
	sb.WriteString(fmt.Sprintf(`<path d="%s" fill="none" stroke="#2196f3" stroke-width="2"/>`, strings.Join(path, " ")))

	for i, b := range bars {
		s, ok := byDay[b.Date]
		if !ok || s.ArticleCount == 0 {
			continue
		}
		r := math.Min(3+float64(s.ArticleCount), 10)
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s" opacity="0.75"><title>%s sentiment %.3f (%d articles)</title></circle>`,
			xAt(i), toY(b.Price()), r, signColor(s.Value), b.Date.Format("2006-01-02"), s.Value, s.ArticleCount))
	}

	xLabels(&sb, cfg, labels, n, xAt)

	sb.WriteString("</svg>")
	return sb.String()
}

// ════════════════════════════════════════════════════════════════════
// Gauge (correlation coefficient)
// ════════════════════════════════════════════════════════════════════

// GaugeChart generates a semicircular gauge for a coefficient in [-1, 1].
func GaugeChart(value float64, label string, width int) string {
	if width == 0 {
		width = 200
	}
	height := width/2 + 30

	cx := float64(width) / 2
	cy := float64(width)/2 - 10
	radius := float64(width)/2 - 20

	value = clampF(value, -1, 1)
	if math.IsNaN(value) {
		value = 0
	}
	frac := (value + 1) / 2 // 0 at -1, 1 at +1

	angle := math.Pi - frac*math.Pi
	needleX := cx + radius*0.85*math.Cos(angle)
	needleY := cy - radius*0.85*math.Sin(angle)

	var color string
	switch {
	case value <= -0.3:
		color = "#ef5350"
	case value < 0.3:
		color = "#ffc107"
	default:
		color = "#4caf50"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, width, height, width, height))
	sb.WriteString(fmt.Sprintf(`<rect width="%d" height="%d" fill="white"/>`, width, height))

	sb.WriteString(fmt.Sprintf(`<path d="M%.1f,%.1f A%.1f,%.1f 0 0,1 %.1f,%.1f" fill="none" stroke="#e0e0e0" stroke-width="12" stroke-linecap="round"/>`,
		cx-radius, cy, radius, radius, cx+radius, cy))

	endX := cx + radius*math.Cos(angle)
	endY := cy - radius*math.Sin(angle)
	largeArc := 0
	if frac > 0.5 {
		largeArc = 1
	}
	sb.WriteString(fmt.Sprintf(`<path d="M%.1f,%.1f A%.1f,%.1f 0 %d,1 %.1f,%.1f" fill="none" stroke="%s" stroke-width="12" stroke-linecap="round"/>`,
		cx-radius, cy, radius, radius, largeArc, endX, endY, color))

	sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#333" stroke-width="2"/>`,
		cx, cy, needleX, needleY))
	sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="5" fill="#333"/>`, cx, cy))

	sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" font-size="22" font-weight="bold" fill="%s" text-anchor="middle">%+.2f</text>`,
		cx, cy+25, color, value))
	sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" font-size="11" fill="#666" text-anchor="middle">%s</text>`,
		cx, height-5, escapeXML(label)))

	sb.WriteString("</svg>")
	return sb.String()
}

// ════════════════════════════════════════════════════════════════════
// SVG Helpers
// ════════════════════════════════════════════════════════════════════

func svgHeader(cfg ChartConfig) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height)
}

func emptySVG(cfg ChartConfig, msg string) string {
	if cfg.Width == 0 {
		cfg.Width = 400
	}
	if cfg.Height == 0 {
		cfg.Height = 200
	}
	title := ""
	if cfg.Title != "" {
		title = fmt.Sprintf(`<text x="%d" y="20" text-anchor="middle" fill="#333" font-size="14" font-weight="bold">%s</text>`,
			cfg.Width/2, escapeXML(cfg.Title))
	}
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><rect width="%d" height="%d" fill="#f5f5f5"/>%s<text x="%d" y="%d" text-anchor="middle" fill="#999" font-size="14">%s</text></svg>`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height, title, cfg.Width/2, cfg.Height/2, escapeXML(msg))
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}
