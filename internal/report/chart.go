package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/invader.radar/internal/grid"
	"github.com/banshee-data/invader.radar/internal/scan"
)

// cellPoints returns one point per set cell. Rows are plotted as negative y
// so the chart reads top-down like the rendered text map.
func cellPoints(g grid.Grid) []opts.ScatterData {
	pts := make([]opts.ScatterData, 0, g.Count())
	g.Each(func(row, col int, v uint8) {
		if v == 1 {
			pts = append(pts, opts.ScatterData{Value: []interface{}{col, -row}})
		}
	})
	return pts
}

func detectionPoints(detections []scan.Detection) []opts.ScatterData {
	pts := make([]opts.ScatterData, 0, len(detections))
	for _, d := range detections {
		pts = append(pts, opts.ScatterData{
			Name:  fmt.Sprintf("invader %d at %s p=%.2f", d.InvaderIndex, d.Position, d.Probability),
			Value: []interface{}{d.Position.Col, -d.Position.Row},
		})
	}
	return pts
}

// RenderHTML writes a self-contained go-echarts page that overlays the radar
// cells, the cleaned map cells and the detection corners.
func RenderHTML(w io.Writer, radar, output grid.Grid, detections []scan.Detection) error {
	if radar.IsZero() {
		return fmt.Errorf("render chart: %w", scan.ErrNoRadar)
	}
	rows, cols := radar.Dimensions()

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Radar Scan", Theme: "dark", Width: "1000px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{Title: "Radar vs Detected Invaders", Subtitle: fmt.Sprintf("%dx%d radar, %d detections", rows, cols, len(detections))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -1, Max: cols, Name: "column", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -rows, Max: 1, Name: "row", NameLocation: "middle", NameGap: 30}),
	)

	scatter.AddSeries("radar", cellPoints(radar), charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}), charts.WithItemStyleOpts(opts.ItemStyle{Color: "#9e9e9e"}))
	if !output.IsZero() {
		scatter.AddSeries("cleaned", cellPoints(output), charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}), charts.WithItemStyleOpts(opts.ItemStyle{Color: "#35b779"}))
	}
	scatter.AddSeries("detections", detectionPoints(detections), charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 12}), charts.WithItemStyleOpts(opts.ItemStyle{Color: "#ff5252"}))

	if err := scatter.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
