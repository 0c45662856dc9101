package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/invader.radar/internal/fsutil"
	"github.com/banshee-data/invader.radar/internal/grid"
	"github.com/banshee-data/invader.radar/internal/scan"
)

// NewPlot builds a gonum plot of the cleaned map cells with detection
// corners marked. Rows are negated so the plot reads top-down.
func NewPlot(output grid.Grid, detections []scan.Detection) (*plot.Plot, error) {
	if output.IsZero() {
		return nil, fmt.Errorf("plot: %w", scan.ErrNoRadar)
	}
	rows, cols := output.Dimensions()

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Cleaned map (%d detections)", len(detections))
	p.X.Label.Text = "column"
	p.Y.Label.Text = "row"
	p.Add(plotter.NewGrid())

	cells := make(plotter.XYs, 0, output.Count())
	output.Each(func(row, col int, v uint8) {
		if v == 1 {
			cells = append(cells, plotter.XY{X: float64(col), Y: -float64(row)})
		}
	})
	if len(cells) > 0 {
		sc, err := plotter.NewScatter(cells)
		if err != nil {
			return nil, fmt.Errorf("plot cells: %w", err)
		}
		sc.GlyphStyle.Shape = draw.BoxGlyph{}
		sc.GlyphStyle.Color = color.RGBA{R: 53, G: 183, B: 121, A: 255}
		sc.GlyphStyle.Radius = vg.Points(2)
		p.Add(sc)
		p.Legend.Add("cleaned", sc)
	}

	corners := make(plotter.XYs, 0, len(detections))
	for _, d := range detections {
		corners = append(corners, plotter.XY{X: float64(d.Position.Col), Y: -float64(d.Position.Row)})
	}
	if len(corners) > 0 {
		sc, err := plotter.NewScatter(corners)
		if err != nil {
			return nil, fmt.Errorf("plot detections: %w", err)
		}
		sc.GlyphStyle.Shape = draw.CrossGlyph{}
		sc.GlyphStyle.Color = color.RGBA{R: 255, G: 82, B: 82, A: 255}
		sc.GlyphStyle.Radius = vg.Points(4)
		p.Add(sc)
		p.Legend.Add("detections", sc)
	}

	p.X.Min, p.X.Max = -1, float64(cols)
	p.Y.Min, p.Y.Max = -float64(rows), 1
	return p, nil
}

// SavePNG writes the plot from NewPlot to path as a PNG image.
func SavePNG(fsys fsutil.FileSystem, path string, output grid.Grid, detections []scan.Detection) error {
	p, err := NewPlot(output, detections)
	if err != nil {
		return err
	}

	_, cols := output.Dimensions()
	width := 10 * vg.Inch
	if cols < 40 {
		width = 6 * vg.Inch
	}
	wt, err := p.WriterTo(width, 6*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("save png: %w", err)
	}

	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("save png: %w", err)
	}
	if _, err := wt.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("save png %s: %w", path, err)
	}
	return f.Close()
}
