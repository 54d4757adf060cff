package surface

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/gridswarm/internal/fsutil"
	"github.com/banshee-data/gridswarm/internal/monitoring"
	"github.com/banshee-data/gridswarm/internal/trainer"
)

// Artifact file names written by WriteArtifacts.
const (
	HeatMapFile     = "surface.png"
	ConvergenceFile = "convergence.png"
	SurfaceHTMLFile = "surface.html"
)

var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// RenderHeatMapPNG draws s as a colour-mapped heat map.
func RenderHeatMapPNG(w io.Writer, s *Surface, title string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x0"
	p.Y.Label.Text = "x1"

	hm := plotter.NewHeatMap(s, palette.Heat(12, 1))
	if hm.Max == hm.Min {
		// A flat surface would divide by zero when scaling the palette.
		hm.Max = hm.Min + 1
	}
	p.Add(hm)

	return writePNG(w, p, 7*vg.Inch, 6*vg.Inch)
}

// RenderConvergencePNG plots batch MSE against cumulative samples.
func RenderConvergencePNG(w io.Writer, batches []trainer.BatchResult) error {
	if len(batches) == 0 {
		return errors.New("surface: no batches to plot")
	}

	pts := make(plotter.XYs, 0, len(batches))
	for _, b := range batches {
		pts = append(pts, plotter.XY{X: float64(b.Samples), Y: b.MSE})
	}

	p := plot.New()
	p.Title.Text = "Training convergence"
	p.X.Label.Text = "samples"
	p.Y.Label.Text = "batch MSE"
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("failed to build convergence line: %w", err)
	}
	line.Width = vg.Points(1)
	p.Add(line)

	return writePNG(w, p, 10*vg.Inch, 5*vg.Inch)
}

func writePNG(w io.Writer, p *plot.Plot, width, height vg.Length) error {
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("failed to create png canvas: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// RenderSurfaceHTML writes an interactive 3-D surface page for s.
func RenderSurfaceHTML(w io.Writer, s *Surface, title string) error {
	cols, rows := s.Dims()
	data := make([]opts.Chart3DData, 0, cols*rows)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			data = append(data, opts.Chart3DData{Value: []interface{}{s.X(c), s.Y(r), s.Z(c, r)}})
		}
	}
	lo, hi := s.Range()

	chart := charts.NewSurface3D()
	chart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Theme: "dark", Width: "900px", Height: "800px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("mesh=%dx%d z=[%.3f, %.3f]", cols, rows, lo, hi)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxis3DOpts(opts.XAxis3D{Name: "x0"}),
		charts.WithYAxis3DOpts(opts.YAxis3D{Name: "x1"}),
		charts.WithZAxis3DOpts(opts.ZAxis3D{Name: "prediction"}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(lo),
			Max:        float32(hi),
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	// Surface3D.AddSeries defaults the series type to scatter3D.
	chart.AddSeries("prediction", data, func(ss *charts.SingleSeries) {
		ss.Type = types.ChartSurface3D
	})

	if err := chart.Render(w); err != nil {
		return fmt.Errorf("failed to render surface chart: %w", err)
	}
	return nil
}

// Artifacts lists the paths written by WriteArtifacts.
type Artifacts struct {
	HeatMap     string
	Convergence string
	SurfaceHTML string
}

// WriteArtifacts renders all plots for one run into dir. The convergence
// plot is skipped when batches is empty.
func WriteArtifacts(fsys fsutil.FileSystem, dir, title string, s *Surface, batches []trainer.BatchResult) (Artifacts, error) {
	var a Artifacts
	var err error

	a.HeatMap, err = fsutil.WriteArtifact(fsys, dir, HeatMapFile, func(w io.Writer) error {
		return RenderHeatMapPNG(w, s, title)
	})
	if err != nil {
		return a, err
	}
	monitoring.Opsf("wrote heat map to %s", a.HeatMap)

	if len(batches) > 0 {
		a.Convergence, err = fsutil.WriteArtifact(fsys, dir, ConvergenceFile, func(w io.Writer) error {
			return RenderConvergencePNG(w, batches)
		})
		if err != nil {
			return a, err
		}
		monitoring.Opsf("wrote convergence plot to %s", a.Convergence)
	}

	a.SurfaceHTML, err = fsutil.WriteArtifact(fsys, dir, SurfaceHTMLFile, func(w io.Writer) error {
		return RenderSurfaceHTML(w, s, title)
	})
	if err != nil {
		return a, err
	}
	monitoring.Opsf("wrote surface chart to %s", a.SurfaceHTML)
	return a, nil
}
