// Package viz builds the figures of the heights report with gonum/plot.
package viz

import (
	"image/color"
	"io"
	"path/filepath"
	"strings"

	"github.com/YuminosukeSato/heightsml/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Default figure size.
const (
	DefaultWidth  = 5 * vg.Inch
	DefaultHeight = 4 * vg.Inch
)

// Series is one named curve. Labels, when set, annotate each point and
// must have the same length as X.
type Series struct {
	Name   string
	X      []float64
	Y      []float64
	Labels []string
}

func (s Series) validate() error {
	if len(s.X) == 0 {
		return errors.NewModelError("viz", "series "+s.Name+" is empty", errors.ErrEmptyData)
	}
	if len(s.X) != len(s.Y) {
		return errors.NewDimensionError("viz.Series", len(s.X), len(s.Y), 0)
	}
	if s.Labels != nil && len(s.Labels) != len(s.X) {
		return errors.NewDimensionError("viz.Series", len(s.X), len(s.Labels), 0)
	}
	if err := errors.CheckFinite("viz.Series", s.X); err != nil {
		return err
	}
	return errors.CheckFinite("viz.Series", s.Y)
}

func (s Series) xys() plotter.XYs {
	pts := make(plotter.XYs, len(s.X))
	for i := range s.X {
		pts[i].X = s.X[i]
		pts[i].Y = s.Y[i]
	}
	return pts
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	return p
}

// addSeries draws each series as a line with point markers and optional
// point labels, cycling through the plotutil palette.
func addSeries(p *plot.Plot, series []Series) error {
	if len(series) == 0 {
		return errors.NewValueError("viz", "no series to plot")
	}
	for i, s := range series {
		if err := s.validate(); err != nil {
			return err
		}
		pts := s.xys()
		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			return errors.Wrapf(err, "series %s", s.Name)
		}
		c := plotutil.Color(i)
		line.Color = c
		points.Color = c
		points.Shape = plotutil.Shape(i)
		p.Add(line, points)
		if s.Name != "" {
			p.Legend.Add(s.Name, line, points)
		}

		if s.Labels != nil {
			labels, err := plotter.NewLabels(plotter.XYLabels{XYs: pts, Labels: s.Labels})
			if err != nil {
				return errors.Wrapf(err, "labels of %s", s.Name)
			}
			for j := range labels.TextStyle {
				labels.TextStyle[j].Color = c
			}
			labels.Offset = vg.Point{X: vg.Points(3), Y: vg.Points(3)}
			p.Add(labels)
		}
	}
	return nil
}

func unitAxes(p *plot.Plot) {
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
}

// ROCPlot draws TPR against FPR with the chance diagonal.
func ROCPlot(series ...Series) (*plot.Plot, error) {
	p := newPlot("ROC curve", "1 - specificity (FPR)", "Sensitivity (TPR)")
	diag, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	diag.Color = color.Gray{Y: 160}
	diag.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(diag)

	if err := addSeries(p, series); err != nil {
		return nil, err
	}
	unitAxes(p)
	return p, nil
}

// PrecisionRecallPlot draws precision against recall.
func PrecisionRecallPlot(title string, series ...Series) (*plot.Plot, error) {
	if title == "" {
		title = "Precision-recall curve"
	}
	p := newPlot(title, "Recall", "Precision")
	if err := addSeries(p, series); err != nil {
		return nil, err
	}
	unitAxes(p)
	return p, nil
}

// MetricByCutoffPlot draws a metric as a function of the height cutoff.
func MetricByCutoffPlot(metric string, s Series) (*plot.Plot, error) {
	p := newPlot(metric+" by cutoff", "Cutoff (inches)", metric)
	if err := addSeries(p, []Series{s}); err != nil {
		return nil, err
	}
	return p, nil
}

// HeightHistogram overlays one histogram per group; only X of each series
// is used.
func HeightHistogram(bins int, groups ...Series) (*plot.Plot, error) {
	if bins < 1 {
		return nil, errors.NewValidationError("bins", "must be positive", bins)
	}
	if len(groups) == 0 {
		return nil, errors.NewValueError("HeightHistogram", "no groups to plot")
	}
	p := newPlot("Height distribution", "Height (inches)", "Count")
	for i, g := range groups {
		if len(g.X) == 0 {
			return nil, errors.NewModelError("HeightHistogram", "group "+g.Name+" is empty", errors.ErrEmptyData)
		}
		if err := errors.CheckFinite("HeightHistogram", g.X); err != nil {
			return nil, err
		}
		h, err := plotter.NewHist(plotter.Values(g.X), bins)
		if err != nil {
			return nil, errors.Wrapf(err, "histogram of %s", g.Name)
		}
		r, gr, b, _ := plotutil.Color(i).RGBA()
		h.FillColor = color.NRGBA{R: uint8(r >> 8), G: uint8(gr >> 8), B: uint8(b >> 8), A: 128}
		h.LineStyle.Width = vg.Length(0)
		p.Add(h)
		if g.Name != "" {
			p.Legend.Add(g.Name, h)
		}
	}
	return p, nil
}

// Render writes p to w in the given format ("png", "svg", "pdf", ...).
func Render(p *plot.Plot, w io.Writer, format string, width, height vg.Length) error {
	if p == nil {
		return errors.NewValueError("Render", "nil plot")
	}
	wt, err := p.WriterTo(width, height, strings.ToLower(format))
	if err != nil {
		return errors.Wrapf(err, "unsupported format %q", format)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return errors.Wrap(err, "write figure")
	}
	return nil
}

// Save writes p to path at the default size; the extension selects the
// format.
func Save(p *plot.Plot, path string) error {
	if p == nil {
		return errors.NewValueError("Save", "nil plot")
	}
	if filepath.Ext(path) == "" {
		return errors.NewValidationError("path", "needs a file extension", path)
	}
	if err := p.Save(DefaultWidth, DefaultHeight, path); err != nil {
		return errors.Wrapf(err, "save %s", path)
	}
	return nil
}
