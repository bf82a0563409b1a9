package report

import (
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ironsheep/linefollow-vision/internal/pilot"
)

// ErrNoSteering is returned by PlotErrors when no command carried a valid
// steering decision.
var ErrNoSteering = errors.New("no valid steering decisions to plot")

// PlotErrors renders the steering error per command as a line chart. The
// format follows the file extension (png, svg, pdf). Markers are drawn as
// red points on the zero line.
func PlotErrors(cmds []pilot.Command, path string) error {
	var errPts, markerPts plotter.XYs
	for _, c := range cmds {
		if c.Steering.Valid {
			errPts = append(errPts, plotter.XY{X: float64(c.Seq), Y: float64(c.Steering.Error)})
		}
		if c.MarkerConfirmed {
			markerPts = append(markerPts, plotter.XY{X: float64(c.Seq), Y: 0})
		}
	}
	if len(errPts) == 0 {
		return ErrNoSteering
	}

	p := plot.New()
	p.Title.Text = "Steering error per frame"
	p.X.Label.Text = "Command"
	p.Y.Label.Text = "Error (px)"
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(errPts)
	if err != nil {
		return fmt.Errorf("failed to create error line: %w", err)
	}
	line.Width = vg.Points(1)
	line.Color = color.RGBA{R: 41, G: 121, B: 255, A: 255}
	p.Add(line)
	p.Legend.Add("error", line)

	if len(markerPts) > 0 {
		scatter, err := plotter.NewScatter(markerPts)
		if err != nil {
			return fmt.Errorf("failed to create marker points: %w", err)
		}
		scatter.Color = color.RGBA{R: 255, G: 23, B: 68, A: 255}
		scatter.Radius = vg.Points(3)
		p.Add(scatter)
		p.Legend.Add("marker", scatter)
	}

	if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	return nil
}
