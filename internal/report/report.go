// Package report summarizes the commands of a replay run.
package report

import (
	"fmt"
	"io"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/linefollow-vision/internal/perception"
	"github.com/ironsheep/linefollow-vision/internal/pilot"
)

// Summary is the aggregate view of a run.
type Summary struct {
	Frames int `json:"frames"`

	// Kinds counts commands by kind.
	Kinds map[pilot.CommandKind]int `json:"kinds"`

	// Turns counts steer commands by direction.
	Turns map[perception.Turn]int `json:"turns"`

	// Markers counts stops that started an adjustment.
	Markers int `json:"markers"`

	// AdjustLengths holds the number of adjust frames of each completed or
	// abandoned adjustment, in order.
	AdjustLengths []int `json:"adjust_lengths"`

	// Steering error and MeanY statistics over frames with a valid decision.
	ValidFrames int     `json:"valid_frames"`
	ErrorMean   float64 `json:"error_mean"`
	ErrorStdDev float64 `json:"error_stddev"`
	ErrorMin    int     `json:"error_min"`
	ErrorMax    int     `json:"error_max"`
	MeanYMean   float64 `json:"mean_y_mean"`
	MeanYStdDev float64 `json:"mean_y_stddev"`
}

// Summarize aggregates the commands of one run.
func Summarize(cmds []pilot.Command) Summary {
	s := Summary{
		Frames: len(cmds),
		Kinds:  make(map[pilot.CommandKind]int),
		Turns:  make(map[perception.Turn]int),
	}

	var (
		errs, ys  []float64
		adjusting bool
		adjustLen int
	)
	for _, c := range cmds {
		s.Kinds[c.Kind]++

		if c.Kind == pilot.CommandSteer {
			s.Turns[c.Turn]++
		}
		if c.Steering.Valid {
			errs = append(errs, float64(c.Steering.Error))
			ys = append(ys, float64(c.Steering.MeanY))
		}

		switch {
		case c.MarkerConfirmed:
			s.Markers++
			adjusting, adjustLen = true, 0
		case c.Mode == pilot.ModeAdjusting && adjusting:
			adjustLen++
			if c.Kind == pilot.CommandCentered || c.Kind == pilot.CommandStop {
				s.AdjustLengths = append(s.AdjustLengths, adjustLen)
				adjusting = false
			}
		}
	}

	s.ValidFrames = len(errs)
	if len(errs) > 0 {
		s.ErrorMean, s.ErrorStdDev = meanStdDev(errs)
		s.MeanYMean, s.MeanYStdDev = meanStdDev(ys)
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, e := range errs {
			lo, hi = math.Min(lo, e), math.Max(hi, e)
		}
		s.ErrorMin, s.ErrorMax = int(lo), int(hi)
	}
	return s
}

// meanStdDev returns the mean and the sample standard deviation, zero for a
// single value.
func meanStdDev(x []float64) (float64, float64) {
	if len(x) < 2 {
		return stat.Mean(x, nil), 0
	}
	return stat.MeanStdDev(x, nil)
}

// Write prints a human readable summary.
func (s Summary) Write(w io.Writer) error {
	_, err := fmt.Fprintf(w, "frames: %d (valid steering: %d)\n", s.Frames, s.ValidFrames)
	if err != nil {
		return err
	}

	for _, k := range pilot.AllCommandKinds() {
		if n := s.Kinds[k]; n > 0 {
			fmt.Fprintf(w, "  %-9s %d\n", k, n)
		}
	}

	turns := make([]perception.Turn, 0, len(s.Turns))
	for t := range s.Turns {
		turns = append(turns, t)
	}
	sort.Slice(turns, func(i, j int) bool { return turns[i] < turns[j] })
	for _, t := range turns {
		fmt.Fprintf(w, "  turn %-8s %d\n", t, s.Turns[t])
	}

	fmt.Fprintf(w, "markers: %d, adjust lengths: %v\n", s.Markers, s.AdjustLengths)
	if s.ValidFrames > 0 {
		fmt.Fprintf(w, "steering error: mean %.2f stddev %.2f range [%d, %d]\n",
			s.ErrorMean, s.ErrorStdDev, s.ErrorMin, s.ErrorMax)
		fmt.Fprintf(w, "line row: mean %.2f stddev %.2f\n", s.MeanYMean, s.MeanYStdDev)
	}
	return nil
}
