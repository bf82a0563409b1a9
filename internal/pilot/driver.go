package pilot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/ironsheep/linefollow-vision/internal/frame"
	"github.com/ironsheep/linefollow-vision/internal/perception"
)

// Options holds the driver's timing and policy settings.
type Options struct {
	// SettleInterval is slept after a following frame that saw marker
	// matches.
	SettleInterval time.Duration

	// AdjustSettleInterval is slept after each adjust step that moved the
	// vehicle.
	AdjustSettleInterval time.Duration

	// NoDecision picks the command for frames without a steering decision.
	NoDecision NoDecisionPolicy

	// MaxAdjustFrames bounds one adjustment; zero means unbounded.
	MaxAdjustFrames int
}

// DefaultOptions returns the timings the vehicle was tuned with.
func DefaultOptions() Options {
	return Options{
		SettleInterval:       500 * time.Millisecond,
		AdjustSettleInterval: 100 * time.Millisecond,
		NoDecision:           HoldOnNoDecision,
	}
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// SleepContext is the default SleepFunc.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NoSleep skips settle delays, for replays and tests.
func NoSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

// Stats summarizes a Run.
type Stats struct {
	Frames   int                 `json:"frames"`
	Commands map[CommandKind]int `json:"commands"`

	// Markers counts confirmed marker detections.
	Markers int `json:"markers"`

	// AdjustTimeouts counts adjustments cut short by MaxAdjustFrames.
	AdjustTimeouts int `json:"adjust_timeouts"`
}

// Driver runs the follow/adjust state machine. It is not safe for
// concurrent use.
type Driver struct {
	Follower  *perception.LineFollower
	Marker    *perception.MarkerDetector
	Adjuster  *perception.PositionAdjuster
	Debouncer *perception.Debouncer
	Sink      Sink
	Options   Options

	// Sleep waits out settle delays. Nil uses SleepContext.
	Sleep SleepFunc

	// Debug logs every frame's analysis.
	Debug bool

	mode         Mode
	seq          int
	adjustFrames int
	stats        Stats
}

// NewDriver wires the analyzers to a sink.
func NewDriver(follower *perception.LineFollower, marker *perception.MarkerDetector, adjuster *perception.PositionAdjuster, debouncer *perception.Debouncer, sink Sink, opts Options) (*Driver, error) {
	switch {
	case follower == nil:
		return nil, errors.New("driver needs a line follower")
	case marker == nil:
		return nil, errors.New("driver needs a marker detector")
	case adjuster == nil:
		return nil, errors.New("driver needs a position adjuster")
	case debouncer == nil:
		return nil, errors.New("driver needs a debouncer")
	case sink == nil:
		return nil, errors.New("driver needs a command sink")
	}
	if opts.MaxAdjustFrames < 0 {
		return nil, fmt.Errorf("max adjust frames must be >= 0, got %d", opts.MaxAdjustFrames)
	}
	return &Driver{
		Follower:  follower,
		Marker:    marker,
		Adjuster:  adjuster,
		Debouncer: debouncer,
		Sink:      sink,
		Options:   opts,
	}, nil
}

// Mode returns the current state.
func (d *Driver) Mode() Mode { return d.mode }

// Stats returns the counters accumulated so far.
func (d *Driver) Stats() Stats {
	out := d.stats
	out.Commands = make(map[CommandKind]int, len(d.stats.Commands))
	for k, v := range d.stats.Commands {
		out.Commands[k] = v
	}
	return out
}

// Step processes one frame in the current mode and publishes the resulting
// command.
func (d *Driver) Step(ctx context.Context, f *frame.Frame) (Command, error) {
	var (
		cmd   Command
		delay time.Duration
		err   error
	)
	switch d.mode {
	case ModeFollowing:
		cmd, delay, err = d.follow(f)
	case ModeAdjusting:
		cmd, delay, err = d.adjust(ctx, f)
	default:
		err = fmt.Errorf("unknown driver mode %d", int(d.mode))
	}
	if err != nil {
		return Command{}, err
	}

	d.stats.Frames++
	d.seq++
	cmd.Seq = d.seq
	if d.stats.Commands == nil {
		d.stats.Commands = make(map[CommandKind]int)
	}
	d.stats.Commands[cmd.Kind]++

	if d.Debug {
		log.Printf("Frame %d: %s (steering valid=%t found=%d)", d.stats.Frames, cmd, cmd.Steering.Valid, cmd.Steering.Found)
	}
	if err := d.Sink.Publish(ctx, cmd); err != nil {
		return cmd, fmt.Errorf("failed to publish command: %w", err)
	}

	if delay > 0 {
		if err := d.sleep(ctx, delay); err != nil {
			return cmd, err
		}
	}
	return cmd, nil
}

// follow steers from the bands and feeds the marker debouncer. A confirmed
// marker takes priority over steering.
func (d *Driver) follow(f *frame.Frame) (Command, time.Duration, error) {
	steering, err := d.Follower.FollowLine(f)
	if err != nil {
		return Command{}, 0, fmt.Errorf("failed to follow line: %w", err)
	}
	obs, err := d.Marker.Observe(f)
	if err != nil {
		return Command{}, 0, fmt.Errorf("failed to observe marker: %w", err)
	}

	cmd := Command{
		Mode:     ModeFollowing,
		Turn:     steering.Turn,
		Error:    steering.Error,
		MeanY:    steering.MeanY,
		Matches:  obs.Matches,
		Steering: steering,
	}

	var delay time.Duration
	if obs.Matches > 0 {
		delay = d.Options.SettleInterval
	}

	if d.Debouncer.Update(obs.Matches) == perception.SignalDetected {
		cmd.Kind = CommandStop
		cmd.Turn = perception.Straight
		cmd.MarkerConfirmed = true
		d.stats.Markers++
		d.mode = ModeAdjusting
		d.adjustFrames = 0
		log.Printf("Marker confirmed (%d matches), adjusting position", obs.Matches)
		return cmd, delay, nil
	}

	switch {
	case steering.Valid:
		cmd.Kind = CommandSteer
	case d.Options.NoDecision == StopOnNoDecision:
		cmd.Kind = CommandStop
	default:
		cmd.Kind = CommandHold
	}
	return cmd, delay, nil
}

// adjust runs one adjustment step. Under BandFollow the strip matches feed
// the debouncer, which was cleared by the confirmation that started the
// adjustment.
func (d *Driver) adjust(ctx context.Context, f *frame.Frame) (Command, time.Duration, error) {
	res, err := d.Adjuster.Adjust(ctx, f)
	if err != nil {
		return Command{}, 0, fmt.Errorf("failed to adjust position: %w", err)
	}
	d.adjustFrames++

	cmd := Command{
		Mode:     ModeAdjusting,
		Zone:     res.Zone,
		Matches:  res.Marker.Matches,
		Steering: res.Steering,
	}
	if res.Steering.Valid {
		cmd.Turn = res.Steering.Turn
		cmd.Error = res.Steering.Error
		cmd.MeanY = res.Steering.MeanY
	}

	centered := res.Centered()
	if res.Strategy == perception.BandFollow {
		// The marker must be confirmed again across frames, the same way it
		// was while following.
		centered = d.Debouncer.Update(res.Marker.Matches) == perception.SignalDetected
	}

	switch {
	case centered:
		cmd.Kind = CommandCentered
		cmd.Zone = perception.ZoneCentered
		cmd.Turn = perception.Straight
		d.finishAdjust()
		log.Printf("Position centered after %d adjust frames", d.adjustFrames)
		return cmd, 0, nil

	case d.Options.MaxAdjustFrames > 0 && d.adjustFrames >= d.Options.MaxAdjustFrames:
		cmd.Kind = CommandStop
		cmd.Turn = perception.Straight
		d.stats.AdjustTimeouts++
		d.finishAdjust()
		log.Printf("Adjustment gave up after %d frames", d.adjustFrames)
		return cmd, 0, nil
	}

	cmd.Kind = CommandAdjust
	var delay time.Duration
	if res.Strategy == perception.ZonedScan || res.Marker.Matches > 0 {
		delay = d.Options.AdjustSettleInterval
	}
	return cmd, delay, nil
}

func (d *Driver) finishAdjust() {
	d.Debouncer.Reset()
	d.mode = ModeFollowing
}

func (d *Driver) sleep(ctx context.Context, delay time.Duration) error {
	if d.Sleep != nil {
		return d.Sleep(ctx, delay)
	}
	return SleepContext(ctx, delay)
}

// Run steps through src until it is exhausted or ctx is done. Reaching the
// end of the source is not an error.
func (d *Driver) Run(ctx context.Context, src Source) (Stats, error) {
	for {
		if err := ctx.Err(); err != nil {
			return d.Stats(), err
		}
		f, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return d.Stats(), nil
		}
		if err != nil {
			return d.Stats(), fmt.Errorf("failed to read frame: %w", err)
		}
		if _, err := d.Step(ctx, f); err != nil {
			return d.Stats(), err
		}
	}
}
