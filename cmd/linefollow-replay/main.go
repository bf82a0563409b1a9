// Command linefollow-replay runs a directory of recorded frames through the
// pilot driver and reports what the vehicle would have done.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/google/uuid"

	"github.com/ironsheep/linefollow-vision/internal/config"
	"github.com/ironsheep/linefollow-vision/internal/frame"
	"github.com/ironsheep/linefollow-vision/internal/perception"
	"github.com/ironsheep/linefollow-vision/internal/pilot"
	"github.com/ironsheep/linefollow-vision/internal/report"
)

// Version information - set by ldflags during build
var Version = "dev"

func main() {
	var (
		configPath = flag.String("config", os.Getenv("LINEFOLLOW_CONFIG"), "YAML config file (defaults to $LINEFOLLOW_CONFIG)")
		framesDir  = flag.String("frames", "", "directory of frame images, replayed in name order")
		modeName   = flag.String("mode", "mask", "frame conversion: mask or edges")
		overlayDir = flag.String("overlay-dir", "", "write an annotated overlay per frame to this directory")
		plotPath   = flag.String("plot", "", "write a steering error chart (png, svg or pdf)")
		noSettle   = flag.Bool("no-settle", false, "skip settle delays")
		version    = flag.Bool("version", false, "print version information")
	)
	flag.Parse()

	if *version {
		fmt.Printf("linefollow-replay %s\n", Version)
		return
	}

	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	debug := os.Getenv("LINEFOLLOW_LOG_LEVEL") == "debug"

	if *framesDir == "" {
		fmt.Fprintln(os.Stderr, "linefollow-replay: -frames is required")
		flag.Usage()
		os.Exit(2)
	}

	runID := uuid.New()
	log.SetPrefix(fmt.Sprintf("[%s] ", runID.String()[:8]))
	log.Printf("Replay %s of %s", runID, *framesDir)

	if err := run(*configPath, *framesDir, *modeName, *overlayDir, *plotPath, *noSettle, debug); err != nil {
		log.Fatalf("Replay error: %v", err)
	}
}

func run(configPath, framesDir, modeName, overlayDir, plotPath string, noSettle, debug bool) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	mode, err := frame.ParseMode(modeName)
	if err != nil {
		return err
	}
	analyzers, err := cfg.NewAnalyzers()
	if err != nil {
		return err
	}

	cache := frame.NewCache(cfg.Preprocess)
	dir, err := pilot.NewDirSource(framesDir, cache, mode)
	if err != nil {
		return err
	}
	src := &tapSource{DirSource: dir}
	log.Printf("Found %d frames", dir.Len())

	recorder := &pilot.Recorder{}
	sinks := pilot.MultiSink{recorder}
	if debug {
		sinks = append(sinks, pilot.LogSink{Logger: log.Default()})
	}
	if overlayDir != "" {
		if err := os.MkdirAll(overlayDir, 0o755); err != nil {
			return fmt.Errorf("failed to create overlay directory: %w", err)
		}
		sinks = append(sinks, &overlaySink{dir: overlayDir, src: src, marker: *analyzers.Marker})
	}

	driver, err := pilot.NewDriver(analyzers.Follower, analyzers.Marker, analyzers.Adjuster, analyzers.Debouncer, sinks, cfg.DriverOptions())
	if err != nil {
		return err
	}
	driver.Debug = debug
	if noSettle {
		driver.Sleep = pilot.NoSleep
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stats, err := driver.Run(ctx, src)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Printf("Replayed %d frames, %d markers, %d adjust timeouts", stats.Frames, stats.Markers, stats.AdjustTimeouts)

	cmds := recorder.Commands()
	if err := report.Summarize(cmds).Write(os.Stdout); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	if plotPath != "" {
		err := report.PlotErrors(cmds, plotPath)
		switch {
		case errors.Is(err, report.ErrNoSteering):
			log.Printf("No steering decisions, skipping plot")
		case err != nil:
			return err
		default:
			log.Printf("Wrote steering plot to %s", plotPath)
		}
	}
	return nil
}

// tapSource remembers the last frame handed to the driver.
type tapSource struct {
	*pilot.DirSource
	last *frame.Frame
}

func (s *tapSource) Next(ctx context.Context) (*frame.Frame, error) {
	f, err := s.DirSource.Next(ctx)
	if err == nil {
		s.last = f
	}
	return f, err
}

// overlaySink draws each published command over the frame it came from.
type overlaySink struct {
	dir    string
	src    *tapSource
	marker perception.MarkerDetector
}

func (o *overlaySink) Publish(_ context.Context, cmd pilot.Command) error {
	f := o.src.last
	if f == nil {
		return nil
	}

	ov := perception.NewOverlay(f.Gray())
	if err := ov.DrawLayout(o.marker.Layout); err != nil {
		return err
	}
	for _, c := range cmd.Steering.Centroids {
		if c != nil {
			ov.MarkCentroid(c.Point())
		}
	}
	if i := int(cmd.Zone) - int(perception.ZoneRightmost); i >= 0 && i < 3 {
		zones, err := o.marker.Layout.AdjustZones(f.Width(), f.Height())
		if err != nil {
			return err
		}
		ov.MarkZone(zones[i])
	}

	marker := o.marker
	marker.Annotator = ov
	if _, err := marker.Observe(f); err != nil {
		return err
	}

	base := strings.TrimSuffix(filepath.Base(o.src.Current()), filepath.Ext(o.src.Current()))
	name := fmt.Sprintf("%05d_%s_%s.png", cmd.Seq, base, cmd.Kind)
	if err := imgio.Save(filepath.Join(o.dir, name), ov.Image(), imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("failed to save overlay: %w", err)
	}
	return nil
}
