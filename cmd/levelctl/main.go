// Command levelctl checks level files and previews how they lay out.
//
//	levelctl validate [files...]     validate files, or every level in --config-dir
//	levelctl plan --level classic    print the planned slots and cars for a seed
//	levelctl analyze                 estimate how crowded each level is
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/wricardo/silhouette-match/game/config"
	"github.com/wricardo/silhouette-match/game/engine"
	"github.com/wricardo/silhouette-match/game/geom"
	"github.com/wricardo/silhouette-match/game/layout"
	"github.com/wricardo/silhouette-match/game/play"
	"github.com/wricardo/silhouette-match/logging"
)

func main() {
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "levelctl",
		Usage: "validate, plan and analyze silhouette match levels",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "directory containing level files",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.BoolFlag{Name: "debug", Usage: "log planner decisions"},
		},
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "validate level files",
				ArgsUsage: "[files...]",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return validate(out, cmd.String("config-dir"), cmd.Args().Slice())
				},
			},
			{
				Name:  "plan",
				Usage: "print the planned layout of a level",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "level", Value: config.DefaultLevelID, Usage: "level id"},
					&cli.Uint64Flag{Name: "seed", Value: 1, Usage: "round seed"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					log, err := newLogger(cmd.Bool("debug"))
					if err != nil {
						return err
					}
					m, err := config.NewManager(cmd.String("config-dir"), log)
					if err != nil {
						return err
					}
					cfg, err := m.LoadConfig(cmd.String("level"))
					if err != nil {
						return err
					}
					return plan(out, cfg, cmd.Uint64("seed"), log)
				},
			},
			{
				Name:  "analyze",
				Usage: "estimate the area each level needs against the area it has",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					m, err := config.NewManager(cmd.String("config-dir"), zap.NewNop())
					if err != nil {
						return err
					}
					return analyzeAll(out, m)
				},
			},
		},
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if !debug {
		return zap.NewNop(), nil
	}
	return logging.New(logging.Options{Level: "debug", Development: true})
}

// validate decodes and checks every file. Without files it checks every
// level file in dir.
func validate(out io.Writer, dir string, files []string) error {
	if len(files) == 0 {
		for _, ext := range config.Extensions {
			matches, err := filepath.Glob(filepath.Join(dir, "*"+ext))
			if err != nil {
				return err
			}
			files = append(files, matches...)
		}
		sort.Strings(files)
	}
	if len(files) == 0 {
		return fmt.Errorf("no level files found in %s", dir)
	}

	failed := 0
	for _, path := range files {
		cfg, err := decodeFile(path)
		if err != nil {
			failed++
			fmt.Fprintf(out, "FAIL %s\n", path)
			for _, e := range splitJoined(err) {
				fmt.Fprintf(out, "     %v\n", e)
			}
			continue
		}
		fmt.Fprintf(out, "ok   %s (%s, %d pairs)\n", path, cfg.Name, cfg.PairCount())
	}

	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d level files are invalid", failed, len(files)), 1)
	}
	return nil
}

func decodeFile(path string) (*engine.LevelConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return config.Decode(f, filepath.Ext(path))
}

// splitJoined unwraps errors.Join trees one level so each problem gets a line
func splitJoined(err error) []error {
	var multi interface{ Unwrap() []error }
	if errors.As(err, &multi) {
		var out []error
		for _, e := range multi.Unwrap() {
			out = append(out, splitJoined(e)...)
		}
		return out
	}
	return []error{err}
}

func plan(out io.Writer, cfg *engine.LevelConfig, seed uint64, log *zap.Logger) error {
	r, err := play.New(cfg, play.Options{Seed: seed, Logger: log})
	if err != nil {
		return err
	}
	st := r.State()
	rep := r.Layout()

	fmt.Fprintf(out, "%s (seed %d) %.0fx%.0f\n", cfg.Name, r.Seed(), cfg.PlayArea.Width, cfg.PlayArea.Height)
	fmt.Fprintln(out, "slots:")
	for _, s := range st.Slots {
		fmt.Fprintf(out, "  %-8s %-10s %s\n", s.ID, s.Tag, pose(s.Anchor))
	}
	fmt.Fprintln(out, "cars:")
	for _, s := range st.Shapes {
		fmt.Fprintf(out, "  %-8s %-10s %s\n", s.ID, s.Tag, pose(s.Pose))
	}
	fmt.Fprintf(out, "slots: %s\n", summary(rep.Slots))
	fmt.Fprintf(out, "cars:  %s\n", summary(rep.Cars))
	return nil
}

func pose(p engine.Pose) string {
	return fmt.Sprintf("(%7.1f,%7.1f) rot %6.1f scale %5.2f x %5.2f",
		p.Position.X, p.Position.Y, p.Rotation, p.Scale.X, p.Scale.Y)
}

func summary(s layout.Summary) string {
	return fmt.Sprintf("%d strict, %d relaxed, %d fallback, %d unplaced, %d spacing violations",
		s.Strict, s.Relaxed, s.Fallback, s.Unplaced, s.SpacingViolations)
}

// Capacity is a rough estimate of how crowded a level is
type Capacity struct {
	Items     int
	Available float64
	Needed    float64
}

// Ratio is needed over available area; above 1 the planner must relax
func (c Capacity) Ratio() float64 {
	if c.Available <= 0 {
		return math.Inf(1)
	}
	return c.Needed / c.Available
}

// Verdict names the crowding band of the ratio
func (c Capacity) Verdict() string {
	switch r := c.Ratio(); {
	case r < 0.5:
		return "roomy"
	case r < 0.9:
		return "tight"
	default:
		return "crowded, expect relaxed or fallback placements"
	}
}

// Analyze estimates capacity: every slot and car at its largest random
// scale, inflated and spaced, as a disc, against the padded play area less
// the forbidden zones.
func Analyze(cfg *engine.LevelConfig) Capacity {
	inner := cfg.PlayArea.Rect().Inset(cfg.Spawn.Padding)
	available := area(inner)
	for _, z := range cfg.ForbiddenZones {
		available -= overlap(z.BoundsIn(nil), inner)
	}

	c := Capacity{Available: math.Max(available, 0)}
	n := cfg.PairCount()
	for _, pair := range cfg.Pairs[:n] {
		for _, a := range []engine.AppearanceConfig{cfg.Spawn.Slots, cfg.Spawn.Cars} {
			scale := 1.0
			if !a.Disabled {
				scale = math.Min(math.Max(a.ScaleMax, 1), cfg.Spawn.ClampScaleMax)
			}
			it := layout.Item{Size: pair.Size(), Scale: geom.V(scale, scale)}
			r := it.Radius(cfg.Spawn.SpacingInflate) + cfg.Spawn.MinSpacing/2
			c.Needed += math.Pi * r * r
			c.Items++
		}
	}
	return c
}

func area(r geom.Rect) float64 { return r.Width() * r.Height() }

func overlap(a, b geom.Rect) float64 {
	w := math.Min(a.Max.X, b.Max.X) - math.Max(a.Min.X, b.Min.X)
	h := math.Min(a.Max.Y, b.Max.Y) - math.Max(a.Min.Y, b.Min.Y)
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

func analyzeAll(out io.Writer, m *config.Manager) error {
	levels, err := m.ListConfigs()
	if err != nil {
		return err
	}
	for _, info := range levels {
		cfg, err := m.LoadConfig(info.LevelID)
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", info.LevelID, err)
			continue
		}
		c := Analyze(cfg)
		fmt.Fprintf(out, "=== %s (%s) ===\n", info.LevelID, cfg.Name)
		fmt.Fprintf(out, "  items:     %d\n", c.Items)
		fmt.Fprintf(out, "  available: %.0f\n", c.Available)
		fmt.Fprintf(out, "  needed:    %.0f\n", c.Needed)
		fmt.Fprintf(out, "  ratio:     %.2f (%s)\n", c.Ratio(), c.Verdict())
	}
	return nil
}
