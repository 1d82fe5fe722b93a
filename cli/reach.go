package cli

import (
	"fmt"
	"io"

	"github.com/golang/geo/r3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"go.viam.com/fabrik/config"
	"go.viam.com/fabrik/logging"
	"go.viam.com/fabrik/rimage"
	"go.viam.com/fabrik/session"
	"go.viam.com/fabrik/spatialmath"
)

// SolveAction builds a chain from the config file and flags, solves it once and prints the result.
func SolveAction(c *cli.Context) (err error) {
	cfg, err := chainConfigFromFlags(c)
	if err != nil {
		return err
	}
	logger, err := newLogger(c, cfg.LogLevel)
	if err != nil {
		return err
	}

	sess := session.New(logger, cfg.ChainOptions()...)
	logger.Debugw("session started", "session", sess.ID().String(), "command", c.Command.Name)
	defer func() {
		err = multierr.Combine(err, sess.Close())
	}()

	target := cfg.Target.Vector()
	res := sess.Invoke(c.Context, session.Input{
		SegmentLength: cfg.SegmentLength,
		SegmentCount:  cfg.SegmentCount,
		Target:        target,
		Reset:         true,
	})
	if res.Err != nil {
		printMessages(c.App.ErrWriter, res.Messages)
		return res.Err
	}

	printLines(c.App.Writer, res.Lines)
	label := tipDistanceLabel(sess)
	fmt.Fprintln(c.App.Writer, label)
	if c.Bool(chainFlagDescribe) {
		fmt.Fprintln(c.App.Writer, sess.Describe())
	}
	return writePNG(c, res.Lines, target, label)
}

// ReplayAction drives one chain through every target of a config file, rebuilding it only
// before the first. A failed step is reported and the replay carries on with the next target.
func ReplayAction(c *cli.Context) (err error) {
	cfg, err := readConfig(c, c.Path(chainFlagConfig))
	if err != nil {
		return err
	}
	logger, err := newLogger(c, cfg.LogLevel)
	if err != nil {
		return err
	}

	sess := session.New(logger, cfg.ChainOptions()...)
	logger.Debugw("session started", "session", sess.ID().String(), "command", c.Command.Name)
	defer func() {
		err = multierr.Combine(err, sess.Close())
	}()

	var (
		failures   error
		lastLines  []spatialmath.Line
		lastTarget r3.Vector
		lastLabel  string
	)
	for i, target := range cfg.TargetSequence() {
		fmt.Fprintf(c.App.Writer, "step %d target %s\n", i, spatialmath.FormatVector(target))
		res := sess.Invoke(c.Context, session.Input{
			SegmentLength: cfg.SegmentLength,
			SegmentCount:  cfg.SegmentCount,
			Target:        target,
			Reset:         i == 0,
		})
		if res.Err != nil {
			printMessages(c.App.ErrWriter, res.Messages)
			failures = multierr.Append(failures, errors.Wrapf(res.Err, "step %d", i))
			continue
		}
		printLines(c.App.Writer, res.Lines)
		lastLabel = tipDistanceLabel(sess)
		fmt.Fprintln(c.App.Writer, lastLabel)
		lastLines, lastTarget = res.Lines, target
	}

	if lastLines != nil {
		failures = multierr.Append(failures, writePNG(c, lastLines, lastTarget, lastLabel))
	}
	return failures
}

// chainConfigFromFlags loads the config file, if any, and applies the flags that were set on top.
func chainConfigFromFlags(c *cli.Context) (*config.Chain, error) {
	cfg := &config.Chain{}
	if path := c.Path(chainFlagConfig); path != "" {
		var err error
		if cfg, err = readConfig(c, path); err != nil {
			return nil, err
		}
	}
	if c.IsSet(chainFlagSegmentLength) {
		cfg.SegmentLength = c.Float64(chainFlagSegmentLength)
	}
	if c.IsSet(chainFlagSegmentCount) {
		cfg.SegmentCount = c.Int(chainFlagSegmentCount)
	}
	if c.IsSet(chainFlagTarget) {
		coords := c.Float64Slice(chainFlagTarget)
		if len(coords) != 3 {
			return nil, errors.Errorf("--%s must have exactly 3 coordinates, got %d", chainFlagTarget, len(coords))
		}
		cfg.Target = config.NewPoint(r3.Vector{X: coords[0], Y: coords[1], Z: coords[2]})
	}
	if err := cfg.Validate(""); err != nil {
		return nil, err
	}
	return cfg, nil
}

// readConfig reads the chain config at path, or from the app's reader when path is "-".
func readConfig(c *cli.Context, path string) (*config.Chain, error) {
	if path == "-" {
		return config.FromReader("stdin", c.App.Reader)
	}
	return config.Read(path)
}

// newLogger writes to the app's error writer. --debug wins over --log-level, which wins over
// the config file.
func newLogger(c *cli.Context, configured string) (logging.Logger, error) {
	name := configured
	if flagged := c.String(generalFlagLogLevel); flagged != "" {
		name = flagged
	}
	level, err := logging.LevelFromString(name)
	if err != nil {
		return nil, err
	}
	if c.Bool(generalFlagDebug) {
		return logging.NewDebugLogger("reach", c.App.ErrWriter), nil
	}
	return logging.NewWriterLogger("reach", c.App.ErrWriter, level), nil
}

func printLines(w io.Writer, lines []spatialmath.Line) {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Start", "End", "Length"})
	for i, l := range lines {
		t.AppendRow(table.Row{
			i,
			spatialmath.FormatVector(l.Start),
			spatialmath.FormatVector(l.End),
			fmt.Sprintf("%.6g", l.Length()),
		})
	}
	fmt.Fprintln(w, t.Render())
}

func printMessages(w io.Writer, messages []string) {
	for _, m := range messages {
		fmt.Fprintln(w, m)
	}
}

func tipDistanceLabel(sess *session.Session) string {
	d, _ := sess.TipDistance()
	return fmt.Sprintf("tip distance %.6g", d)
}

func writePNG(c *cli.Context, lines []spatialmath.Line, target r3.Vector, label string) error {
	path := c.Path(drawFlagPNG)
	if path == "" {
		return nil
	}
	proj, err := rimage.ProjectionFromString(c.String(drawFlagProjection))
	if err != nil {
		return err
	}
	img, err := rimage.DrawChain(lines, target, c.Int(drawFlagWidth), c.Int(drawFlagHeight), proj, label)
	if err != nil {
		return err
	}
	if err := rimage.SavePNG(path, img); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "wrote %s\n", path)
	return nil
}
