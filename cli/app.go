// Package cli contains the reach command line application.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

const (
	// Flags.
	generalFlagDebug    = "debug"
	generalFlagLogLevel = "log-level"

	chainFlagConfig        = "config"
	chainFlagSegmentLength = "segment-length"
	chainFlagSegmentCount  = "segment-count"
	chainFlagTarget        = "target"
	chainFlagDescribe      = "describe"

	drawFlagPNG        = "png"
	drawFlagProjection = "projection"
	drawFlagWidth      = "width"
	drawFlagHeight     = "height"
)

func drawFlags() []cli.Flag {
	return []cli.Flag{
		&cli.PathFlag{
			Name:  drawFlagPNG,
			Usage: "write the solved chain as a PNG to `FILE`",
		},
		&cli.StringFlag{
			Name:  drawFlagProjection,
			Value: "xy",
			Usage: "plane to draw the chain in: xy, xz or yz",
		},
		&cli.IntFlag{
			Name:  drawFlagWidth,
			Value: 640,
			Usage: "width of the PNG in pixels",
		},
		&cli.IntFlag{
			Name:  drawFlagHeight,
			Value: 480,
			Usage: "height of the PNG in pixels",
		},
	}
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:            "reach",
		Usage:           "solve a chain of rigid segments toward a target",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    generalFlagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.StringFlag{
				Name:  generalFlagLogLevel,
				Usage: "log level: debug, info, warn or error",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "solve",
				Usage:     "build a chain and solve it once toward a target",
				UsageText: "reach solve --segment-length <length> --segment-count <count> --target <x,y,z> [other options]",
				Flags: append([]cli.Flag{
					&cli.PathFlag{
						Name:  chainFlagConfig,
						Usage: "load the chain from `FILE` (- for stdin); other flags override its values",
					},
					&cli.Float64Flag{
						Name:  chainFlagSegmentLength,
						Usage: "length of every segment",
					},
					&cli.IntFlag{
						Name:  chainFlagSegmentCount,
						Usage: "number of segments",
					},
					&cli.Float64SliceFlag{
						Name:  chainFlagTarget,
						Usage: "target point as x,y,z",
					},
					&cli.BoolFlag{
						Name:  chainFlagDescribe,
						Usage: "print every segment with its parent after solving",
					},
				}, drawFlags()...),
				Action: SolveAction,
			},
			{
				Name:      "replay",
				Usage:     "drive one chain through the targets listed in a config file",
				UsageText: "reach replay --config <file> [other options]",
				Flags: append([]cli.Flag{
					&cli.PathFlag{
						Name:     chainFlagConfig,
						Required: true,
						Usage:    "load the chain and its targets from `FILE` (- for stdin)",
					},
				}, drawFlags()...),
				Action: ReplayAction,
			},
		},
	}
}
