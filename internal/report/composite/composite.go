// Package composite assembles already-rendered panel PNGs into single-page
// PDF plates with bold letter labels, for figures spanning several results.
package composite

import (
	"context"
	"flag"
	"fmt"

	"github.com/okian/pirplot/internal/plate"
	"github.com/okian/pirplot/internal/report"
)

func layoutFlags(flags *flag.FlagSet, l *plate.Layout) {
	flags.Float64Var(&l.WidthIn, "width-in", l.WidthIn, "plate width in inches")
	flags.Float64Var(&l.HeightIn, "height-in", l.HeightIn, "plate height in inches")
	flags.Float64Var(&l.WSpace, "wspace", l.WSpace, "horizontal space between panels (fraction)")
	flags.Float64Var(&l.HSpace, "hspace", l.HSpace, "vertical space between panels (fraction)")
	flags.Float64Var(&l.Pad, "pad", l.Pad, "outer padding (fraction of canvas)")
	flags.Float64Var(&l.LabelSize, "label-size", l.LabelSize, "panel label font size in points")
	flags.Float64Var(&l.LabelOffset, "label-offset", l.LabelOffset, "label inset from the top-left (fraction)")
}

func run(ctx context.Context, name string, l plate.Layout, exact int, gridFlags bool,
	defaultOut string, args []string, env *report.Env) error {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	out := flags.String("out", defaultOut, "output PDF path")
	layoutFlags(flags, &l)
	if gridFlags {
		flags.IntVar(&l.Cols, "cols", l.Cols, "number of columns")
		flags.IntVar(&l.Rows, "rows", l.Rows, "number of rows")
	}
	if err := flags.Parse(args); err != nil {
		return err
	}
	images := flags.Args()

	var err error
	if exact > 0 {
		err = l.ValidateExact(len(images), exact)
	} else {
		err = l.Validate(len(images))
	}
	if err != nil {
		return err
	}

	if err := plate.Compose(l, images, *out); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	env.NotePlate(ctx, *out)
	return nil
}

// Run implements the composite verb: up to rows*cols panels on a wide plate.
func Run(ctx context.Context, args []string, env *report.Env) error {
	return run(ctx, "composite", plate.Wide(), 0, true, "composite_figure.pdf", args, env)
}

// RunColumn implements the composite-column verb: exactly three panels
// stacked at column width.
func RunColumn(ctx context.Context, args []string, env *report.Env) error {
	return run(ctx, "composite-column", plate.Column(), 3, false, "composite_1x3.pdf", args, env)
}

// RunSix implements the composite-6 verb: exactly six panels on a 2x3 plate.
func RunSix(ctx context.Context, args []string, env *report.Env) error {
	return run(ctx, "composite-6", plate.SixPanel(), 6, false, "composite_plate.pdf", args, env)
}
