package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/hovercard/internal/adapter/output"
	"github.com/jmylchreest/hovercard/internal/card"
	"github.com/jmylchreest/hovercard/internal/config"
	"github.com/jmylchreest/hovercard/internal/dbus"
	"github.com/jmylchreest/hovercard/internal/placement"
)

type placeOptions struct {
	trigger  string
	viewport string
	popover  string
	card     string

	gap      int
	margin   int
	priority []string

	setGap      bool
	setMargin   bool
	setPriority bool

	format   string
	template string
	noSpace  bool
	remote   bool
	watch    bool
}

// remoteTimeout bounds each call to the D-Bus service.
const remoteTimeout = 5 * time.Second

var placeOpts placeOptions

var placeCmd = &cobra.Command{
	Use:   "place",
	Short: "Compute where a popover goes",
	Long: `Compute the position of a popover next to a trigger rectangle.

Sides are tried in priority order (default right, left, top, bottom) and the
first one with enough room wins. When none fits the first side is used and
the result is reported as clamped. The final position always stays inside
the viewport margins.

With --remote the service applies its own gap, margin and priority, so
those flags cannot be combined with it.

Examples:
  # Place a 320x400 popover next to a 60x30 button
  hovercard place --trigger 700,100,60,30 --viewport 1280,800 --popover 320,400

  # Use the size of a bundled card and prefer the bottom side
  hovercard place --trigger 20,20,80,24 --viewport 1024,768 --card essay --priority bottom,top

  # Ask a running hovercardd instead of computing locally
  hovercard place --trigger 700,100,60,30 --viewport 1280,800 --card essay --remote

  # Print again whenever the service reloads its options
  hovercard place --trigger 700,100,60,30 --viewport 1280,800 --card essay --remote --watch

  # Print only the coordinates
  hovercard place --trigger 0,0,10,10 --viewport 100,100 --popover 20,20 \
    --template '{{.Result.Left}} {{.Result.Top}}'`,
	RunE: runPlace,
}

func init() {
	rootCmd.AddCommand(placeCmd)

	placeCmd.Flags().StringVar(&placeOpts.trigger, "trigger", "",
		"Trigger rectangle as LEFT,TOP,WIDTH,HEIGHT")
	placeCmd.Flags().StringVar(&placeOpts.viewport, "viewport", "",
		"Viewport size as WIDTH,HEIGHT")
	placeCmd.Flags().StringVar(&placeOpts.popover, "popover", "",
		"Popover size as WIDTH,HEIGHT")
	placeCmd.Flags().StringVar(&placeOpts.card, "card", "",
		"Use the size of a catalog card instead of --popover")

	placeCmd.Flags().IntVar(&placeOpts.gap, "gap", placement.DefaultGap,
		"Space between trigger and popover (default from config)")
	placeCmd.Flags().IntVar(&placeOpts.margin, "margin", placement.DefaultMargin,
		"Minimum distance from viewport edges (default from config)")
	placeCmd.Flags().StringSliceVar(&placeOpts.priority, "priority", nil,
		"Sides to try in order, e.g. right,left,top,bottom (default from config)")

	placeCmd.Flags().StringVarP(&placeOpts.format, "format", "f", "",
		"Output format (plain, json, yaml; default from config)")
	placeCmd.Flags().StringVar(&placeOpts.template, "template", "",
		"Custom Go template for plain output")
	placeCmd.Flags().BoolVar(&placeOpts.noSpace, "no-space", false,
		"Omit available space from plain output")
	placeCmd.Flags().BoolVar(&placeOpts.remote, "remote", false,
		"Ask the hovercardd D-Bus service")
	placeCmd.Flags().BoolVar(&placeOpts.watch, "watch", false,
		"With --remote, print again each time the service options change")

	_ = placeCmd.MarkFlagRequired("trigger")
	_ = placeCmd.MarkFlagRequired("viewport")
	placeCmd.MarkFlagsMutuallyExclusive("popover", "card")
	placeCmd.MarkFlagsOneRequired("popover", "card")
}

func runPlace(cmd *cobra.Command, args []string) error {
	placeOpts.setGap = cmd.Flags().Changed("gap")
	placeOpts.setMargin = cmd.Flags().Changed("margin")
	placeOpts.setPriority = cmd.Flags().Changed("priority")

	report, err := buildReport(placeOpts, cfg, catalog)
	if err != nil {
		return err
	}

	formatter, err := createFormatter(placeOpts.format, placeOpts.template, !placeOpts.noSpace)
	if err != nil {
		return err
	}

	if !placeOpts.remote {
		return formatter.Format(cmd.OutOrStdout(), []output.Report{report})
	}

	client, err := dbus.NewClient(cfg.DBus.BusName, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	if placeOpts.watch {
		return watchRemote(cmd.Context(), client, report, formatter, cmd.OutOrStdout())
	}

	if report, err = remoteReport(cmd.Context(), client, report); err != nil {
		return err
	}
	return formatter.Format(cmd.OutOrStdout(), []output.Report{report})
}

// buildReport parses the command line and computes the placement locally.
func buildReport(opts placeOptions, cfg *config.Config, cards *card.Catalog) (output.Report, error) {
	if opts.remote && (opts.setGap || opts.setMargin || opts.setPriority) {
		return output.Report{}, errors.New("--gap, --margin and --priority cannot be used with --remote")
	}
	if opts.watch && !opts.remote {
		return output.Report{}, errors.New("--watch requires --remote")
	}

	trigger, err := parseRect(opts.trigger)
	if err != nil {
		return output.Report{}, fmt.Errorf("invalid --trigger: %w", err)
	}
	viewport, err := parseSize(opts.viewport)
	if err != nil {
		return output.Report{}, fmt.Errorf("invalid --viewport: %w", err)
	}

	popts, err := placementOptions(opts, cfg)
	if err != nil {
		return output.Report{}, err
	}

	var popover placement.Size
	switch {
	case opts.card != "":
		if cards == nil {
			return output.Report{}, fmt.Errorf("%w: %s", card.ErrUnknownCard, opts.card)
		}
		c, err := cards.Get(opts.card)
		if err != nil {
			return output.Report{}, err
		}
		popover = c.Size()
	case opts.popover != "":
		popover, err = parseSize(opts.popover)
		if err != nil {
			return output.Report{}, fmt.Errorf("invalid --popover: %w", err)
		}
	default:
		return output.Report{}, errors.New("one of --popover or --card is required")
	}

	report := output.NewReport(trigger, viewport, popover, popts)
	report.Card = opts.card
	return report, nil
}

// placementOptions layers command line overrides over the config section.
func placementOptions(opts placeOptions, cfg *config.Config) (placement.Options, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	popts, err := cfg.Placement.Options()
	if err != nil {
		return placement.Options{}, fmt.Errorf("invalid placement config: %w", err)
	}

	if opts.setGap {
		if opts.gap < 0 {
			return placement.Options{}, fmt.Errorf("--gap must not be negative, got %d", opts.gap)
		}
		popts.Gap = opts.gap
	}
	if opts.setMargin {
		if opts.margin < 0 {
			return placement.Options{}, fmt.Errorf("--margin must not be negative, got %d", opts.margin)
		}
		popts.Margin = opts.margin
	}
	if opts.setPriority {
		priority, err := placement.ParsePriority(opts.priority)
		if err != nil {
			return placement.Options{}, fmt.Errorf("invalid --priority: %w", err)
		}
		popts.Priority = priority
	}

	return popts, nil
}

// placeClient is the part of the D-Bus client used for remote placement.
type placeClient interface {
	Options(ctx context.Context) (placement.Options, error)
	Place(ctx context.Context, trigger placement.Rect, viewport placement.Viewport, popover placement.Size) (placement.Result, error)
	PlaceCard(ctx context.Context, trigger placement.Rect, viewport placement.Viewport, name string) (placement.Result, error)
	WatchOptions(ctx context.Context, fn func(placement.Options)) error
}

// remoteReport replaces the locally computed result with the service's answer.
// The service applies its own options, so they replace the local ones too.
func remoteReport(ctx context.Context, client placeClient, report output.Report) (output.Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, remoteTimeout)
	defer cancel()

	popts, err := client.Options(ctx)
	if err != nil {
		return report, err
	}

	var res placement.Result
	if report.Card != "" {
		res, err = client.PlaceCard(ctx, report.Trigger, report.Viewport, report.Card)
	} else {
		res, err = client.Place(ctx, report.Trigger, report.Viewport, report.Popover)
	}
	if err != nil {
		return report, err
	}

	logger.Debug("placement computed by service", "side", res.Placement.String())

	report.Gap = popts.Gap
	report.Margin = popts.Margin
	report.Priority = popts.Priority
	if len(report.Priority) == 0 {
		report.Priority = placement.DefaultPriority()
	}
	report.Space = placement.Available(report.Trigger, report.Viewport, popts.Gap)
	report.SetResult(res)
	return report, nil
}

// watchRemote prints the remote placement once, then again after every
// OptionsChanged signal, until interrupted.
func watchRemote(ctx context.Context, client placeClient, report output.Report, formatter output.Formatter, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	emit := func() error {
		current, err := remoteReport(ctx, client, report)
		if err != nil {
			return err
		}
		return formatter.Format(w, []output.Report{current})
	}
	if err := emit(); err != nil {
		return err
	}

	var failed error
	err := client.WatchOptions(ctx, func(placement.Options) {
		logger.Debug("service options changed")
		if err := emit(); err != nil {
			failed = err
			stop()
		}
	})
	if failed != nil {
		return failed
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// createFormatter resolves the output format from flags and config.
func createFormatter(name, tmpl string, showSpace bool) (output.Formatter, error) {
	if name == "" && cfg != nil {
		name = cfg.Output.Format
	}
	if name == "" {
		name = config.DefaultOutputFormat
	}

	format, err := output.ParseFormat(strings.ToLower(name))
	if err != nil {
		return nil, err
	}

	opts := output.DefaultFormatterOptions()
	opts.Template = tmpl
	opts.ShowSpace = showSpace
	if opts.Template == "" && cfg != nil {
		opts.Template = cfg.Output.PlainTemplate
	}

	return output.NewFormatter(format, opts), nil
}

// parseRect parses LEFT,TOP,WIDTH,HEIGHT.
func parseRect(s string) (placement.Rect, error) {
	v, err := parseInts(s, 4)
	if err != nil {
		return placement.Rect{}, err
	}
	if v[2] < 0 || v[3] < 0 {
		return placement.Rect{}, fmt.Errorf("width and height must not be negative")
	}
	return placement.NewRect(v[0], v[1], v[2], v[3]), nil
}

// parseSize parses WIDTH,HEIGHT. An "x" separator is accepted too.
func parseSize(s string) (placement.Size, error) {
	v, err := parseInts(strings.ReplaceAll(strings.ToLower(s), "x", ","), 2)
	if err != nil {
		return placement.Size{}, err
	}
	if v[0] < 0 || v[1] < 0 {
		return placement.Size{}, fmt.Errorf("width and height must not be negative")
	}
	return placement.Size{Width: v[0], Height: v[1]}, nil
}

func parseInts(s string, n int) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma separated integers, got %q", n, s)
	}

	out := make([]int, n)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", p)
		}
		out[i] = v
	}
	return out, nil
}
