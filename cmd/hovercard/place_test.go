package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/hovercard/internal/adapter/output"
	"github.com/jmylchreest/hovercard/internal/card"
	"github.com/jmylchreest/hovercard/internal/config"
	"github.com/jmylchreest/hovercard/internal/placement"
)

func TestParseRect(t *testing.T) {
	r, err := parseRect("700, 100, 60, 30")
	require.NoError(t, err)
	assert.Equal(t, placement.FromEdges(100, 700, 760, 130), r)

	for _, bad := range []string{"", "1,2,3", "a,b,c,d", "0,0,-1,5"} {
		_, err := parseRect(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseSize(t *testing.T) {
	s, err := parseSize("1280,800")
	require.NoError(t, err)
	assert.Equal(t, placement.Size{Width: 1280, Height: 800}, s)

	s, err = parseSize("320x400")
	require.NoError(t, err)
	assert.Equal(t, placement.Size{Width: 320, Height: 400}, s)

	_, err = parseSize("320")
	assert.Error(t, err)
	_, err = parseSize("-1,5")
	assert.Error(t, err)
}

func TestPlacementOptions(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Placement.Gap = 4

	opts, err := placementOptions(placeOptions{}, cfg)
	require.NoError(t, err)
	assert.Equal(t, 4, opts.Gap)
	assert.Equal(t, placement.DefaultMargin, opts.Margin)

	opts, err = placementOptions(placeOptions{
		gap: 0, setGap: true,
		priority: []string{"Bottom", "top"}, setPriority: true,
	}, cfg)
	require.NoError(t, err)
	assert.Equal(t, 0, opts.Gap)
	assert.Equal(t, []placement.Side{placement.SideBottom, placement.SideTop}, opts.Priority)

	_, err = placementOptions(placeOptions{margin: -1, setMargin: true}, cfg)
	assert.Error(t, err)

	_, err = placementOptions(placeOptions{priority: []string{"up"}, setPriority: true}, cfg)
	assert.ErrorIs(t, err, placement.ErrInvalidSide)
}

func TestBuildReport(t *testing.T) {
	report, err := buildReport(placeOptions{
		trigger:  "700,100,60,30",
		viewport: "1280,800",
		popover:  "320,400",
	}, config.DefaultConfig(), nil)
	require.NoError(t, err)

	assert.Equal(t, placement.Result{Top: 100, Left: 768, Placement: placement.SideRight}, report.Result)
	assert.Equal(t, 512, report.Space.Right)
	assert.Empty(t, report.Card)
}

func TestBuildReport_Card(t *testing.T) {
	cards := card.NewCatalog("", nil)
	require.NoError(t, cards.Load())
	essay, err := cards.Get("essay")
	require.NoError(t, err)

	report, err := buildReport(placeOptions{
		trigger:  "0,0,10,2",
		viewport: "120,40",
		card:     "essay",
		gap:      1, setGap: true,
		margin: 1, setMargin: true,
	}, config.DefaultConfig(), cards)
	require.NoError(t, err)

	assert.Equal(t, "essay", report.Card)
	assert.Equal(t, essay.Size(), report.Popover)
	assert.Equal(t, placement.SideRight, report.Result.Placement)
	assert.Equal(t, 11, report.Result.Left)

	_, err = buildReport(placeOptions{
		trigger:  "0,0,10,2",
		viewport: "120,40",
		card:     "sonnet",
	}, config.DefaultConfig(), cards)
	assert.True(t, errors.Is(err, card.ErrUnknownCard))
}

func TestBuildReport_Errors(t *testing.T) {
	tests := []struct {
		name string
		opts placeOptions
	}{
		{"bad trigger", placeOptions{trigger: "1,2", viewport: "10,10", popover: "1,1"}},
		{"bad viewport", placeOptions{trigger: "1,2,3,4", viewport: "10", popover: "1,1"}},
		{"bad popover", placeOptions{trigger: "1,2,3,4", viewport: "10,10", popover: "x"}},
		{"no popover", placeOptions{trigger: "1,2,3,4", viewport: "10,10"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildReport(tt.opts, config.DefaultConfig(), nil)
			assert.Error(t, err)
		})
	}
}

func TestBuildReport_RemoteRejectsOverrides(t *testing.T) {
	base := placeOptions{trigger: "1,2,3,4", viewport: "100,100", popover: "10,10", remote: true}

	tests := []struct {
		name string
		set  func(o *placeOptions)
	}{
		{"gap", func(o *placeOptions) { o.gap, o.setGap = 3, true }},
		{"margin", func(o *placeOptions) { o.margin, o.setMargin = 3, true }},
		{"priority", func(o *placeOptions) { o.priority, o.setPriority = []string{"top"}, true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := base
			tt.set(&opts)
			_, err := buildReport(opts, config.DefaultConfig(), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "cannot be used with --remote")
		})
	}

	_, err := buildReport(base, config.DefaultConfig(), nil)
	assert.NoError(t, err)
}

func TestBuildReport_WatchNeedsRemote(t *testing.T) {
	_, err := buildReport(placeOptions{
		trigger: "1,2,3,4", viewport: "100,100", popover: "10,10", watch: true,
	}, config.DefaultConfig(), nil)
	assert.EqualError(t, err, "--watch requires --remote")
}

type fakePlaceClient struct {
	options placement.Options
	result  placement.Result
	card    string
	err     error
	changes []placement.Options
}

func (f *fakePlaceClient) Options(context.Context) (placement.Options, error) {
	return f.options, f.err
}

func (f *fakePlaceClient) Place(context.Context, placement.Rect, placement.Viewport, placement.Size) (placement.Result, error) {
	return f.result, f.err
}

func (f *fakePlaceClient) PlaceCard(_ context.Context, _ placement.Rect, _ placement.Viewport, name string) (placement.Result, error) {
	f.card = name
	return f.result, f.err
}

func (f *fakePlaceClient) WatchOptions(_ context.Context, fn func(placement.Options)) error {
	for _, opts := range f.changes {
		f.options = opts
		f.result.Left += 10
		fn(opts)
	}
	return context.Canceled
}

func TestRemoteReport(t *testing.T) {
	report, err := buildReport(placeOptions{
		trigger: "0,0,10,10", viewport: "100,100", popover: "20,20", remote: true,
	}, config.DefaultConfig(), nil)
	require.NoError(t, err)

	client := &fakePlaceClient{
		options: placement.Options{Gap: 5, Margin: 1},
		result:  placement.Result{Top: 0, Left: 5, Placement: placement.SideRight},
	}
	got, err := remoteReport(context.Background(), client, report)
	require.NoError(t, err)

	assert.Equal(t, 5, got.Gap)
	assert.Equal(t, 1, got.Margin)
	assert.Equal(t, placement.DefaultPriority(), got.Priority)
	assert.Equal(t, client.result, got.Result)
	assert.Equal(t, placement.NewRect(5, 0, 20, 20), got.Bounds)
	assert.True(t, got.Overlaps)
	assert.Empty(t, client.card)

	report.Card = "essay"
	_, err = remoteReport(context.Background(), client, report)
	require.NoError(t, err)
	assert.Equal(t, "essay", client.card)

	client.err = errors.New("no reply")
	_, err = remoteReport(context.Background(), client, report)
	assert.Error(t, err)
}

func TestWatchRemote(t *testing.T) {
	report, err := buildReport(placeOptions{
		trigger: "0,0,10,10", viewport: "100,100", popover: "20,20", remote: true, watch: true,
	}, config.DefaultConfig(), nil)
	require.NoError(t, err)

	client := &fakePlaceClient{
		options: placement.Options{Gap: 1},
		result:  placement.Result{Left: 11, Placement: placement.SideRight},
		changes: []placement.Options{{Gap: 2}, {Gap: 3}},
	}
	formatter, err := createFormatter("plain", "{{.Gap}} {{.Result.Left}}", false)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, watchRemote(context.Background(), client, report, formatter, &buf))
	assert.Equal(t, "1 11\n2 21\n3 31\n", buf.String())
}

func TestWatchRemote_StopsOnError(t *testing.T) {
	report, err := buildReport(placeOptions{
		trigger: "0,0,10,10", viewport: "100,100", popover: "20,20", remote: true, watch: true,
	}, config.DefaultConfig(), nil)
	require.NoError(t, err)

	formatter, err := createFormatter("plain", "", false)
	require.NoError(t, err)

	client := &fakePlaceClient{err: errors.New("service gone")}
	err = watchRemote(context.Background(), client, report, formatter, &bytes.Buffer{})
	assert.EqualError(t, err, "service gone")
}

func TestFilterNames(t *testing.T) {
	names := []string{"essay", "speech", "memo"}

	got, err := filterNames(names, nil)
	require.NoError(t, err)
	assert.Equal(t, names, got)

	got, err = filterNames(names, []string{"memo", "essay"})
	require.NoError(t, err)
	assert.Equal(t, []string{"memo", "essay"}, got)

	_, err = filterNames(names, []string{"sonnet"})
	assert.ErrorIs(t, err, card.ErrUnknownCard)
}

func TestCreateFormatter(t *testing.T) {
	f, err := createFormatter("JSON", "", true)
	require.NoError(t, err)
	assert.IsType(t, &output.JSONFormatter{}, f)

	f, err = createFormatter("", "", true)
	require.NoError(t, err)
	assert.IsType(t, &output.PlainFormatter{}, f)

	_, err = createFormatter("dmenu", "", true)
	assert.Error(t, err)
}
