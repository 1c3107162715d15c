package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/llehouerou/wavelane/internal/catalog"
	"github.com/llehouerou/wavelane/internal/config"
	"github.com/llehouerou/wavelane/internal/dsp"
	"github.com/llehouerou/wavelane/internal/errmsg"
	"github.com/llehouerou/wavelane/internal/liveness"
	"github.com/llehouerou/wavelane/internal/logging"
	"github.com/llehouerou/wavelane/internal/mpris"
	"github.com/llehouerou/wavelane/internal/notify"
	"github.com/llehouerou/wavelane/internal/output"
	"github.com/llehouerou/wavelane/internal/playback"
	"github.com/llehouerou/wavelane/internal/playlist"
	"github.com/llehouerou/wavelane/internal/source"
	"github.com/llehouerou/wavelane/internal/state"
	"github.com/llehouerou/wavelane/internal/stderr"
)

func playCommand() *cli.Command {
	return &cli.Command{
		Name:      "play",
		Usage:     "Play files or URLs in order",
		ArgsUsage: "<file|url>...",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:    "crossfade",
				Aliases: []string{"x"},
				Usage:   "Crossfade length between tracks (0 cuts)",
			},
			&cli.DurationFlag{
				Name:  "silence",
				Usage: "Silence inserted before each following track",
			},
			&cli.BoolFlag{
				Name:  "no-normalize",
				Usage: "Disable loudness normalization",
			},
			&cli.StringFlag{
				Name:  "eq",
				Usage: "Equalizer gains in dB for the 60,230,910,3600,14000 Hz bands, comma separated",
			},
			&cli.StringFlag{
				Name:  "eq-preset",
				Usage: "Equalizer preset: " + strings.Join(dsp.PresetNames(), ", "),
			},
			&cli.BoolFlag{
				Name:    "repeat",
				Aliases: []string{"r"},
				Usage:   "Loop the queue",
			},
		},
		Action: runPlay,
	}
}

// overrides are the settings given on the command line.
type overrides struct {
	crossfade *time.Duration
	silence   *time.Duration
	normalize *bool
	eq        []float64
}

func readOverrides(cmd *cli.Command) (overrides, error) {
	var o overrides
	if cmd.IsSet("crossfade") {
		d := max(cmd.Duration("crossfade"), 0)
		o.crossfade = &d
	}
	if cmd.IsSet("silence") {
		d := max(cmd.Duration("silence"), 0)
		o.silence = &d
	}
	if cmd.Bool("no-normalize") {
		off := false
		o.normalize = &off
	}
	eqFlag, presetFlag := cmd.String("eq"), cmd.String("eq-preset")
	if eqFlag != "" && presetFlag != "" {
		return o, errors.New("--eq and --eq-preset cannot be combined")
	}
	if eqFlag != "" {
		eq, err := parseEQ(eqFlag)
		if err != nil {
			return o, err
		}
		o.eq = eq
	}
	if presetFlag != "" {
		p, ok := dsp.LookupPreset(presetFlag)
		if !ok {
			return o, fmt.Errorf("eq-preset: unknown preset %q (want one of %s)", presetFlag, strings.Join(dsp.PresetNames(), ", "))
		}
		o.eq = p.Bands()
	}
	return o, nil
}

// parseEQ reads up to five comma separated gains, clamped to the config bounds.
func parseEQ(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) > dsp.BandCount {
		return nil, fmt.Errorf("eq: expected at most %d bands, got %d", dsp.BandCount, len(parts))
	}
	gains := make([]float64, dsp.BandCount)
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("eq band %d: %w", i+1, err)
		}
		gains[i] = min(max(g, -config.MaxGainDB), config.MaxGainDB)
	}
	return gains, nil
}

// settings are the effective playback settings for a session.
type settings struct {
	crossfade time.Duration
	silence   time.Duration
	normalize bool
	volume    float64
	eq        []float64
	eqPreset  string // preset matching eq, empty for custom gains
}

// mergeSettings layers saved preferences over the config file, then command
// line flags over both.
func mergeSettings(cfg config.Engine, saved *state.Preferences, o overrides) settings {
	s := settings{
		crossfade: cfg.Crossfade,
		silence:   cfg.Silence,
		normalize: cfg.Normalize,
		volume:    cfg.Volume,
		eq:        append([]float64(nil), cfg.EQ...),
	}
	if saved != nil {
		s.crossfade = saved.Crossfade
		s.silence = saved.Silence
		s.normalize = saved.Normalize
		s.volume = saved.Volume
		if p, ok := dsp.LookupPreset(saved.EQPreset); ok {
			s.eq = p.Bands()
		} else if len(saved.EQ) > 0 {
			s.eq = append([]float64(nil), saved.EQ...)
		}
	}
	if o.crossfade != nil {
		s.crossfade = *o.crossfade
	}
	if o.silence != nil {
		s.silence = *o.silence
	}
	if o.normalize != nil {
		s.normalize = *o.normalize
	}
	if o.eq != nil {
		s.eq = o.eq
	}
	s.eqPreset = dsp.MatchPreset(s.eq)
	return s
}

func runPlay(ctx context.Context, cmd *cli.Command) error {
	refs := cmd.Args().Slice()
	if len(refs) == 0 {
		return errors.New("nothing to play: pass at least one file or URL")
	}
	o, err := readOverrides(cmd)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logFile, err := logging.OpenFile(cfg.LogFile)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logFile.Close()
	logger := logging.New(logFile, cfg.GetLogLevel())

	// Capture ALSA and faad2 chatter before any audio init.
	if err := stderr.Start(logging.Component(logger, "native")); err != nil {
		logger.Warn("stderr capture unavailable", "err", err)
	}
	defer stderr.Stop()

	var prefs state.Interface
	db, err := state.Open()
	if err != nil {
		logger.Warn(errmsg.Format(errmsg.OpPrefsLoad, err))
		prefs = state.NewMock()
	} else {
		prefs = db
		db.OnSaveError(func(err error) {
			logger.Warn(errmsg.Format(errmsg.OpPrefsSave, err))
		})
	}
	defer prefs.Close()

	saved, err := prefs.GetPreferences()
	if err != nil {
		logger.Warn(errmsg.Format(errmsg.OpPrefsLoad, err))
	}
	eng := cfg.GetEngine()
	s := mergeSettings(eng, saved, o)

	cat := catalog.New(
		catalog.WithLogger(logging.Component(logger, "catalog")),
		catalog.WithArtDir(filepath.Join(xdg.CacheHome, "wavelane", "art")),
	)
	tracks, err := cat.ResolveAll(ctx, refs)
	if err != nil {
		logger.Warn(errmsg.Format(errmsg.OpTrackResolve, err))
	}
	if len(tracks) == 0 {
		return fmt.Errorf("no playable tracks: %w", err)
	}
	queue := playlist.NewQueue(tracks...)
	queue.SetRepeat(cmd.Bool("repeat"))

	spk, err := output.NewSpeaker(output.DefaultRate, output.DefaultBuffer)
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpOutputOpen, err))
	}
	defer spk.Close()

	guardOpts := []liveness.Option{
		liveness.WithLogger(logging.Component(logger, "liveness")),
		liveness.WithPollInterval(eng.PollInterval),
		liveness.WithIdleSuspend(eng.IdleSuspend),
	}
	if eng.WakeLock {
		guardOpts = append(guardOpts, liveness.WithWakeLock(liveness.NewWakeLock("wavelane", "Playing audio")))
	}
	guard := liveness.New(spk, guardOpts...)
	guard.Start()
	defer guard.Close()

	remote := make(chan remoteMsg, 4)
	opts := []playback.Option{
		playback.WithLogger(logging.Component(logger, "engine")),
		playback.WithKeepAlive(guard),
		playback.WithVolume(s.volume),
	}
	if cfg.MPRISEnabled() {
		session, err := mpris.New("wavelane", logging.Component(logger, "mpris"))
		if err != nil {
			logger.Warn(errmsg.Format(errmsg.OpSessionExport, err))
		} else {
			defer session.Close()
			opts = append(opts, playback.WithSession(session))
		}
	}

	engine, err := playback.New(spk, source.NewLoader(source.WithLogger(logging.Component(logger, "source"))),
		playback.Callbacks{
			OnNext:     func() { sendRemote(remote, remoteMsg{next: true}) },
			OnPrevious: func() { sendRemote(remote, remoteMsg{}) },
		}, opts...)
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpInitialize, err))
	}
	defer engine.Close()
	engine.SetEQ(s.eq)
	engine.SetNormalization(s.normalize)

	var announcer announcer
	if n, err := notify.New(); err != nil {
		logger.Debug(errmsg.Format(errmsg.OpNotify, err))
	} else {
		np := notify.NewNowPlaying(n)
		defer np.Dismiss()
		announcer = np
	}

	m := newModel(ctx, modelDeps{
		engine:    engine,
		sub:       engine.Subscribe(),
		remote:    remote,
		queue:     queue,
		prefs:     prefs,
		announcer: announcer,
		logger:    logging.Component(logger, "ui"),
	}, s)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithReportFocus(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run ui: %w", err)
	}
	logger.Info("exiting", "played", queue.CurrentIndex()+1, "of", queue.Len())
	return nil
}

// sendRemote drops the request when the UI is behind.
func sendRemote(ch chan<- remoteMsg, msg remoteMsg) {
	select {
	case ch <- msg:
	default:
	}
}
