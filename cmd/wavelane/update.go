package main

import (
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/wavelane/internal/dsp"
	"github.com/llehouerou/wavelane/internal/errmsg"
	"github.com/llehouerou/wavelane/internal/playback"
)

const (
	seekStep        = 5 * time.Second
	volumeStep      = 0.05
	crossfadeStep   = 500 * time.Millisecond
	maxCrossfade    = 12 * time.Second
	rewindThreshold = 3 * time.Second
)

// Update routes messages to their handlers.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.FocusMsg:
		m.engine.SetVisible(true)
		return m, nil

	case tea.BlurMsg:
		m.engine.SetVisible(false)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case beginMsg:
		var cmd tea.Cmd
		if t := m.queue.Current(); t != nil {
			cmd = m.start(*t, 0)
		}
		return m, cmd

	case tickMsg:
		return m.handleTick()

	case playResultMsg:
		if msg.version != m.version {
			return m, nil
		}
		if msg.err == nil {
			return m, nil
		}
		cmd := m.handleStartFailure(msg.track, msg.attempt, msg.err)
		return m, cmd

	case retryMsg:
		if msg.version != m.version {
			return m, nil
		}
		cmd := m.start(msg.track, 1)
		return m, cmd

	case stateMsg:
		return m.handleStateChanged(msg)

	case trackMsg:
		return m.handleTrackChanged(msg)

	case engineErrorMsg:
		return m.handleEngineError(msg)

	case remoteMsg:
		var cmd tea.Cmd
		if msg.next {
			cmd = m.advance()
		} else {
			cmd = m.rewind()
		}
		return m, tea.Batch(cmd, m.watchEvents())

	case engineClosedMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		m.engine.Toggle()
	case "n":
		cmd = m.advance()
	case "p":
		cmd = m.rewind()
	case "left":
		m.seekBy(-seekStep)
	case "right":
		m.seekBy(seekStep)
	case "+", "=":
		m.engine.SetVolume(m.engine.Volume() + volumeStep)
		m.savePreferences()
	case "-":
		m.engine.SetVolume(m.engine.Volume() - volumeStep)
		m.savePreferences()
	case "z":
		m.engine.SetNormalization(!m.engine.Normalization())
		m.savePreferences()
	case "[":
		m.crossfade = max(m.crossfade-crossfadeStep, 0)
		m.savePreferences()
	case "]":
		m.crossfade = min(m.crossfade+crossfadeStep, maxCrossfade)
		m.savePreferences()
	case "0":
		m.engine.SetEQ(make([]float64, dsp.BandCount))
		m.savePreferences()
	case "e":
		p := dsp.NextPreset(dsp.MatchPreset(m.engine.EQ()))
		m.engine.SetEQ(p.Bands())
		m.savePreferences()
	case "r":
		m.queue.SetRepeat(!m.queue.Repeat())
	}
	return m, cmd
}

func (m *model) seekBy(d time.Duration) {
	if !m.engine.State().IsActive() {
		return
	}
	pos := m.engine.Position() + d
	if dur := m.engine.Duration(); dur > 0 {
		pos = min(pos, dur)
	}
	m.engine.Seek(max(pos, 0))
}

// handleTick schedules the next frame and starts the next track once the
// current one is within the crossfade of its end.
func (m model) handleTick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{tickCmd()}
	if m.nearEnd() && m.queue.HasNext() {
		cmds = append(cmds, m.advance())
		m.handoff = true
	}
	return m, tea.Batch(cmds...)
}

func (m model) nearEnd() bool {
	if m.crossfade == 0 || m.handoff || m.engine.State() != playback.StatePlaying {
		return false
	}
	dur := m.engine.Duration()
	return dur > 0 && dur-m.engine.Position() <= m.crossfade
}

// handleStateChanged advances when the active track plays out.
func (m model) handleStateChanged(msg stateMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if msg.Current == playback.StateIdle && msg.Previous == playback.StatePlaying && !m.handoff {
		cmd = m.advance()
	}
	return m, tea.Batch(cmd, m.watchEvents())
}

func (m model) handleTrackChanged(msg trackMsg) (tea.Model, tea.Cmd) {
	m.failures = 0
	m.errText = ""
	m.handoff = false
	if msg.Current != nil && m.announcer != nil {
		if err := m.announcer.Announce(*msg.Current); err != nil {
			m.logger.Debug(errmsg.Format(errmsg.OpNotify, err))
		}
	}
	return m, m.watchEvents()
}

func (m model) handleEngineError(msg engineErrorMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if msg.Track != nil {
		cmd = m.handleStartFailure(*msg.Track, 0, msg.Err)
	} else {
		m.errText = errmsg.Format(errmsg.OpPlaybackStart, msg.Err)
	}
	return m, tea.Batch(cmd, m.watchEvents())
}

// handleStartFailure retries a failed load once after retryDelay, then skips
// to the next track. It stops once every queued track has failed in a row.
func (m *model) handleStartFailure(t playback.Track, attempt int, err error) tea.Cmd {
	m.logger.Warn("start failed", "track", t.DisplayName(), "attempt", attempt, "err", err)
	var se *playback.StartError
	if attempt == 0 && errors.As(err, &se) {
		return retryCmd(t, m.version)
	}
	m.errText = errmsg.Format(errmsg.OpPlaybackStart, err)
	m.failures++
	if m.failures >= m.queue.Len() {
		m.logger.Error("giving up, no track in the queue could start")
		return nil
	}
	return m.advance()
}
