package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/llehouerou/wavelane/internal/config"
	"github.com/llehouerou/wavelane/internal/state"
)

func TestParseEQ(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []float64
		wantErr bool
	}{
		{"full", "1,2,3,4,5", []float64{1, 2, 3, 4, 5}, false},
		{"partial", "3, -2", []float64{3, -2, 0, 0, 0}, false},
		{"gaps", ",,6", []float64{0, 0, 6, 0, 0}, false},
		{"clamped", "20,-30", []float64{12, -12, 0, 0, 0}, false},
		{"too many", "1,2,3,4,5,6", nil, true},
		{"not a number", "1,loud", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseEQ(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMergeSettings_Layers(t *testing.T) {
	cfg := config.Engine{
		Crossfade: 2 * time.Second,
		Silence:   0,
		Normalize: true,
		Volume:    0.8,
		EQ:        []float64{0, 0, 0, 0, 0},
	}

	s := mergeSettings(cfg, nil, overrides{})
	assert.Equal(t, 2*time.Second, s.crossfade)
	assert.InDelta(t, 0.8, s.volume, 1e-9)
	assert.True(t, s.normalize)

	saved := &state.Preferences{
		Volume:    0.4,
		Normalize: false,
		Crossfade: 5 * time.Second,
		Silence:   time.Second,
		EQ:        []float64{1, 1, 1, 1, 1},
	}
	s = mergeSettings(cfg, saved, overrides{})
	assert.Equal(t, 5*time.Second, s.crossfade)
	assert.Equal(t, time.Second, s.silence)
	assert.InDelta(t, 0.4, s.volume, 1e-9)
	assert.False(t, s.normalize)
	assert.Equal(t, []float64{1, 1, 1, 1, 1}, s.eq)

	zero := time.Duration(0)
	on := true
	s = mergeSettings(cfg, saved, overrides{crossfade: &zero, normalize: &on, eq: []float64{-3, 0, 0, 0, 0}})
	assert.Equal(t, time.Duration(0), s.crossfade)
	assert.Equal(t, time.Second, s.silence)
	assert.True(t, s.normalize)
	assert.Equal(t, []float64{-3, 0, 0, 0, 0}, s.eq)
}

func TestMergeSettings_EQPreset(t *testing.T) {
	cfg := config.Engine{EQ: []float64{0, 0, 0, 0, 0}}

	s := mergeSettings(cfg, nil, overrides{})
	assert.Equal(t, "Flat", s.eqPreset)

	saved := &state.Preferences{EQ: []float64{1, 1, 1, 1, 1}, EQPreset: "Vocal"}
	s = mergeSettings(cfg, saved, overrides{})
	assert.Equal(t, []float64{-2, 0, 4, 2, 0}, s.eq)
	assert.Equal(t, "Vocal", s.eqPreset)

	saved.EQPreset = ""
	s = mergeSettings(cfg, saved, overrides{})
	assert.Equal(t, []float64{1, 1, 1, 1, 1}, s.eq)
	assert.Empty(t, s.eqPreset)

	s = mergeSettings(cfg, saved, overrides{eq: []float64{4, 2, -1, 3, 5}})
	assert.Equal(t, "Electronic", s.eqPreset)
}

func TestMergeSettings_DoesNotAliasConfigEQ(t *testing.T) {
	cfg := config.Engine{EQ: []float64{1, 2, 3, 4, 5}}

	s := mergeSettings(cfg, nil, overrides{})
	s.eq[0] = 9

	assert.InDelta(t, 1.0, cfg.EQ[0], 1e-9)
}

func TestReadOverrides(t *testing.T) {
	var got overrides
	cmd := playCommand()
	cmd.Action = func(_ context.Context, c *cli.Command) error {
		var err error
		got, err = readOverrides(c)
		return err
	}

	err := cmd.Run(context.Background(), []string{"play", "--crossfade", "3s", "--no-normalize", "--eq", "2,0,0,0,-2", "a.mp3"})
	require.NoError(t, err)

	require.NotNil(t, got.crossfade)
	assert.Equal(t, 3*time.Second, *got.crossfade)
	assert.Nil(t, got.silence)
	require.NotNil(t, got.normalize)
	assert.False(t, *got.normalize)
	assert.Equal(t, []float64{2, 0, 0, 0, -2}, got.eq)
}

func TestReadOverrides_BadEQ(t *testing.T) {
	cmd := playCommand()
	cmd.Action = func(_ context.Context, c *cli.Command) error {
		_, err := readOverrides(c)
		return err
	}

	err := cmd.Run(context.Background(), []string{"play", "--eq", "x", "a.mp3"})
	assert.Error(t, err)
}

func TestReadOverrides_EQPreset(t *testing.T) {
	run := func(args ...string) (overrides, error) {
		var got overrides
		cmd := playCommand()
		cmd.Action = func(_ context.Context, c *cli.Command) error {
			var err error
			got, err = readOverrides(c)
			return err
		}
		err := cmd.Run(context.Background(), append([]string{"play"}, args...))
		return got, err
	}

	got, err := run("--eq-preset", "treble-boost", "a.mp3")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 4, 6}, got.eq)

	_, err = run("--eq-preset", "gym", "a.mp3")
	assert.ErrorContains(t, err, "unknown preset")

	_, err = run("--eq-preset", "vocal", "--eq", "1", "a.mp3")
	assert.Error(t, err)
}
