package playback

import (
	"errors"
	"testing"
	"testing/synctest"
	"time"
)

func TestNewSubscription_ChannelsReadable(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		sub := newSubscription()

		sub.sendState(StateChange{Previous: StateIdle, Current: StatePlaying})
		sub.sendTrack(TrackChange{Current: &Track{ID: "b"}})
		sub.sendPosition(PositionChange{Position: 30 * time.Second})
		sub.sendDuration(DurationChange{Duration: 3 * time.Minute})
		sub.sendError(ErrorEvent{Operation: "play", Err: errors.New("boom")})

		e := <-sub.StateChanged
		if e.Current != StatePlaying {
			t.Errorf("StateChanged.Current = %v, want Playing", e.Current)
		}

		tr := <-sub.TrackChanged
		if tr.Current == nil || tr.Current.ID != "b" {
			t.Errorf("TrackChanged.Current = %v, want track b", tr.Current)
		}

		pos := <-sub.PositionChanged
		if pos.Position != 30*time.Second {
			t.Errorf("PositionChanged.Position = %v, want 30s", pos.Position)
		}

		d := <-sub.DurationChanged
		if d.Duration != 3*time.Minute {
			t.Errorf("DurationChanged.Duration = %v, want 3m", d.Duration)
		}

		ev := <-sub.Error
		if ev.Operation != "play" {
			t.Errorf("Error.Operation = %q, want play", ev.Operation)
		}
	})
}

func TestSubscription_Close_SignalsDone(t *testing.T) {
	synctest.Test(t, func(_ *testing.T) {
		sub := newSubscription()
		sub.close()
		<-sub.Done
	})
}

func TestSubscription_NonBlocking_DropsWhenFull(t *testing.T) {
	sub := newSubscription()

	for range eventBufferSize + 5 {
		sub.sendState(StateChange{})
	}

	count := 0
	for {
		select {
		case <-sub.StateChanged:
			count++
		default:
			goto done
		}
	}
done:
	if count != eventBufferSize {
		t.Errorf("received %d events, want %d (buffer size)", count, eventBufferSize)
	}
}
