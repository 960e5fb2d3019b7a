package hotkey

import (
	"context"
	"testing"
	"time"

	"kbd-layout-overlay/src/keys"
)

var overlayCombo = keys.MustParseCombination("ControlLeft+Alt+ShiftLeft+Slash")

type step struct {
	down bool
	key  keys.Key
}

func press(k keys.Key) step   { return step{down: true, key: k} }
func release(k keys.Key) step { return step{down: false, key: k} }

func run(tr *Tracker, steps []step) []Event {
	var out []Event
	for _, s := range steps {
		var ev Event
		var ok bool
		if s.down {
			ev, ok = tr.Press(s.key)
		} else {
			ev, ok = tr.Release(s.key)
		}
		if ok {
			out = append(out, ev)
		}
	}
	return out
}

func pressAll() []step {
	return []step{press(keys.ControlLeft), press(keys.Alt), press(keys.ShiftLeft), press(keys.Slash)}
}

func equalEvents(a, b []Event) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestTrackerMomentary(t *testing.T) {
	tests := []struct {
		name     string
		steps    []step
		expected []Event
	}{
		{
			name:     "full press shows once",
			steps:    pressAll(),
			expected: []Event{Show},
		},
		{
			name:     "auto-repeat does not show again",
			steps:    append(pressAll(), press(keys.Slash), press(keys.Slash), press(keys.ControlLeft)),
			expected: []Event{Show},
		},
		{
			name:     "releasing the non-modifier hides",
			steps:    append(pressAll(), release(keys.Slash)),
			expected: []Event{Show, Hide},
		},
		{
			name:     "releasing a modifier hides",
			steps:    append(pressAll(), release(keys.Alt)),
			expected: []Event{Show, Hide},
		},
		{
			name:     "releasing the rest does not hide twice",
			steps:    append(pressAll(), release(keys.ShiftLeft), release(keys.ControlLeft), release(keys.Alt), release(keys.Slash)),
			expected: []Event{Show, Hide},
		},
		{
			name:     "unrelated key release keeps it shown",
			steps:    append(pressAll(), press(keys.KeyQ), release(keys.KeyQ)),
			expected: []Event{Show},
		},
		{
			name:     "partial press emits nothing",
			steps:    []step{press(keys.ControlLeft), press(keys.Alt), press(keys.Slash), release(keys.Slash)},
			expected: nil,
		},
		{
			name:     "re-press after collapse shows again",
			steps:    append(append(pressAll(), release(keys.Slash)), press(keys.Slash)),
			expected: []Event{Show, Hide, Show},
		},
		{
			name:     "press order does not matter",
			steps:    []step{press(keys.Slash), press(keys.ShiftLeft), press(keys.Alt), press(keys.ControlLeft)},
			expected: []Event{Show},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := run(NewTracker(overlayCombo, false), tt.steps)
			if !equalEvents(got, tt.expected) {
				t.Errorf("events = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestTrackerPersist(t *testing.T) {
	tests := []struct {
		name     string
		steps    []step
		expected []Event
	}{
		{
			name:     "full press toggles once",
			steps:    pressAll(),
			expected: []Event{Toggle},
		},
		{
			name:     "holding emits nothing more",
			steps:    append(pressAll(), press(keys.Slash), press(keys.Alt), press(keys.Slash)),
			expected: []Event{Toggle},
		},
		{
			name:     "release emits nothing",
			steps:    append(pressAll(), release(keys.Slash), release(keys.Alt)),
			expected: []Event{Toggle},
		},
		{
			name:     "release and re-press toggles again",
			steps:    append(append(pressAll(), release(keys.Slash)), press(keys.Slash)),
			expected: []Event{Toggle, Toggle},
		},
		{
			name:     "unrelated release does not re-arm",
			steps:    append(append(pressAll(), press(keys.KeyQ), release(keys.KeyQ)), press(keys.Slash)),
			expected: []Event{Toggle},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := run(NewTracker(overlayCombo, true), tt.steps)
			if !equalEvents(got, tt.expected) {
				t.Errorf("events = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestTrackerReleaseOrder(t *testing.T) {
	required := overlayCombo.Keys()
	for _, first := range required {
		t.Run(first.String(), func(t *testing.T) {
			tr := NewTracker(overlayCombo, false)
			steps := pressAll()
			steps = append(steps, release(first))
			for _, k := range required {
				if k != first {
					steps = append(steps, release(k))
				}
			}
			got := run(tr, steps)
			if !equalEvents(got, []Event{Show, Hide}) {
				t.Errorf("events = %v, expected [Show Hide]", got)
			}
			if tr.Held() != 0 {
				t.Errorf("Held() = %d after releasing everything", tr.Held())
			}
		})
	}
}

func TestSenderKeepsNewestWhenFull(t *testing.T) {
	sender, ch := NewChannel(2)
	if !sender.Send(Show) || !sender.Send(Hide) {
		t.Fatal("sends within capacity should not drop")
	}
	if sender.Send(Show) {
		t.Fatal("third send should report a dropped event")
	}
	if sender.Send(Hide) {
		t.Fatal("fourth send should report a dropped event")
	}
	// The final Hide must survive so that a visible overlay is always hidden.
	for _, want := range []Event{Show, Hide} {
		if got := <-ch; got != want {
			t.Errorf("received %v, expected %v", got, want)
		}
	}
	select {
	case got := <-ch:
		t.Errorf("unexpected extra event %v", got)
	default:
	}
}

type fakeHook struct {
	ch      chan RawEvent
	stopped chan struct{}
}

func newFakeHook() *fakeHook {
	return &fakeHook{ch: make(chan RawEvent, 16), stopped: make(chan struct{})}
}

func (f *fakeHook) Start() (<-chan RawEvent, error) { return f.ch, nil }
func (f *fakeHook) Stop()                           { close(f.stopped) }

func TestListenForwardsCombinationEvents(t *testing.T) {
	codes := map[uint16]keys.Key{1: keys.ControlLeft, 2: keys.Alt, 3: keys.ShiftLeft, 4: keys.Slash}
	lookup := func(rc uint16) (keys.Key, bool) {
		k, ok := codes[rc]
		return k, ok
	}

	hook := newFakeHook()
	sender, events := NewChannel(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := Listen(ctx, hook, Options{Combo: overlayCombo, Lookup: lookup}, sender); err != nil {
		t.Fatalf("Listen failed: %v", err)
	}

	// 99 is not in the vocabulary and must be ignored.
	for _, rc := range []uint16{99, 1, 2, 3, 4} {
		hook.ch <- RawEvent{Down: true, Keycode: rc}
	}
	hook.ch <- RawEvent{Down: false, Keycode: 4}

	for _, want := range []Event{Show, Hide} {
		select {
		case got := <-events:
			if got != want {
				t.Fatalf("received %v, expected %v", got, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %v", want)
		}
	}

	close(hook.ch)
	select {
	case <-hook.stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("hook was not stopped after its channel closed")
	}
}

func TestListenRejectsEmptyCombination(t *testing.T) {
	sender, _ := NewChannel(1)
	if err := Listen(context.Background(), newFakeHook(), Options{}, sender); err == nil {
		t.Fatal("expected error for empty combination")
	}
}
