package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dgnsrekt/avatarsync/speech"
	"github.com/dgnsrekt/avatarsync/speech/audio"
	"github.com/dgnsrekt/avatarsync/speech/engines/mock"
)

func testModel(t *testing.T) Model {
	t.Helper()
	synth, err := mock.New(speech.DefaultMockConfig())
	if err != nil {
		t.Fatalf("mock.New failed: %v", err)
	}
	q, err := speech.NewQueue(speech.DefaultConfig(), synth, audio.NewMockClock(), nil)
	if err != nil {
		t.Fatalf("NewQueue failed: %v", err)
	}
	t.Cleanup(q.Close)
	return NewModel(q)
}

func TestModelActivityEvents(t *testing.T) {
	m := testModel(t)

	next, _ := m.Update(msgStart)
	m = next.(Model)
	if !m.playing {
		t.Error("not playing after start event")
	}

	next, _ = m.Update(msgActive)
	m = next.(Model)
	if !m.speaking {
		t.Error("not speaking after active event")
	}
	if !strings.Contains(m.View(), "SPEAKING") {
		t.Error("view missing SPEAKING badge while active")
	}

	next, _ = m.Update(msgSilent)
	m = next.(Model)
	if m.speaking {
		t.Error("still speaking after silent event")
	}

	next, _ = m.Update(msgEnd)
	m = next.(Model)
	if m.playing || m.speaking {
		t.Error("still playing after end event")
	}
	if m.played != 1 {
		t.Errorf("played = %d, want 1", m.played)
	}
	if !strings.Contains(m.View(), "IDLE") {
		t.Error("view missing IDLE badge when silent")
	}
}

func TestModelQuitKeys(t *testing.T) {
	for _, key := range []string{"q", "ctrl+c", "esc"} {
		m := testModel(t)
		var msg tea.Msg
		switch key {
		case "ctrl+c":
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
		}

		_, cmd := m.Update(msg)
		if cmd == nil {
			t.Errorf("key %q produced no command, want quit", key)
		}
	}
}

func TestObserverDropsEventsBeforeBind(t *testing.T) {
	obs := NewObserver()

	// Must not panic with no program bound.
	obs.OnStart()
	obs.OnActive()
	obs.OnSilent()
	obs.OnEnd()
}

func TestModelWindowResize(t *testing.T) {
	m := testModel(t)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 30, Height: 10})
	m = next.(Model)
	if m.bar.Width != 20 {
		t.Errorf("bar width = %d, want 20", m.bar.Width)
	}

	next, _ = m.Update(tea.WindowSizeMsg{Width: 200, Height: 10})
	m = next.(Model)
	if m.bar.Width != 60 {
		t.Errorf("bar width = %d, want capped at 60", m.bar.Width)
	}
}
