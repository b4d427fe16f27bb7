package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/vsmkit/internal/analyzer"
	"github.com/san-kum/vsmkit/internal/loop"
	"github.com/san-kum/vsmkit/internal/storage"
)

func seededStore(t *testing.T, names ...string) *storage.Store {
	t.Helper()
	st := storage.New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}
	l := loop.NewLoop(
		loop.Trace{{H: -10, M: -1}, {H: -5, M: -1}, {H: 0, M: 0}, {H: 5, M: 1}, {H: 10, M: 1}},
		loop.Trace{{H: 10, M: 1}, {H: 5, M: 1}, {H: 0, M: 0}, {H: -5, M: -1}, {H: -10, M: -1}},
	)
	a := analyzer.New(analyzer.DefaultOptions())
	for _, name := range names {
		hard, err := a.Analyze(context.Background(), l, loop.Hard)
		if err != nil {
			t.Fatal(err)
		}
		res := analyzer.SampleResult{Name: name, Hard: hard}
		if _, err := st.Save(res, a.Options()); err != nil {
			t.Fatal(err)
		}
	}
	return st
}

func press(m tea.Model, keys ...tea.KeyMsg) tea.Model {
	for _, k := range keys {
		m, _ = m.Update(k)
	}
	return m
}

var (
	keyDown  = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}}
	keyUp    = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyQuit  = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}
)

func TestNavigation(t *testing.T) {
	m, err := New(seededStore(t, "alpha", "beta"))
	if err != nil {
		t.Fatal(err)
	}

	got := press(*m, keyDown, keyDown).(model)
	if got.cursor != 1 {
		t.Errorf("cursor should stop at the last run, got %d", got.cursor)
	}
	got = press(got, keyUp, keyUp).(model)
	if got.cursor != 0 {
		t.Errorf("cursor should stop at the first run, got %d", got.cursor)
	}
}

func TestOpenRun(t *testing.T) {
	m, err := New(seededStore(t, "alpha"))
	if err != nil {
		t.Fatal(err)
	}

	got := press(*m, keyEnter).(model)
	if got.state != stateDetail {
		t.Fatalf("expected detail view, got state %d", got.state)
	}
	if got.axis != loop.Hard {
		t.Errorf("only the hard axis was stored, got %v", got.axis)
	}
	view := got.View()
	if !strings.Contains(view, "alpha") || !strings.Contains(view, "hk") {
		t.Errorf("detail view missing sample or hk:\n%s", view)
	}

	got = press(got, keyEsc).(model)
	if got.state != stateList || got.selected != nil {
		t.Error("esc should return to the list")
	}
}

func TestQuit(t *testing.T) {
	m, err := New(seededStore(t))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(m.View(), "no runs stored") {
		t.Error("empty store should say so")
	}

	_, cmd := m.Update(keyQuit)
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestSwitchAxisStaysOnMeasuredAxis(t *testing.T) {
	m, err := New(seededStore(t, "alpha"))
	if err != nil {
		t.Fatal(err)
	}
	got := press(*m, keyEnter, tea.KeyMsg{Type: tea.KeyTab}).(model)
	if got.axis != loop.Hard {
		t.Errorf("easy axis was not measured, got %v", got.axis)
	}
}
