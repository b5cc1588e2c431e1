package main

import (
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.uber.org/zap"
)

func plainRenderer() *lipgloss.Renderer {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.Ascii)
	return r
}

func TestBrowseItems(t *testing.T) {
	cf, _, err := loadClass(minimalClass, textConfig(), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	items, err := browseItems(cf, plainRenderer())
	if err != nil {
		t.Fatalf("browseItems: %v", err)
	}

	var titles []string
	for _, it := range items {
		titles = append(titles, it.title)
	}
	want := []string{
		"Header",
		"Constant pool (14)",
		"method <init> ()V",
		"method main ([Ljava/lang/String;)V",
		"Attributes (1)",
	}
	if strings.Join(titles, "|") != strings.Join(want, "|") {
		t.Fatalf("titles = %q, want %q", titles, want)
	}
	if !strings.Contains(items[2].detail, "invokespecial") {
		t.Errorf("method detail lacks disassembly:\n%s", items[2].detail)
	}
	if !strings.Contains(items[4].detail, "Minimal.java") {
		t.Errorf("attribute detail = %q", items[4].detail)
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestInteractiveNavigation(t *testing.T) {
	m := newInteractiveModel(minimalClass, textConfig(), zap.NewNop())
	if got := m.View(); !strings.Contains(got, "Loading") {
		t.Errorf("initial view = %q", got)
	}

	m.Update(m.loadClass())
	if m.err != nil {
		t.Fatalf("load: %v", m.err)
	}
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	m.Update(key("down"))
	m.Update(key("j"))
	if m.selected != 2 {
		t.Fatalf("selected = %d", m.selected)
	}
	m.Update(key("k"))
	m.Update(key("enter"))
	if m.state != stateDetail {
		t.Fatal("enter did not open detail view")
	}
	if !strings.Contains(m.View(), "Constant pool") {
		t.Errorf("detail view:\n%s", m.View())
	}

	// Movement keys scroll the viewport and leave the selection alone.
	m.Update(key("down"))
	if m.selected != 1 {
		t.Errorf("selection moved in detail view: %d", m.selected)
	}
	m.Update(key("esc"))
	if m.state != stateSelect {
		t.Error("esc did not return to list")
	}

	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestInteractiveLoadError(t *testing.T) {
	m := newInteractiveModel("does-not-exist.class", textConfig(), zap.NewNop())
	m.Update(m.loadClass())
	if m.err == nil {
		t.Fatal("expected load error")
	}
	if !strings.Contains(m.View(), "Error:") {
		t.Errorf("view = %q", m.View())
	}
}
