package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/goleak"

	"github.com/evcraddock/rentshed/internal/listing"
	"github.com/evcraddock/rentshed/internal/session"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	down  = tea.KeyMsg{Type: tea.KeyDown}
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newModel(t *testing.T) Model {
	t.Helper()
	catalog, err := listing.NewCatalog(listing.Seed())
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	ctrl := session.NewController(catalog, session.Options{
		Chat: session.ChatOptions{ReplyDelay: 10 * time.Millisecond},
	})
	t.Cleanup(ctrl.Close)
	return New(ctrl)
}

func press(t *testing.T, m Model, keys ...tea.KeyMsg) Model {
	t.Helper()
	for _, k := range keys {
		updated, _ := m.Update(k)
		var ok bool
		if m, ok = updated.(Model); !ok {
			t.Fatalf("Update returned %T", updated)
		}
	}
	return m
}

func TestBoardStartsWithDefaultView(t *testing.T) {
	m := newModel(t)
	view := m.View()

	if !strings.Contains(view, "6 items") {
		t.Errorf("expected six Hannam-dong listings, view:\n%s", view)
	}
	if !strings.Contains(view, "All categories · Hannam-dong") {
		t.Error("expected filter summary")
	}
	if strings.Contains(view, "Power drill") {
		t.Error("Yongsan-gu listing should be hidden")
	}
	if !strings.Contains(view, "350,000 won") {
		t.Error("expected formatted price")
	}
}

func TestSearchFiltersLive(t *testing.T) {
	m := newModel(t)

	m = press(t, m, runes("/"), runes("tent"))
	if got := m.ctrl.Filter().Query; got != "tent" {
		t.Fatalf("query = %q, want tent", got)
	}
	if !strings.Contains(m.View(), "1 items") {
		t.Error("expected only the tent")
	}

	// Letters are search text while the input is focused.
	m = press(t, m, runes("q"))
	if m.ctrl.Filter().Query != "tentq" {
		t.Errorf("query = %q", m.ctrl.Filter().Query)
	}
	if !strings.Contains(m.View(), "No items match your search.") {
		t.Error("expected empty state")
	}

	m = press(t, m, enter)
	if m.focus != focusTable {
		t.Error("enter should leave the search input")
	}
}

func TestCycleCategoryAndLocation(t *testing.T) {
	m := newModel(t)

	m = press(t, m, runes("c"))
	if f := m.ctrl.Filter(); f.Category != "tools" {
		t.Fatalf("category = %q, want tools", f.Category)
	}
	if !strings.Contains(m.View(), "2 items") {
		t.Error("expected two tools in Hannam-dong")
	}

	m = press(t, m, runes("l"))
	if f := m.ctrl.Filter(); f.Location != "yongsan" {
		t.Fatalf("location = %q, want yongsan", f.Location)
	}
	if view := m.View(); !strings.Contains(view, "1 items") || !strings.Contains(view, "Power drill") {
		t.Error("expected the Yongsan-gu drill")
	}

	m = press(t, m, runes("x"))
	if f := m.ctrl.Filter(); f != listing.DefaultFilter() {
		t.Errorf("filter after reset = %+v", f)
	}
}

func TestDetailAndRent(t *testing.T) {
	m := newModel(t)

	m = press(t, m, enter)
	if m.ctrl.Modal() != session.ModalDetail {
		t.Fatalf("modal = %v, want detail", m.ctrl.Modal())
	}
	if !strings.Contains(m.View(), "Per hour: 5,000 won") {
		t.Error("expected detail of the first listing")
	}

	m = press(t, m, runes("r"))
	if !strings.Contains(m.status, "Rental confirmed") {
		t.Errorf("status = %q", m.status)
	}
	if l, _ := m.ctrl.Catalog().Get("1"); l.Available {
		t.Error("listing 1 should be rented out")
	}

	m = press(t, m, runes("r"))
	if !strings.Contains(m.status, "already rented out") {
		t.Errorf("second rent status = %q", m.status)
	}

	m = press(t, m, esc)
	if m.ctrl.Modal() != session.ModalNone {
		t.Fatal("esc should close the detail")
	}
	view := m.View()
	if !strings.Contains(view, "Rented out") || !strings.Contains(view, "6 items") {
		t.Error("rented listing should stay visible with its badge")
	}
}

func TestChatFlow(t *testing.T) {
	m := newModel(t)

	m = press(t, m, down, runes("t"))
	if m.ctrl.Modal() != session.ModalChat || m.feed == nil {
		t.Fatalf("modal = %v, feed = %v", m.ctrl.Modal(), m.feed)
	}
	if sel, _ := m.ctrl.Selected(); sel.ID != "2" {
		t.Errorf("chat is about %q, want 2", sel.ID)
	}

	m = press(t, m, runes("Is it free tomorrow?"), enter)
	if m.input.Value() != "" {
		t.Error("input should clear after sending")
	}

	got := m.feed.wait()()
	if msg, ok := got.(chatMsg); !ok || msg.Text != "Is it free tomorrow?" {
		t.Fatalf("first feed message = %#v", got)
	}
	got = m.feed.wait()()
	if msg, ok := got.(chatMsg); !ok || msg.Sender != session.SenderOwner {
		t.Fatalf("second feed message = %#v", got)
	}

	view := m.View()
	if !strings.Contains(view, "Is it free tomorrow?") || !strings.Contains(view, "Let's pick a time") {
		t.Errorf("chat log missing messages:\n%s", view)
	}

	chat := m.ctrl.Chat()
	feed := m.feed
	m = press(t, m, esc)
	if m.ctrl.Modal() != session.ModalNone || m.feed != nil {
		t.Error("esc should close the chat and its feed")
	}
	if !chat.Closed() {
		t.Error("chat should be closed")
	}
	if msg := feed.wait()(); msg != nil {
		t.Errorf("stopped feed returned %#v", msg)
	}
}

func TestBlankChatMessageIgnored(t *testing.T) {
	m := newModel(t)

	m = press(t, m, runes("t"), runes("   "), enter)
	if n := len(m.ctrl.Chat().Messages()); n != 1 {
		t.Errorf("got %d messages, want greeting only", n)
	}
}

func TestMapNeedsKey(t *testing.T) {
	m := newModel(t)

	m = press(t, m, runes("m"))
	if m.ctrl.Modal() != session.ModalAPIKeySetting {
		t.Fatalf("modal = %v, want settings", m.ctrl.Modal())
	}
	if _, ok := m.ctrl.Selected(); ok {
		t.Error("selection should be untouched")
	}

	m = press(t, m, runes("abcd1234"), enter)
	if m.ctrl.Modal() != session.ModalNone {
		t.Fatalf("saving should close settings, modal = %v", m.ctrl.Modal())
	}
	if key, _ := m.ctrl.MapAPIKey(); key != "abcd1234" {
		t.Errorf("key = %q", key)
	}

	m = press(t, m, runes("m"))
	if m.ctrl.Modal() != session.ModalMap {
		t.Fatalf("modal = %v, want map", m.ctrl.Modal())
	}
	if view := m.View(); !strings.Contains(view, "abcd****") || !strings.Contains(view, "Hannam-dong") {
		t.Errorf("map view:\n%s", view)
	}
}

func TestSettingsRejectsEmptyKey(t *testing.T) {
	m := newModel(t)

	m = press(t, m, runes("s"), enter)
	if m.ctrl.Modal() != session.ModalAPIKeySetting {
		t.Errorf("modal = %v, want settings to stay open", m.ctrl.Modal())
	}
	if !m.statusErr {
		t.Error("expected an error status")
	}

	m = press(t, m, esc)
	if m.ctrl.Modal() != session.ModalNone {
		t.Error("esc should close settings")
	}
}

func TestQuit(t *testing.T) {
	m := newModel(t)

	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestNext(t *testing.T) {
	tests := []struct {
		cur, want string
	}{
		{"all", "hannam"},
		{"hannam", "yongsan"},
		{"gangnam", "all"},
		{"mapo", "all"},
	}
	for _, tt := range tests {
		if got := next(locationCycle, tt.cur); got != tt.want {
			t.Errorf("next(%q) = %q, want %q", tt.cur, got, tt.want)
		}
	}
}
