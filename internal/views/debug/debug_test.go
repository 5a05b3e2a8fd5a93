package debug

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/faiyaz032/gobox/internal/transport"
)

// fixedClock advances one second per call.
func fixedClock() func() time.Time {
	t := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newLog() Model {
	m := New()
	m.now = fixedClock()
	return m
}

func fill(m *Model, n int) {
	for i := 0; i < n; i++ {
		m.Session(fmt.Sprintf("note %d", i))
	}
}

func TestRecordKinds(t *testing.T) {
	m := newLog()
	m.Status(transport.StatusConnecting)
	m.Session("session activated")
	m.Error(errors.New("dial refused"))
	m.Error(nil)

	got := m.Events()
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	want := []Kind{KindStatus, KindSession, KindError}
	for i, k := range want {
		if got[i].Kind != k {
			t.Errorf("event %d: expected kind %s, got %s", i, k, got[i].Kind)
		}
	}
	if got[0].Status != transport.StatusConnecting || got[0].Text != "connecting" {
		t.Errorf("unexpected status event %+v", got[0])
	}
}

func TestRepeatsShareALine(t *testing.T) {
	m := newLog()
	m.Status(transport.StatusError)
	m.Status(transport.StatusError)
	m.Status(transport.StatusDisconnected)

	got := m.Events()
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Count != 2 {
		t.Errorf("expected count 2, got %d", got[0].Count)
	}
	if v := m.View(80, 20); !strings.Contains(v, "×2") {
		t.Error("view should show the repeat count")
	}
}

func TestCapacity(t *testing.T) {
	m := newLog()
	fill(&m, capacity+50)
	got := m.Events()
	if len(got) != capacity {
		t.Errorf("expected %d events, got %d", capacity, len(got))
	}
	if got[0].Text != "note 50" {
		t.Errorf("expected oldest kept event 'note 50', got %q", got[0].Text)
	}
}

func TestScroll(t *testing.T) {
	m := newLog()
	fill(&m, 20)
	if !m.Following() {
		t.Fatal("expected to follow after records")
	}

	m.Scroll(5)
	if m.back != 5 || m.Following() {
		t.Errorf("expected 5 lines back, got %d", m.back)
	}
	m.Scroll(-3)
	if m.back != 2 {
		t.Errorf("expected 2 lines back, got %d", m.back)
	}
	m.Scroll(-10)
	if !m.Following() {
		t.Error("scrolling past the newest should follow again")
	}
	m.Scroll(100)
	if m.back != 19 {
		t.Errorf("expected scroll capped at 19, got %d", m.back)
	}

	m.Session("new")
	if !m.Following() {
		t.Error("a new event should return to the newest")
	}
}

func TestViewEmpty(t *testing.T) {
	m := newLog()
	if v := m.View(80, 20); !strings.Contains(v, "No events yet") {
		t.Error("empty view should say there are no events")
	}
}

func TestViewShowsOffsetsAndText(t *testing.T) {
	m := newLog()
	m.Status(transport.StatusConnecting)
	m.Status(transport.StatusConnected)
	m.Error(errors.New("read timeout"))

	v := m.View(80, 20)
	for _, want := range []string{"connecting", "connected", "read timeout", "+  0.000s", "+  2.000s", "following"} {
		if !strings.Contains(v, want) {
			t.Errorf("view should contain %q", want)
		}
	}

	m.Scroll(1)
	if v := m.View(80, 20); !strings.Contains(v, "1 newer below") || strings.Contains(v, "read timeout") {
		t.Error("scrolled view should hide the newest event")
	}
}
