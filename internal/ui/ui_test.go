package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dicklesworthstone/hwsnap/internal/model"
	"github.com/Dicklesworthstone/hwsnap/internal/store"
)

type fakeFeed struct {
	st      *store.Store
	running bool
	err     error
}

func (f *fakeFeed) Store() *store.Store { return f.st }
func (f *fakeFeed) Running() bool       { return f.running }
func (f *fakeFeed) LoopErr() error      { return f.err }

func TestViewShowsAggregates(t *testing.T) {
	st := store.New()
	st.UpdateCPU(func(c *model.CPU) {
		c.Name = "Test CPU"
		c.CPUUsage = 50
		c.CoreLoad["CPU Core #10"] = 10
		c.CoreLoad["CPU Core #2"] = 20
	})
	st.SetGPU("GPU 0", map[string]model.GPUSensor{"GPU Core": {Kind: model.KindTemperature, Value: 64}})
	st.SetStorage("nvme0n1", model.StorageDevice{UsedSpace: 12})
	st.SetNetwork("eth0", model.NetworkDevice{DownloadSpeed: 2 << 20})

	m := New(&fakeFeed{st: st, running: true})
	view := m.View()
	for _, want := range []string{"Test CPU", "refreshing", "64.0°C", "nvme0n1", "2.0 MB/s"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
	if strings.Index(view, "Core #2") > strings.Index(view, "Core #10") {
		t.Fatal("cores not in index order")
	}
}

func TestTickPicksUpNewReadings(t *testing.T) {
	st := store.New()
	feed := &fakeFeed{st: st}
	m := New(feed)
	if strings.Contains(m.View(), "sdb") {
		t.Fatal("unexpected device before update")
	}

	st.SetStorage("sdb", model.StorageDevice{})
	feed.err = errors.New("bus reset")
	_, cmd := m.Update(tickMsg(time.Now()))
	if cmd == nil {
		t.Fatal("tick should schedule the next tick")
	}
	view := m.View()
	if !strings.Contains(view, "sdb") || !strings.Contains(view, "refresh failed: bus reset") {
		t.Fatalf("view not refreshed:\n%s", view)
	}
}

func TestQuitKey(t *testing.T) {
	m := New(&fakeFeed{st: store.New()})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q should return tea.Quit")
	}
}

func TestGaugeBarClamps(t *testing.T) {
	if got := gaugeBar(150, 4); got != "[████] 100.0%" {
		t.Fatalf("gaugeBar(150) = %q", got)
	}
	if got := gaugeBar(-3, 4); got != "[░░░░]   0.0%" {
		t.Fatalf("gaugeBar(-3) = %q", got)
	}
}
