package source

import (
	"context"
	"errors"
	"testing"

	"github.com/Dicklesworthstone/hwsnap/internal/model"
)

func TestNodeStaleBeforeUpdate(t *testing.T) {
	n := NewNode("cpu", model.CategoryCPU)
	n.Update(func(set func(string, model.Kind, float64)) {
		set("CPU Total", model.KindLoad, 12)
	})
	fresh := NewNode("gpu", model.CategoryGPUNvidia)
	if len(fresh.Sensors()) != 0 {
		t.Fatalf("unrefreshed node exposes sensors")
	}

	s := &nodeSensor{owner: fresh, label: "x", kind: model.KindLoad}
	if _, _, err := s.Value(); !errors.Is(err, ErrStale) {
		t.Errorf("Value before refresh: err = %v, want ErrStale", err)
	}

	v, ok, err := n.Sensors()[0].Value()
	if err != nil || !ok || v != 12 {
		t.Errorf("Value = (%v, %v, %v), want (12, true, nil)", v, ok, err)
	}
}

func TestNodeUpdateMarksMissingUnavailable(t *testing.T) {
	n := NewNode("disk", model.CategoryStorage)
	n.Update(func(set func(string, model.Kind, float64)) {
		set("Used Space", model.KindLoad, 40)
		set("Write Rate", model.KindThroughput, 5)
	})
	n.Update(func(set func(string, model.Kind, float64)) {
		set("Used Space", model.KindLoad, 41)
	})

	sensors := n.Sensors()
	if len(sensors) != 2 {
		t.Fatalf("sensors = %d, want 2", len(sensors))
	}
	if sensors[0].Name() != "Used Space" || sensors[1].Name() != "Write Rate" {
		t.Errorf("order = %q, %q", sensors[0].Name(), sensors[1].Name())
	}
	if v, ok, _ := sensors[0].Value(); !ok || v != 41 {
		t.Errorf("Used Space = (%v, %v), want (41, true)", v, ok)
	}
	if _, ok, _ := sensors[1].Value(); ok {
		t.Error("Write Rate still available after it was not set")
	}
}

type recordingSource struct {
	order []string
	fail  string
}

func (r *recordingSource) Devices(context.Context) ([]Device, error) { return nil, nil }
func (r *recordingSource) Close() error                              { return nil }

func (r *recordingSource) Refresh(_ context.Context, d Device) error {
	r.order = append(r.order, d.Name())
	if d.Name() == r.fail {
		return errors.New("boom")
	}
	return nil
}

func TestRefreshTreeDepthFirst(t *testing.T) {
	leaf := NewNode("leaf", model.CategoryOther)
	mid := NewNode("mid", model.CategoryOther, leaf)
	other := NewNode("other", model.CategoryOther)
	root := NewNode("root", model.CategoryCPU, mid, other)

	src := &recordingSource{}
	if err := RefreshTree(context.Background(), src, root); err != nil {
		t.Fatalf("RefreshTree: %v", err)
	}
	want := []string{"root", "mid", "leaf", "other"}
	if len(src.order) != len(want) {
		t.Fatalf("order = %v, want %v", src.order, want)
	}
	for i := range want {
		if src.order[i] != want[i] {
			t.Fatalf("order = %v, want %v", src.order, want)
		}
	}

	src = &recordingSource{fail: "mid"}
	if err := RefreshTree(context.Background(), src, root); err == nil {
		t.Fatal("expected error from failing child")
	}
	if len(src.order) != 2 {
		t.Errorf("walk continued after failure: %v", src.order)
	}
}
