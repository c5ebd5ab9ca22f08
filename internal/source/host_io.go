package source

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"

	"github.com/Dicklesworthstone/hwsnap/internal/model"
)

const gib = 1024 * 1024 * 1024

func refreshMemory(ctx context.Context, n *Node) error {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return fmt.Errorf("refresh %q: %w", n.Name(), err)
	}
	swap, swapErr := mem.SwapMemoryWithContext(ctx)

	n.Update(func(set func(string, model.Kind, float64)) {
		set("Memory Used", model.KindData, float64(vm.Used)/gib)
		set("Memory Available", model.KindData, float64(vm.Available)/gib)
		set("Memory", model.KindLoad, vm.UsedPercent)
		if swapErr == nil && swap != nil {
			set("Virtual Memory Used", model.KindData, float64(swap.Used)/gib)
			set("Virtual Memory Available", model.KindData, float64(swap.Free)/gib)
			if swap.Total > 0 {
				set("Virtual Memory", model.KindLoad, swap.UsedPercent)
			}
		}
	})
	return nil
}

type diskSample struct {
	at       time.Time
	counters disk.IOCountersStat
}

func (h *Host) refreshDisk(ctx context.Context, n *Node) error {
	counters, err := disk.IOCountersWithContext(ctx, n.Name())
	if err != nil {
		return fmt.Errorf("refresh %q: %w", n.Name(), err)
	}
	cur, ok := counters[n.Name()]
	if !ok {
		delete(h.diskPrev, n.Name())
		h.unavailable(n, "device disappeared", nil)
		return nil
	}
	now := h.clock.Now()
	prev, hasPrev := h.diskPrev[n.Name()]
	h.diskPrev[n.Name()] = diskSample{at: now, counters: cur}
	used, hasUsed := diskUsedPercent(ctx, n.Name())

	n.Update(func(set func(string, model.Kind, float64)) {
		if hasUsed {
			set("Used Space", model.KindLoad, used)
		}
		if !hasPrev {
			return
		}
		elapsed := now.Sub(prev.at)
		if elapsed <= 0 {
			return
		}
		secs := elapsed.Seconds()
		ms := float64(elapsed.Milliseconds())
		set("Read Rate", model.KindThroughput, float64(delta(cur.ReadBytes, prev.counters.ReadBytes))/secs)
		set("Write Rate", model.KindThroughput, float64(delta(cur.WriteBytes, prev.counters.WriteBytes))/secs)
		if ms > 0 {
			set("Read Activity", model.KindLoad, clampPct(float64(delta(cur.ReadTime, prev.counters.ReadTime))*100/ms))
			set("Write Activity", model.KindLoad, clampPct(float64(delta(cur.WriteTime, prev.counters.WriteTime))*100/ms))
			set("Total Activity", model.KindLoad, clampPct(float64(delta(cur.IoTime, prev.counters.IoTime))*100/ms))
		}
	})
	return nil
}

func diskUsedPercent(ctx context.Context, name string) (float64, bool) {
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return 0, false
	}
	for _, p := range parts {
		if filepath.Base(p.Device) != name {
			continue
		}
		usage, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil {
			return 0, false
		}
		return usage.UsedPercent, true
	}
	return 0, false
}

type nicSample struct {
	at       time.Time
	counters net.IOCountersStat
}

func (h *Host) refreshNIC(ctx context.Context, n *Node) error {
	counters, err := net.IOCountersWithContext(ctx, true)
	if err != nil {
		return fmt.Errorf("refresh %q: %w", n.Name(), err)
	}
	var cur net.IOCountersStat
	found := false
	for _, c := range counters {
		if c.Name == n.Name() {
			cur, found = c, true
			break
		}
	}
	if !found {
		delete(h.nicPrev, n.Name())
		h.unavailable(n, "interface disappeared", nil)
		return nil
	}
	now := h.clock.Now()
	prev, hasPrev := h.nicPrev[n.Name()]
	h.nicPrev[n.Name()] = nicSample{at: now, counters: cur}
	linkMbps := readSysfsInt(filepath.Join(h.opts.SysRoot, "class/net", n.Name(), "speed"))

	n.Update(func(set func(string, model.Kind, float64)) {
		set("Data Uploaded", model.KindData, float64(cur.BytesSent)/gib)
		set("Data Downloaded", model.KindData, float64(cur.BytesRecv)/gib)
		if !hasPrev {
			return
		}
		secs := now.Sub(prev.at).Seconds()
		if secs <= 0 {
			return
		}
		up := float64(delta(cur.BytesSent, prev.counters.BytesSent)) / secs
		down := float64(delta(cur.BytesRecv, prev.counters.BytesRecv)) / secs
		set("Upload Speed", model.KindThroughput, up)
		set("Download Speed", model.KindThroughput, down)
		if linkMbps > 0 {
			set("Network Utilization", model.KindLoad, clampPct((up+down)*8*100/(float64(linkMbps)*1e6)))
		}
	})
	return nil
}

// delta tolerates counter resets by reporting zero.
func delta(cur, prev uint64) uint64 {
	if cur < prev {
		return 0
	}
	return cur - prev
}

func clampPct(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
