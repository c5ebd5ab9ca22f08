package source

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/net"
	"go.uber.org/zap"

	"github.com/Dicklesworthstone/hwsnap/internal/model"
)

// HostOptions selects which optional device families the host source
// enumerates.
type HostOptions struct {
	EnableGPU     bool
	EnableBattery bool
	EnableThermal bool
	// SysRoot replaces "/sys" for sysfs reads.
	SysRoot string
}

// Host reads the local machine through gopsutil, nvidia-smi and sysfs.
type Host struct {
	opts  HostOptions
	log   *zap.Logger
	clock clockwork.Clock

	mu      sync.Mutex
	closed  bool
	cpu     *Node
	memory  *Node
	thermal *Node
	battery map[string]*Node
	disks   map[string]*Node
	nics    map[string]*Node
	gpus    map[string]*Node

	cpuState cpuState
	diskPrev map[string]diskSample
	nicPrev  map[string]nicSample
	gpuIndex map[*Node]string
}

// OpenHost prepares a host source. Nothing is read until the first call to
// Devices.
func OpenHost(opts HostOptions, log *zap.Logger, clk clockwork.Clock) *Host {
	if opts.SysRoot == "" {
		opts.SysRoot = "/sys"
	}
	return &Host{
		opts:     opts,
		log:      log.Named("host"),
		clock:    clk,
		battery:  make(map[string]*Node),
		disks:    make(map[string]*Node),
		nics:     make(map[string]*Node),
		gpus:     make(map[string]*Node),
		diskPrev: make(map[string]diskSample),
		nicPrev:  make(map[string]nicSample),
		gpuIndex: make(map[*Node]string),
	}
}

// Devices enumerates the host. CPU and memory are always present; optional
// families are skipped when their backend is unavailable.
func (h *Host) Devices(ctx context.Context) ([]Device, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, fmt.Errorf("host source closed")
	}

	if h.cpu == nil {
		h.cpu = NewNode(cpuModelName(ctx), model.CategoryCPU)
	}
	if h.memory == nil {
		h.memory = NewNode("Generic Memory", model.CategoryMemory)
	}
	devices := []Device{h.cpu, h.memory}

	if h.opts.EnableGPU {
		devices = append(devices, h.enumerateGPUs(ctx)...)
	}

	if counters, err := disk.IOCountersWithContext(ctx); err == nil {
		for _, name := range sortedKeys(counters) {
			if strings.HasPrefix(name, "loop") || strings.HasPrefix(name, "ram") {
				continue
			}
			devices = append(devices, nodeFor(h.disks, name, model.CategoryStorage))
		}
	} else {
		h.log.Debug("disk enumeration unavailable", zap.Error(err))
	}

	if counters, err := net.IOCountersWithContext(ctx, true); err == nil {
		for _, c := range counters {
			if c.Name == "lo" {
				continue
			}
			devices = append(devices, nodeFor(h.nics, c.Name, model.CategoryNetwork))
		}
	} else {
		h.log.Debug("network enumeration unavailable", zap.Error(err))
	}

	if h.opts.EnableBattery {
		for _, name := range batteryNames(h.opts.SysRoot) {
			devices = append(devices, nodeFor(h.battery, name, model.CategoryBattery))
		}
	}

	if h.opts.EnableThermal && len(thermalZones(h.opts.SysRoot)) > 0 {
		if h.thermal == nil {
			h.thermal = NewNode("ACPI Thermal", model.CategoryOther)
		}
		devices = append(devices, h.thermal)
	}
	return devices, nil
}

// Refresh reads fresh values into one device.
func (h *Host) Refresh(ctx context.Context, d Device) error {
	n, ok := d.(*Node)
	if !ok {
		return fmt.Errorf("refresh %q: foreign device %T", d.Name(), d)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return fmt.Errorf("refresh %q: host source closed", n.Name())
	}

	switch {
	case n == h.cpu:
		return h.refreshCPU(ctx, n)
	case n == h.memory:
		return refreshMemory(ctx, n)
	case n == h.thermal:
		refreshThermal(h.opts.SysRoot, n)
		return nil
	}
	switch n.Category() {
	case model.CategoryGPUNvidia:
		return h.refreshGPU(ctx, n)
	case model.CategoryStorage:
		return h.refreshDisk(ctx, n)
	case model.CategoryNetwork:
		return h.refreshNIC(ctx, n)
	case model.CategoryBattery:
		refreshBattery(h.opts.SysRoot, n)
		return nil
	}
	return fmt.Errorf("refresh %q: unknown device", n.Name())
}

// Close releases the source. Further calls fail.
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

// unavailable clears every reading of n for this refresh. Vanished devices
// and slow helpers are not poll failures.
func (h *Host) unavailable(n *Node, reason string, err error) {
	h.log.Debug("device unavailable",
		zap.String("device", n.Name()),
		zap.String("reason", reason),
		zap.Error(err))
	n.Update(func(func(string, model.Kind, float64)) {})
}

func nodeFor(nodes map[string]*Node, name string, cat model.Category) *Node {
	n, ok := nodes[name]
	if !ok {
		n = NewNode(name, cat)
		nodes[name] = n
	}
	return n
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
