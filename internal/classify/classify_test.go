package classify

import (
	"testing"

	"github.com/Dicklesworthstone/hwsnap/internal/model"
)

func load(label string, v float64) model.Reading {
	return model.Reading{Label: label, Kind: model.KindLoad, Value: v}
}

func TestCPULabelRouting(t *testing.T) {
	tests := []struct {
		name    string
		reading model.Reading
		check   func(*model.CPU) bool
	}{
		{"total", load("CPU Total", 42), func(c *model.CPU) bool { return c.CPUUsage == 42 }},
		{"core max wins over core prefix", load("CPU Core Max #0", 90), func(c *model.CPU) bool {
			return c.MaxCoreUsage == 90 && len(c.CoreLoad) == 0
		}},
		{"core load", load("CPU Core #3", 17), func(c *model.CPU) bool { return c.CoreLoad["CPU Core #3"] == 17 }},
		{"max temperature", model.Reading{Label: "Core Max", Kind: model.KindTemperature, Value: 80}, func(c *model.CPU) bool {
			return c.MaxTemperature == 80
		}},
		{"package temperature", model.Reading{Label: "CPU Package", Kind: model.KindTemperature, Value: 71}, func(c *model.CPU) bool {
			return c.PackageTemperature == 71
		}},
		{"average temperature", model.Reading{Label: "Core Average", Kind: model.KindTemperature, Value: 65}, func(c *model.CPU) bool {
			return c.AverageTemperature == 65
		}},
		{"core temperature", model.Reading{Label: "CPU Core #2", Kind: model.KindTemperature, Value: 66}, func(c *model.CPU) bool {
			return c.CoreTemperature["CPU Core #2"] == 66
		}},
		{"core clock", model.Reading{Label: "CPU Core #1", Kind: model.KindClock, Value: 4200}, func(c *model.CPU) bool {
			return c.CoreClock["CPU Core #1"] == 4200
		}},
		{"bus speed", model.Reading{Label: "Bus Speed", Kind: model.KindClock, Value: 100}, func(c *model.CPU) bool {
			return c.BusSpeed == 100
		}},
		{"core voltage", model.Reading{Label: "CPU Core #1", Kind: model.KindVoltage, Value: 1.2}, func(c *model.CPU) bool {
			return c.CoreVoltage["CPU Core #1"] == 1.2 && c.CPUVoltage == 0
		}},
		{"cpu voltage", model.Reading{Label: "CPU Core", Kind: model.KindVoltage, Value: 1.1}, func(c *model.CPU) bool {
			return c.CPUVoltage == 1.1 && len(c.CoreVoltage) == 0
		}},
		{"package power", model.Reading{Label: "CPU Package", Kind: model.KindPower, Value: 65}, func(c *model.CPU) bool {
			return c.PackagePower == 65
		}},
		{"cores power", model.Reading{Label: "CPU Cores", Kind: model.KindPower, Value: 40}, func(c *model.CPU) bool {
			return c.CoresPower == 40
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := model.NewCPU()
			if !CPU(agg, tt.reading) {
				t.Fatalf("reading %+v not matched", tt.reading)
			}
			if !tt.check(agg) {
				t.Errorf("unexpected aggregate after %+v: %+v", tt.reading, agg)
			}
		})
	}
}

func TestCPUUnmatched(t *testing.T) {
	unmatched := []model.Reading{
		load("GPU Core", 3),
		{Label: "Core Min", Kind: model.KindTemperature, Value: 1},
		{Label: "Something", Kind: model.KindClock, Value: 1},
		{Label: "VID", Kind: model.KindVoltage, Value: 1},
		{Label: "CPU Memory", Kind: model.KindPower, Value: 1},
		{Label: "CPU Total", Kind: model.KindData, Value: 1},
	}
	for _, r := range unmatched {
		agg := model.NewCPU()
		if CPU(agg, r) {
			t.Errorf("reading %+v unexpectedly matched", r)
		}
	}
}

func TestCPUTotalLastValueWins(t *testing.T) {
	agg := model.NewCPU()
	CPU(agg, load("CPU Total", 10))
	CPU(agg, load("CPU Total", 35))
	if agg.CPUUsage != 35 {
		t.Errorf("CPUUsage = %v, want 35", agg.CPUUsage)
	}
}

func TestDeriveCounts(t *testing.T) {
	agg := model.NewCPU()
	for _, label := range []string{"CPU Core #1", "CPU Core #2", "CPU Core #4"} {
		CPU(agg, model.Reading{Label: label, Kind: model.KindVoltage, Value: 1})
	}
	for i, label := range []string{"CPU Core #1", "CPU Core #2", "CPU Core #3", "CPU Core #4", "CPU Core #5"} {
		CPU(agg, load(label, float64(i)))
	}
	DeriveCounts(agg)
	if agg.Cores != 3 || agg.Threads != 5 {
		t.Errorf("Cores, Threads = %d, %d; want 3, 5", agg.Cores, agg.Threads)
	}
}

func TestDeriveCountsIgnoresOutOfRange(t *testing.T) {
	agg := model.NewCPU()
	for _, label := range []string{"CPU Core #1", "CPU Core #70", "CPU Core #0", "CPU Core #64"} {
		CPU(agg, model.Reading{Label: label, Kind: model.KindVoltage, Value: 1})
	}
	DeriveCounts(agg)
	if agg.Cores != 2 {
		t.Errorf("Cores = %d, want 2 (#1 and #64)", agg.Cores)
	}
}

// Without per-core voltage sensors the core count stays zero even though
// thread loads are known. This mirrors the backend on many AMD and
// virtualised CPUs.
func TestDeriveCountsWithoutVoltageSensors(t *testing.T) {
	agg := model.NewCPU()
	CPU(agg, load("CPU Core #1", 5))
	CPU(agg, load("CPU Core #2", 6))
	DeriveCounts(agg)
	if agg.Cores != 0 || agg.Threads != 2 {
		t.Errorf("Cores, Threads = %d, %d; want 0, 2", agg.Cores, agg.Threads)
	}
}

func TestCoreIndex(t *testing.T) {
	tests := []struct {
		label string
		want  int
		ok    bool
	}{
		{"CPU Core #1", 1, true},
		{"CPU Core #12", 12, true},
		{"CPU Core #3 Thread #2", 3, true},
		{"CPU Core #64", 64, true},
		{"CPU Core #65", 0, false},
		{"CPU Core #", 0, false},
		{"CPU Core", 0, false},
		{"CPU Core #x", 0, false},
	}
	for _, tt := range tests {
		got, ok := CoreIndex(tt.label)
		if got != tt.want || ok != tt.ok {
			t.Errorf("CoreIndex(%q) = (%d, %v), want (%d, %v)", tt.label, got, ok, tt.want, tt.ok)
		}
	}
	if len(CoreIndexPrefix) != 10 {
		t.Errorf("core index offset = %d, want 10", len(CoreIndexPrefix))
	}
}

func TestMemoryStorageNetwork(t *testing.T) {
	var mem model.Memory
	for label, v := range map[string]float64{
		"Memory Used": 1, "Memory Available": 2, "Memory": 3,
		"Virtual Memory Used": 4, "Virtual Memory Available": 5, "Virtual Memory": 6,
	} {
		if !Memory(&mem, model.Reading{Label: label, Value: v}) {
			t.Errorf("memory label %q not matched", label)
		}
	}
	want := model.Memory{MemoryUsed: 1, MemoryAvailable: 2, MemoryUtilization: 3,
		VirtualMemoryUsed: 4, VirtualMemoryAvailable: 5, VirtualMemoryUtilization: 6}
	if mem != want {
		t.Errorf("memory = %+v, want %+v", mem, want)
	}
	if Memory(&mem, model.Reading{Label: "Memory Cached", Value: 9}) {
		t.Error("unknown memory label matched")
	}

	var disk model.StorageDevice
	for _, label := range []string{"Used Space", "Read Activity", "Write Activity", "Total Activity", "Read Rate", "Write Rate"} {
		if !Storage(&disk, model.Reading{Label: label, Value: 1}) {
			t.Errorf("storage label %q not matched", label)
		}
	}
	if Storage(&disk, model.Reading{Label: "Temperature", Value: 40}) {
		t.Error("unknown storage label matched")
	}

	var nic model.NetworkDevice
	for _, label := range []string{"Data Uploaded", "Data Downloaded", "Upload Speed", "Download Speed", "Network Utilization"} {
		if !Network(&nic, model.Reading{Label: label, Value: 1}) {
			t.Errorf("network label %q not matched", label)
		}
	}
	if Network(&nic, model.Reading{Label: "Packets", Value: 1}) {
		t.Error("unknown network label matched")
	}
}

func TestGPURecordsEveryLabel(t *testing.T) {
	sensors := map[string]model.GPUSensor{}
	GPU(sensors, model.Reading{Label: "GPU Core", Kind: model.KindTemperature, Value: 61})
	GPU(sensors, model.Reading{Label: "GPU Hot Spot", Kind: model.KindTemperature, Value: 70})
	if len(sensors) != 2 || sensors["GPU Hot Spot"].Value != 70 || sensors["GPU Core"].Kind != model.KindTemperature {
		t.Errorf("sensors = %+v", sensors)
	}
}

func TestTable(t *testing.T) {
	all := NewTable(nil)
	tests := map[model.Category]Family{
		model.CategoryCPU:       FamilyCPU,
		model.CategoryGPUAMD:    FamilyGPU,
		model.CategoryGPUIntel:  FamilyGPU,
		model.CategoryGPUNvidia: FamilyGPU,
		model.CategoryMemory:    FamilyMemory,
		model.CategoryStorage:   FamilyStorage,
		model.CategoryNetwork:   FamilyNetwork,
		model.CategoryBattery:   FamilyNone,
		model.CategoryOther:     FamilyNone,
		model.Category(99):      FamilyNone,
	}
	for cat, want := range tests {
		if got := all.Family(cat); got != want {
			t.Errorf("Family(%v) = %v, want %v", cat, got, want)
		}
	}

	noGPU := NewTable(func(f Family) bool { return f != FamilyGPU })
	if got := noGPU.Family(model.CategoryGPUNvidia); got != FamilyNone {
		t.Errorf("disabled gpu family = %v", got)
	}
	if got := noGPU.Family(model.CategoryCPU); got != FamilyCPU {
		t.Errorf("cpu family = %v", got)
	}
}
