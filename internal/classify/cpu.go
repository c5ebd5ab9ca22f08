package classify

import (
	"math/bits"
	"strconv"
	"strings"

	"github.com/Dicklesworthstone/hwsnap/internal/model"
)

const (
	// CoreIndexPrefix precedes the 1-based core number in per-core voltage
	// labels. The number starts at len(CoreIndexPrefix).
	CoreIndexPrefix = "CPU Core #"

	// MaxCores bounds the core presence set. Higher indexes are ignored.
	MaxCores = 64
)

// CPU applies one reading to agg. It reports whether the reading matched a
// field. Prefix checks run most specific first: "CPU Core Max" and
// "CPU Core #" must win over the bare "CPU Core" prefix.
func CPU(agg *model.CPU, r model.Reading) bool {
	label, v := r.Label, r.Value
	switch r.Kind {
	case model.KindLoad:
		switch {
		case label == "CPU Total":
			agg.CPUUsage = v
		case strings.HasPrefix(label, "CPU Core Max"):
			agg.MaxCoreUsage = v
		case strings.HasPrefix(label, "CPU Core"):
			agg.CoreLoad[label] = v
		default:
			return false
		}
	case model.KindTemperature:
		switch {
		case label == "Core Max":
			agg.MaxTemperature = v
		case label == "CPU Package":
			agg.PackageTemperature = v
		case label == "Core Average":
			agg.AverageTemperature = v
		case strings.HasPrefix(label, "CPU Core"):
			agg.CoreTemperature[label] = v
		default:
			return false
		}
	case model.KindClock:
		switch {
		case strings.HasPrefix(label, "CPU Core"):
			agg.CoreClock[label] = v
		case label == "Bus Speed":
			agg.BusSpeed = v
		default:
			return false
		}
	case model.KindVoltage:
		switch {
		case strings.HasPrefix(label, CoreIndexPrefix):
			agg.CoreVoltage[label] = v
		case label == "CPU Core":
			agg.CPUVoltage = v
		default:
			return false
		}
	case model.KindPower:
		switch label {
		case "CPU Package":
			agg.PackagePower = v
		case "CPU Cores":
			agg.CoresPower = v
		default:
			return false
		}
	default:
		return false
	}
	return true
}

// DeriveCounts recomputes Cores and Threads after a CPU device has been
// classified. Cores counts distinct core indexes among CoreVoltage labels,
// so a CPU without per-core voltage sensors reports zero cores.
func DeriveCounts(agg *model.CPU) {
	var present uint64
	for label := range agg.CoreVoltage {
		if idx, ok := CoreIndex(label); ok {
			present |= 1 << (idx - 1)
		}
	}
	agg.Cores = bits.OnesCount64(present)
	agg.Threads = len(agg.CoreLoad)
}

// CoreIndex parses the 1-based core number of a "CPU Core #<N>" label.
// Labels with a suffix after the digits (e.g. "CPU Core #3 Thread #1")
// yield the leading number. Indexes outside 1..MaxCores are rejected.
func CoreIndex(label string) (int, bool) {
	if !strings.HasPrefix(label, CoreIndexPrefix) {
		return 0, false
	}
	digits := label[len(CoreIndexPrefix):]
	end := 0
	for end < len(digits) && digits[end] >= '0' && digits[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	idx, err := strconv.Atoi(digits[:end])
	if err != nil || idx < 1 || idx > MaxCores {
		return 0, false
	}
	return idx, true
}
