package source

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"go.uber.org/zap"

	"github.com/Dicklesworthstone/hwsnap/internal/model"
)

type cpuState struct {
	prevTotal float64
	prevIdle  float64
	prevCore  []cpu.TimesStat
}

func cpuModelName(ctx context.Context) string {
	infos, err := cpu.InfoWithContext(ctx)
	if err != nil || len(infos) == 0 || infos[0].ModelName == "" {
		return "Generic CPU"
	}
	return strings.TrimSpace(infos[0].ModelName)
}

func (h *Host) refreshCPU(ctx context.Context, n *Node) error {
	total, perCore, err := h.cpuPercents(ctx)
	if err != nil {
		return fmt.Errorf("refresh %q: %w", n.Name(), err)
	}
	infos, _ := cpu.InfoWithContext(ctx)
	temps, tempErr := host.SensorsTemperaturesWithContext(ctx)
	if tempErr != nil && len(temps) == 0 {
		h.log.Debug("cpu temperatures unavailable", zap.Error(tempErr))
	}

	n.Update(func(set func(string, model.Kind, float64)) {
		if total >= 0 {
			set("CPU Total", model.KindLoad, total)
		}
		maxCore := -1.0
		for i, pct := range perCore {
			if pct < 0 {
				continue
			}
			set(coreLabel(i+1), model.KindLoad, pct)
			if pct > maxCore {
				maxCore = pct
			}
		}
		if maxCore >= 0 {
			set("CPU Core Max", model.KindLoad, maxCore)
		}

		for i, info := range infos {
			if info.Mhz > 0 {
				set(coreLabel(i+1), model.KindClock, info.Mhz)
			}
		}

		var coreSum, coreMax float64
		var cores int
		for _, t := range temps {
			label, ok := cpuTempLabel(t.SensorKey)
			if !ok || t.Temperature <= 0 {
				continue
			}
			set(label, model.KindTemperature, t.Temperature)
			if label == "CPU Package" {
				continue
			}
			coreSum += t.Temperature
			if cores == 0 || t.Temperature > coreMax {
				coreMax = t.Temperature
			}
			cores++
		}
		if cores > 0 {
			set("Core Max", model.KindTemperature, coreMax)
			set("Core Average", model.KindTemperature, coreSum/float64(cores))
		}
	})
	return nil
}

// cpuPercents computes utilisation from the delta against the previous
// refresh. The first refresh has no baseline and reports -1.
func (h *Host) cpuPercents(ctx context.Context) (total float64, perCore []float64, err error) {
	times, err := cpu.TimesWithContext(ctx, false)
	if err != nil {
		return 0, nil, err
	}
	total = -1
	if len(times) > 0 {
		cur := times[0]
		curTotal := cur.Total()
		curIdle := cur.Idle + cur.Iowait
		if h.cpuState.prevTotal > 0 {
			dt := curTotal - h.cpuState.prevTotal
			di := curIdle - h.cpuState.prevIdle
			if dt > 0 {
				total = 100 * (1 - di/dt)
			}
		}
		h.cpuState.prevTotal, h.cpuState.prevIdle = curTotal, curIdle
	}

	coreTimes, err := cpu.TimesWithContext(ctx, true)
	if err != nil {
		return 0, nil, err
	}
	perCore = make([]float64, len(coreTimes))
	for i, c := range coreTimes {
		perCore[i] = -1
		if i >= len(h.cpuState.prevCore) {
			continue
		}
		prev := h.cpuState.prevCore[i]
		dt := c.Total() - prev.Total()
		di := (c.Idle + c.Iowait) - (prev.Idle + prev.Iowait)
		if dt > 0 {
			perCore[i] = 100 * (1 - di/dt)
		}
	}
	h.cpuState.prevCore = coreTimes
	return total, perCore, nil
}

func coreLabel(index int) string { return "CPU Core #" + strconv.Itoa(index) }

var (
	cpuChips    = []string{"coretemp", "k10temp", "zenpower"}
	coreIndexRe = regexp.MustCompile(`core_?(\d+)`)
)

// cpuTempLabel maps a gopsutil sensor key such as "coretemp_core0" or
// "k10temp_tctl" to the label the classifier expects.
func cpuTempLabel(key string) (string, bool) {
	key = strings.ToLower(key)
	chip := ""
	for _, c := range cpuChips {
		if strings.HasPrefix(key, c) {
			chip = c
			break
		}
	}
	if chip == "" {
		return "", false
	}
	rest := strings.NewReplacer("_", "", " ", "", "input", "").Replace(key[len(chip):])
	switch {
	case strings.HasPrefix(rest, "packageid"), rest == "tctl", rest == "tdie":
		return "CPU Package", true
	}
	if m := coreIndexRe.FindStringSubmatch(rest); m != nil {
		idx, err := strconv.Atoi(m[1])
		if err == nil {
			return coreLabel(idx + 1), true
		}
	}
	return "", false
}
