package source

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Dicklesworthstone/hwsnap/internal/model"
)

func batteryNames(sysRoot string) []string {
	paths, _ := filepath.Glob(filepath.Join(sysRoot, "class/power_supply/BAT*/capacity"))
	names := make([]string, 0, len(paths))
	for _, p := range paths {
		names = append(names, filepath.Base(filepath.Dir(p)))
	}
	return names
}

func refreshBattery(sysRoot string, n *Node) {
	base := filepath.Join(sysRoot, "class/power_supply", n.Name())
	n.Update(func(set func(string, model.Kind, float64)) {
		if v, ok := readSysfsFloat(filepath.Join(base, "capacity")); ok {
			set("Charge Level", model.KindLevel, v)
		}
		if v, ok := readSysfsFloat(filepath.Join(base, "voltage_now")); ok {
			set("Voltage", model.KindVoltage, v/1e6)
		}
		if v, ok := readSysfsFloat(filepath.Join(base, "power_now")); ok {
			set("Discharge Rate", model.KindPower, v/1e6)
		}
	})
}

func thermalZones(sysRoot string) []string {
	paths, _ := filepath.Glob(filepath.Join(sysRoot, "class/thermal/thermal_zone*/temp"))
	return paths
}

func refreshThermal(sysRoot string, n *Node) {
	paths := thermalZones(sysRoot)
	n.Update(func(set func(string, model.Kind, float64)) {
		for _, p := range paths {
			v, ok := readSysfsFloat(p)
			if !ok {
				continue
			}
			set(filepath.Base(filepath.Dir(p)), model.KindTemperature, v/1000)
		}
	})
}

func readSysfsString(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func readSysfsFloat(path string) (float64, bool) {
	s := readSysfsString(path)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func readSysfsInt(path string) int {
	v, err := strconv.Atoi(readSysfsString(path))
	if err != nil {
		return 0
	}
	return v
}
