package snapshot

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/Dicklesworthstone/hwsnap/internal/model"
)

// The json tags below are the wire contract consumed by clients.

type cpuDoc struct {
	Name               string             `json:"Name"`
	CPUUsage           float64            `json:"CPUUsage"`
	MaxCoreUsage       float64            `json:"MaxCoreUsage"`
	CoreLoad           map[string]float64 `json:"CoreLoad"`
	CoreTemperature    map[string]float64 `json:"CoreTemperature"`
	CoreVoltage        map[string]float64 `json:"CoreVoltage"`
	CoreClock          map[string]float64 `json:"CoreClock"`
	MaxTemperature     float64            `json:"MaxTemperature"`
	PackageTemperature float64            `json:"PackageTemperature"`
	AverageTemperature float64            `json:"AverageTemperature"`
	BusSpeed           float64            `json:"BusSpeed"`
	CPUVoltage         float64            `json:"CPUVoltage"`
	PackagePower       float64            `json:"PackagePower"`
	CoresPower         float64            `json:"CoresPower"`
	Cores              int                `json:"Cores"`
	Threads            int                `json:"Threads"`
}

type gpuSensorDoc struct {
	Type  model.Kind `json:"type"`
	Value float64    `json:"value"`
}

type memoryDoc struct {
	Name                     string  `json:"name"`
	MemoryUsed               float64 `json:"memoryUsed"`
	MemoryAvailable          float64 `json:"memoryAvailable"`
	MemoryUtilization        float64 `json:"memoryUtilization"`
	VirtualMemoryUsed        float64 `json:"virtualMemoryUsed"`
	VirtualMemoryAvailable   float64 `json:"virtualMemoryAvailable"`
	VirtualMemoryUtilization float64 `json:"virtualMemoryUtilization"`
}

type storageDoc struct {
	UsedSpace     float64 `json:"usedSpace"`
	ReadActivity  float64 `json:"readActivity"`
	WriteActivity float64 `json:"writeActivity"`
	TotalActivity float64 `json:"totalActivity"`
	ReadRate      float64 `json:"readRate"`
	WriteRate     float64 `json:"writeRate"`
}

type networkDoc struct {
	DataUploaded       float64 `json:"dataUploaded"`
	DataDownloaded     float64 `json:"dataDownloaded"`
	UploadSpeed        float64 `json:"uploadSpeed"`
	DownloadSpeed      float64 `json:"downloadSpeed"`
	NetworkUtilization float64 `json:"networkUtilization"`
}

type allDoc struct {
	CPU     cpuDoc                             `json:"CPU"`
	GPU     map[string]map[string]gpuSensorDoc `json:"GPU"`
	Memory  memoryDoc                          `json:"Memory"`
	Storage map[string]storageDoc              `json:"Storage"`
	Network map[string]networkDoc              `json:"Network"`
}

func newCPUDoc(c model.CPU) cpuDoc {
	return cpuDoc{
		Name:               text(c.Name),
		CPUUsage:           c.CPUUsage,
		MaxCoreUsage:       c.MaxCoreUsage,
		CoreLoad:           floats(c.CoreLoad),
		CoreTemperature:    floats(c.CoreTemperature),
		CoreVoltage:        floats(c.CoreVoltage),
		CoreClock:          floats(c.CoreClock),
		MaxTemperature:     c.MaxTemperature,
		PackageTemperature: c.PackageTemperature,
		AverageTemperature: c.AverageTemperature,
		BusSpeed:           c.BusSpeed,
		CPUVoltage:         c.CPUVoltage,
		PackagePower:       c.PackagePower,
		CoresPower:         c.CoresPower,
		Cores:              c.Cores,
		Threads:            c.Threads,
	}
}

func newGPUDoc(g model.GPU) map[string]map[string]gpuSensorDoc {
	out := make(map[string]map[string]gpuSensorDoc, len(g))
	for dev, sensors := range g {
		inner := make(map[string]gpuSensorDoc, len(sensors))
		for label, s := range sensors {
			inner[text(label)] = gpuSensorDoc{Type: s.Kind, Value: s.Value}
		}
		out[text(dev)] = inner
	}
	return out
}

func newMemoryDoc(m model.Memory) memoryDoc {
	return memoryDoc{
		Name:                     text(m.Name),
		MemoryUsed:               m.MemoryUsed,
		MemoryAvailable:          m.MemoryAvailable,
		MemoryUtilization:        m.MemoryUtilization,
		VirtualMemoryUsed:        m.VirtualMemoryUsed,
		VirtualMemoryAvailable:   m.VirtualMemoryAvailable,
		VirtualMemoryUtilization: m.VirtualMemoryUtilization,
	}
}

func newStorageDoc(s model.Storage) map[string]storageDoc {
	out := make(map[string]storageDoc, len(s))
	for dev, d := range s {
		out[text(dev)] = storageDoc(d)
	}
	return out
}

func newNetworkDoc(n model.Network) map[string]networkDoc {
	out := make(map[string]networkDoc, len(n))
	for dev, d := range n {
		out[text(dev)] = networkDoc(d)
	}
	return out
}

func floats(m map[string]float64) map[string]float64 {
	if m == nil {
		return map[string]float64{}
	}
	return m
}

// text makes backend-provided names valid NFC UTF-8. Invalid bytes become
// U+FFFD; escaping is left to the encoder.
func text(s string) string {
	return norm.NFC.String(strings.ToValidUTF8(s, "\uFFFD"))
}
