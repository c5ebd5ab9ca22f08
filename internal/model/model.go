// Package model holds the hardware vocabulary shared by the sensor source,
// the classifier, and the aggregate store.
package model

// Category tags the kind of hardware a device represents.
type Category int

const (
	CategoryOther Category = iota
	CategoryCPU
	CategoryGPUNvidia
	CategoryGPUAMD
	CategoryGPUIntel
	CategoryMemory
	CategoryStorage
	CategoryNetwork
	CategoryBattery
)

var categoryNames = map[Category]string{
	CategoryOther:     "Other",
	CategoryCPU:       "Cpu",
	CategoryGPUNvidia: "GpuNvidia",
	CategoryGPUAMD:    "GpuAmd",
	CategoryGPUIntel:  "GpuIntel",
	CategoryMemory:    "Memory",
	CategoryStorage:   "Storage",
	CategoryNetwork:   "Network",
	CategoryBattery:   "Battery",
}

func (c Category) String() string {
	if s, ok := categoryNames[c]; ok {
		return s
	}
	return "Other"
}

// IsGPU reports whether c is one of the vendor GPU categories.
func (c Category) IsGPU() bool {
	return c == CategoryGPUNvidia || c == CategoryGPUAMD || c == CategoryGPUIntel
}

// Kind tags what a sensor measures.
type Kind int

const (
	KindOther Kind = iota
	KindLoad
	KindTemperature
	KindClock
	KindVoltage
	KindPower
	KindData
	KindThroughput
	KindFan
	KindLevel
)

var kindNames = map[Kind]string{
	KindOther:       "Other",
	KindLoad:        "Load",
	KindTemperature: "Temperature",
	KindClock:       "Clock",
	KindVoltage:     "Voltage",
	KindPower:       "Power",
	KindData:        "Data",
	KindThroughput:  "Throughput",
	KindFan:         "Fan",
	KindLevel:       "Level",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Other"
}

// MarshalText renders the kind by name so documents stay readable.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Reading is one available sensor value captured during a poll.
type Reading struct {
	Label string
	Kind  Kind
	Value float64
}
