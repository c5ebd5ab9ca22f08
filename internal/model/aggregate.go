package model

// CPU is the process-lifetime CPU aggregate. Keyed maps accumulate across
// polls: labels seen once stay until the process exits.
type CPU struct {
	Name               string
	CPUUsage           float64
	MaxCoreUsage       float64
	MaxTemperature     float64
	PackageTemperature float64
	AverageTemperature float64
	BusSpeed           float64
	CPUVoltage         float64
	PackagePower       float64
	CoresPower         float64
	Cores              int
	Threads            int
	CoreLoad           map[string]float64
	CoreTemperature    map[string]float64
	CoreVoltage        map[string]float64
	CoreClock          map[string]float64
}

// NewCPU returns a zeroed CPU aggregate with its maps allocated.
func NewCPU() *CPU {
	return &CPU{
		CoreLoad:        make(map[string]float64),
		CoreTemperature: make(map[string]float64),
		CoreVoltage:     make(map[string]float64),
		CoreClock:       make(map[string]float64),
	}
}

// Clone returns a deep copy.
func (c *CPU) Clone() CPU {
	out := *c
	out.CoreLoad = cloneFloats(c.CoreLoad)
	out.CoreTemperature = cloneFloats(c.CoreTemperature)
	out.CoreVoltage = cloneFloats(c.CoreVoltage)
	out.CoreClock = cloneFloats(c.CoreClock)
	return out
}

// GPUSensor is one labelled reading of a GPU device.
type GPUSensor struct {
	Kind  Kind
	Value float64
}

// GPU maps device name to that device's readings keyed by sensor label.
type GPU map[string]map[string]GPUSensor

// Clone returns a deep copy.
func (g GPU) Clone() GPU {
	out := make(GPU, len(g))
	for dev, sensors := range g {
		inner := make(map[string]GPUSensor, len(sensors))
		for label, s := range sensors {
			inner[label] = s
		}
		out[dev] = inner
	}
	return out
}

// Memory is the single memory aggregate. The last memory device polled
// names it.
type Memory struct {
	Name                     string
	MemoryUsed               float64
	MemoryAvailable          float64
	MemoryUtilization        float64
	VirtualMemoryUsed        float64
	VirtualMemoryAvailable   float64
	VirtualMemoryUtilization float64
}

// StorageDevice is reset to zero at the start of every poll of its device.
type StorageDevice struct {
	UsedSpace     float64
	ReadActivity  float64
	WriteActivity float64
	TotalActivity float64
	ReadRate      float64
	WriteRate     float64
}

// Storage maps device name to its poll-local readings.
type Storage map[string]StorageDevice

// Clone returns a copy.
func (s Storage) Clone() Storage {
	out := make(Storage, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// NetworkDevice is reset to zero at the start of every poll of its device.
type NetworkDevice struct {
	DataUploaded       float64
	DataDownloaded     float64
	UploadSpeed        float64
	DownloadSpeed      float64
	NetworkUtilization float64
}

// Network maps device name to its poll-local readings.
type Network map[string]NetworkDevice

// Clone returns a copy.
func (n Network) Clone() Network {
	out := make(Network, len(n))
	for k, v := range n {
		out[k] = v
	}
	return out
}

func cloneFloats(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
