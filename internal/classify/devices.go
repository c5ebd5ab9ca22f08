package classify

import "github.com/Dicklesworthstone/hwsnap/internal/model"

// GPU records every reading of a GPU device under its label.
func GPU(sensors map[string]model.GPUSensor, r model.Reading) bool {
	sensors[r.Label] = model.GPUSensor{Kind: r.Kind, Value: r.Value}
	return true
}

// Memory applies one memory reading.
func Memory(agg *model.Memory, r model.Reading) bool {
	switch r.Label {
	case "Memory Used":
		agg.MemoryUsed = r.Value
	case "Memory Available":
		agg.MemoryAvailable = r.Value
	case "Memory":
		agg.MemoryUtilization = r.Value
	case "Virtual Memory Used":
		agg.VirtualMemoryUsed = r.Value
	case "Virtual Memory Available":
		agg.VirtualMemoryAvailable = r.Value
	case "Virtual Memory":
		agg.VirtualMemoryUtilization = r.Value
	default:
		return false
	}
	return true
}

// Storage applies one storage reading.
func Storage(agg *model.StorageDevice, r model.Reading) bool {
	switch r.Label {
	case "Used Space":
		agg.UsedSpace = r.Value
	case "Read Activity":
		agg.ReadActivity = r.Value
	case "Write Activity":
		agg.WriteActivity = r.Value
	case "Total Activity":
		agg.TotalActivity = r.Value
	case "Read Rate":
		agg.ReadRate = r.Value
	case "Write Rate":
		agg.WriteRate = r.Value
	default:
		return false
	}
	return true
}

// Network applies one network reading.
func Network(agg *model.NetworkDevice, r model.Reading) bool {
	switch r.Label {
	case "Data Uploaded":
		agg.DataUploaded = r.Value
	case "Data Downloaded":
		agg.DataDownloaded = r.Value
	case "Upload Speed":
		agg.UploadSpeed = r.Value
	case "Download Speed":
		agg.DownloadSpeed = r.Value
	case "Network Utilization":
		agg.NetworkUtilization = r.Value
	default:
		return false
	}
	return true
}
