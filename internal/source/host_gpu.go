package source

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Dicklesworthstone/hwsnap/internal/model"
)

const nvidiaTimeout = 400 * time.Millisecond

// nvidiaFields are queried in this order; each maps to one sensor. GPU
// readings are keyed by label alone, so labels must not repeat.
var nvidiaFields = []struct {
	query string
	label string
	kind  model.Kind
}{
	{"utilization.gpu", "GPU Core Load", model.KindLoad},
	{"utilization.memory", "GPU Memory Controller", model.KindLoad},
	{"temperature.gpu", "GPU Temperature", model.KindTemperature},
	{"clocks.gr", "GPU Core Clock", model.KindClock},
	{"clocks.mem", "GPU Memory Clock", model.KindClock},
	{"power.draw", "GPU Package", model.KindPower},
	{"memory.used", "GPU Memory Used", model.KindData},
	{"memory.total", "GPU Memory Total", model.KindData},
	{"fan.speed", "GPU Fan", model.KindFan},
}

func (h *Host) enumerateGPUs(ctx context.Context) []Device {
	out, err := runCmd(ctx, nvidiaTimeout, "nvidia-smi",
		"--query-gpu=index,name", "--format=csv,noheader,nounits")
	if err != nil || out == "" {
		return nil
	}
	var devices []Device
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		parts := strings.SplitN(sc.Text(), ",", 2)
		if len(parts) < 2 {
			continue
		}
		idx := strings.TrimSpace(parts[0])
		n := nodeFor(h.gpus, idx, model.CategoryGPUNvidia)
		if n.Name() != strings.TrimSpace(parts[1]) {
			n = NewNode(strings.TrimSpace(parts[1]), model.CategoryGPUNvidia)
			h.gpus[idx] = n
		}
		h.gpuIndex[n] = idx
		devices = append(devices, n)
	}
	return devices
}

func (h *Host) refreshGPU(ctx context.Context, n *Node) error {
	idx, ok := h.gpuIndex[n]
	if !ok {
		return fmt.Errorf("refresh %q: unknown gpu", n.Name())
	}
	queries := make([]string, len(nvidiaFields))
	for i, f := range nvidiaFields {
		queries[i] = f.query
	}
	out, err := runCmd(ctx, nvidiaTimeout, "nvidia-smi", "--id="+idx,
		"--query-gpu="+strings.Join(queries, ","), "--format=csv,noheader,nounits")
	if err != nil {
		h.unavailable(n, "nvidia-smi did not answer", err)
		return nil
	}
	values := parseNvidiaRow(strings.TrimSpace(out), len(nvidiaFields))
	if values == nil {
		h.log.Debug("unexpected nvidia-smi output", zap.String("gpu", n.Name()), zap.String("output", out))
	}

	n.Update(func(set func(string, model.Kind, float64)) {
		for i, v := range values {
			if v == nil {
				continue
			}
			set(nvidiaFields[i].label, nvidiaFields[i].kind, *v)
		}
	})
	return nil
}

// parseNvidiaRow splits one CSV row into want values. Fields nvidia-smi
// reports as "[N/A]" or "[Not Supported]" come back nil.
func parseNvidiaRow(line string, want int) []*float64 {
	if line == "" {
		return nil
	}
	parts := strings.Split(strings.SplitN(line, "\n", 2)[0], ",")
	if len(parts) != want {
		return nil
	}
	values := make([]*float64, want)
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if strings.HasPrefix(p, "[") {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			continue
		}
		values[i] = &v
	}
	return values
}

func runCmd(ctx context.Context, timeout time.Duration, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if ctx.Err() == context.DeadlineExceeded {
		return "", ctx.Err()
	}
	return string(out), err
}
