package sampler

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/Dicklesworthstone/hwsnap/internal/source"
)

// Dump refreshes every device and writes one line per available sensor of
// each top-level device. The store is not touched.
func (s *Sampler) Dump(ctx context.Context, w io.Writer) error {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	devices, err := s.src.Devices(ctx)
	if err != nil {
		return fmt.Errorf("enumerate devices: %w", err)
	}
	for _, d := range devices {
		if err := source.RefreshTree(ctx, s.src, d); err != nil {
			return &PollError{Device: d.Name(), Err: err}
		}
		for _, sensor := range d.Sensors() {
			v, ok, err := sensor.Value()
			if err != nil {
				return &PollError{Device: d.Name(), Err: err}
			}
			if !ok {
				continue
			}
			_, err = fmt.Fprintf(w, "Hardware: %s, HardwareType: %s, Sensor: %s, Value: %s, Type: %s\n",
				d.Name(), d.Category(), sensor.Name(), strconv.FormatFloat(v, 'g', -1, 64), sensor.Kind())
			if err != nil {
				return err
			}
		}
	}
	return nil
}
