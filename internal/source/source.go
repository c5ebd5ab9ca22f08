// Package source defines the hardware sensor source the sampler polls and
// provides a gopsutil-backed implementation for the local host.
package source

import (
	"context"
	"errors"

	"github.com/Dicklesworthstone/hwsnap/internal/model"
)

// ErrStale is returned by Sensor.Value when the owning device has not been
// refreshed yet.
var ErrStale = errors.New("sensor read before device refresh")

// Source enumerates devices and refreshes their readings.
type Source interface {
	// Devices returns the top-level devices in enumeration order.
	Devices(ctx context.Context) ([]Device, error)

	// Refresh updates the readings of d. It does not touch d's children;
	// callers walk the tree themselves.
	Refresh(ctx context.Context, d Device) error

	// Close releases backend resources.
	Close() error
}

// Device is one hardware component exposing sensors.
type Device interface {
	Name() string
	Category() model.Category
	Sensors() []Sensor
	Children() []Device
}

// Sensor is a single named, typed reading.
type Sensor interface {
	Name() string
	Kind() model.Kind
	// Value returns the reading captured by the latest refresh. ok is false
	// when the sensor is currently unavailable.
	Value() (value float64, ok bool, err error)
}

// RefreshTree refreshes d and then every descendant depth first.
func RefreshTree(ctx context.Context, src Source, d Device) error {
	if err := src.Refresh(ctx, d); err != nil {
		return err
	}
	for _, child := range d.Children() {
		if err := RefreshTree(ctx, src, child); err != nil {
			return err
		}
	}
	return nil
}
