// Package sourcetest provides a scripted in-memory sensor source with call
// counters for sampler and monitor tests.
package sourcetest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/Dicklesworthstone/hwsnap/internal/model"
	"github.com/Dicklesworthstone/hwsnap/internal/source"
)

// Sensor is one scripted reading. Missing sensors report no value.
type Sensor struct {
	Label   string
	Kind    model.Kind
	Value   float64
	Missing bool
}

// Source is a scripted source.Source.
type Source struct {
	mu      sync.Mutex
	devices []*Device
	closed  bool

	// DevicesErr is returned by Devices when set.
	DevicesErr error
	// BeforeRefresh runs at the start of every Refresh. A non-nil error
	// fails the refresh.
	BeforeRefresh func(ctx context.Context, d *Device) error

	refreshes atomic.Int64
	values    atomic.Int64
}

// New returns a source exposing devices in order.
func New(devices ...*Device) *Source {
	s := &Source{}
	for _, d := range devices {
		s.Add(d)
	}
	return s
}

// Add appends a top-level device.
func (s *Source) Add(d *Device) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.attach(s)
	s.devices = append(s.devices, d)
}

func (s *Source) Devices(ctx context.Context) ([]source.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.New("sourcetest: closed")
	}
	if s.DevicesErr != nil {
		return nil, s.DevicesErr
	}
	out := make([]source.Device, len(s.devices))
	for i, d := range s.devices {
		out[i] = d
	}
	return out, nil
}

func (s *Source) Refresh(ctx context.Context, d source.Device) error {
	dev, ok := d.(*Device)
	if !ok {
		return errors.New("sourcetest: foreign device")
	}
	s.refreshes.Add(1)
	dev.refreshes.Add(1)
	if s.BeforeRefresh != nil {
		if err := s.BeforeRefresh(ctx, dev); err != nil {
			return err
		}
	}
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.Err != nil {
		return dev.Err
	}
	dev.current = append([]Sensor(nil), dev.next...)
	dev.refreshed = true
	return nil
}

func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *Source) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Refreshes returns the total number of Refresh calls.
func (s *Source) Refreshes() int { return int(s.refreshes.Load()) }

// ValueReads returns the total number of Sensor.Value calls.
func (s *Source) ValueReads() int { return int(s.values.Load()) }

// Device is a scripted source.Device. Set scripts the readings the next
// refresh publishes; the script persists until replaced.
type Device struct {
	name     string
	category model.Category
	children []*Device
	src      *Source

	refreshes atomic.Int64

	mu        sync.Mutex
	next      []Sensor
	current   []Sensor
	refreshed bool
	// Err fails every refresh of this device while set.
	Err error
}

// NewDevice returns a device with no sensors.
func NewDevice(name string, category model.Category, children ...*Device) *Device {
	return &Device{name: name, category: category, children: children}
}

func (d *Device) attach(s *Source) {
	d.src = s
	for _, c := range d.children {
		c.attach(s)
	}
}

// Set replaces the readings published by the next refresh.
func (d *Device) Set(sensors ...Sensor) *Device {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.next = append([]Sensor(nil), sensors...)
	return d
}

// Fail makes subsequent refreshes return err (nil clears it).
func (d *Device) Fail(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Err = err
}

// Refreshes returns how often this device was refreshed.
func (d *Device) Refreshes() int { return int(d.refreshes.Load()) }

func (d *Device) Name() string             { return d.name }
func (d *Device) Category() model.Category { return d.category }

func (d *Device) Children() []source.Device {
	out := make([]source.Device, len(d.children))
	for i, c := range d.children {
		out[i] = c
	}
	return out
}

func (d *Device) Sensors() []source.Sensor {
	d.mu.Lock()
	defer d.mu.Unlock()
	list := d.current
	if !d.refreshed {
		list = d.next
	}
	out := make([]source.Sensor, len(list))
	for i, s := range list {
		out[i] = &sensor{dev: d, spec: s}
	}
	return out
}

type sensor struct {
	dev  *Device
	spec Sensor
}

func (s *sensor) Name() string     { return s.spec.Label }
func (s *sensor) Kind() model.Kind { return s.spec.Kind }

func (s *sensor) Value() (float64, bool, error) {
	if s.dev.src != nil {
		s.dev.src.values.Add(1)
	}
	s.dev.mu.Lock()
	refreshed := s.dev.refreshed
	s.dev.mu.Unlock()
	if !refreshed {
		return 0, false, source.ErrStale
	}
	if s.spec.Missing {
		return 0, false, nil
	}
	return s.spec.Value, true, nil
}
