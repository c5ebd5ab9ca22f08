// Package store keeps the live aggregate records. Each category has its own
// lock; writers apply a whole device's readings in one critical section and
// readers always receive deep copies, so a reader never sees a record
// mixing two polls.
package store

import (
	"sync"

	"github.com/Dicklesworthstone/hwsnap/internal/model"
)

// Store owns one aggregate per category.
type Store struct {
	cpuMu sync.RWMutex
	cpu   *model.CPU

	gpuMu sync.RWMutex
	gpu   model.GPU

	memoryMu sync.RWMutex
	memory   model.Memory

	storageMu sync.RWMutex
	storage   model.Storage

	networkMu sync.RWMutex
	network   model.Network
}

// New returns an empty store.
func New() *Store {
	return &Store{
		cpu:     model.NewCPU(),
		gpu:     make(model.GPU),
		storage: make(model.Storage),
		network: make(model.Network),
	}
}

// UpdateCPU runs fn on the live CPU aggregate under its write lock.
func (s *Store) UpdateCPU(fn func(*model.CPU)) {
	s.cpuMu.Lock()
	defer s.cpuMu.Unlock()
	fn(s.cpu)
}

// CPU returns a copy of the CPU aggregate.
func (s *Store) CPU() model.CPU {
	s.cpuMu.RLock()
	defer s.cpuMu.RUnlock()
	return s.cpu.Clone()
}

// SetGPU replaces the readings of one GPU device. The map is owned by the
// store afterwards.
func (s *Store) SetGPU(device string, sensors map[string]model.GPUSensor) {
	s.gpuMu.Lock()
	defer s.gpuMu.Unlock()
	s.gpu[device] = sensors
}

// GPU returns a copy of every GPU device's readings.
func (s *Store) GPU() model.GPU {
	s.gpuMu.RLock()
	defer s.gpuMu.RUnlock()
	return s.gpu.Clone()
}

// UpdateMemory runs fn on the live memory aggregate under its write lock.
func (s *Store) UpdateMemory(fn func(*model.Memory)) {
	s.memoryMu.Lock()
	defer s.memoryMu.Unlock()
	fn(&s.memory)
}

// Memory returns a copy of the memory aggregate.
func (s *Store) Memory() model.Memory {
	s.memoryMu.RLock()
	defer s.memoryMu.RUnlock()
	return s.memory
}

// SetStorage replaces one storage device record.
func (s *Store) SetStorage(device string, rec model.StorageDevice) {
	s.storageMu.Lock()
	defer s.storageMu.Unlock()
	s.storage[device] = rec
}

// Storage returns a copy of every storage device record.
func (s *Store) Storage() model.Storage {
	s.storageMu.RLock()
	defer s.storageMu.RUnlock()
	return s.storage.Clone()
}

// SetNetwork replaces one network device record.
func (s *Store) SetNetwork(device string, rec model.NetworkDevice) {
	s.networkMu.Lock()
	defer s.networkMu.Unlock()
	s.network[device] = rec
}

// Network returns a copy of every network device record.
func (s *Store) Network() model.Network {
	s.networkMu.RLock()
	defer s.networkMu.RUnlock()
	return s.network.Clone()
}
