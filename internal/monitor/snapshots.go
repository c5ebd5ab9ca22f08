package monitor

func (m *Monitor) CPUSnapshot() ([]byte, error) {
	return m.render(func() ([]byte, error) { return m.encoder.CPU(m.store.CPU()) })
}

func (m *Monitor) GPUSnapshot() ([]byte, error) {
	return m.render(func() ([]byte, error) { return m.encoder.GPU(m.store.GPU()) })
}

func (m *Monitor) MemorySnapshot() ([]byte, error) {
	return m.render(func() ([]byte, error) { return m.encoder.Memory(m.store.Memory()) })
}

func (m *Monitor) StorageSnapshot() ([]byte, error) {
	return m.render(func() ([]byte, error) { return m.encoder.Storage(m.store.Storage()) })
}

func (m *Monitor) NetworkSnapshot() ([]byte, error) {
	return m.render(func() ([]byte, error) { return m.encoder.Network(m.store.Network()) })
}

// AllSnapshot renders every category into one document.
func (m *Monitor) AllSnapshot() ([]byte, error) {
	return m.render(func() ([]byte, error) { return m.encoder.All(m.store) })
}

func (m *Monitor) render(fn func() ([]byte, error)) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	return fn()
}
