package source

import (
	"sync"

	"github.com/Dicklesworthstone/hwsnap/internal/model"
)

// Node is a mutable Device whose readings are written by a backend during
// refresh. Sensors keep their first-seen order; a sensor not set during a
// refresh becomes unavailable until it is set again.
type Node struct {
	name     string
	category model.Category
	children []Device

	mu        sync.RWMutex
	refreshed bool
	sensors   []*nodeSensor
	index     map[sensorKey]*nodeSensor
}

type sensorKey struct {
	label string
	kind  model.Kind
}

type nodeSensor struct {
	owner *Node
	label string
	kind  model.Kind
	value float64
	ok    bool
}

// NewNode returns an empty node.
func NewNode(name string, category model.Category, children ...Device) *Node {
	return &Node{
		name:     name,
		category: category,
		children: children,
		index:    make(map[sensorKey]*nodeSensor),
	}
}

func (n *Node) Name() string             { return n.name }
func (n *Node) Category() model.Category { return n.category }
func (n *Node) Children() []Device       { return n.children }

// Sensors returns the node's sensors in first-seen order.
func (n *Node) Sensors() []Sensor {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]Sensor, len(n.sensors))
	for i, s := range n.sensors {
		out[i] = s
	}
	return out
}

// Update runs fn with a writer for this node's readings. Every sensor not
// set inside fn is marked unavailable afterwards.
func (n *Node) Update(fn func(set func(label string, kind model.Kind, value float64))) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, s := range n.sensors {
		s.ok = false
	}
	fn(func(label string, kind model.Kind, value float64) {
		key := sensorKey{label: label, kind: kind}
		s, ok := n.index[key]
		if !ok {
			s = &nodeSensor{owner: n, label: label, kind: kind}
			n.index[key] = s
			n.sensors = append(n.sensors, s)
		}
		s.value = value
		s.ok = true
	})
	n.refreshed = true
}

func (s *nodeSensor) Name() string     { return s.label }
func (s *nodeSensor) Kind() model.Kind { return s.kind }

func (s *nodeSensor) Value() (float64, bool, error) {
	s.owner.mu.RLock()
	defer s.owner.mu.RUnlock()
	if !s.owner.refreshed {
		return 0, false, ErrStale
	}
	return s.value, s.ok, nil
}
