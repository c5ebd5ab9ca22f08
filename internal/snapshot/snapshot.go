// Package snapshot renders aggregates into JSON documents. Rendering the
// same state twice yields identical bytes: map keys are emitted sorted.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Dicklesworthstone/hwsnap/internal/model"
	"github.com/Dicklesworthstone/hwsnap/internal/store"
)

// DefaultIndent is the indentation width used by NewEncoder(0).
const DefaultIndent = 4

// EncodeError reports a render failure. No partial document is returned.
type EncodeError struct {
	Category string
	Err      error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s snapshot: %v", e.Category, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// Encoder renders snapshot documents.
type Encoder struct {
	indent string
}

// NewEncoder returns an encoder indenting by width spaces. Zero selects
// DefaultIndent; a negative width renders compact documents.
func NewEncoder(width int) *Encoder {
	if width == 0 {
		width = DefaultIndent
	}
	if width < 0 {
		width = 0
	}
	return &Encoder{indent: strings.Repeat(" ", width)}
}

func (e *Encoder) CPU(c model.CPU) ([]byte, error) {
	return e.encode("cpu", newCPUDoc(c))
}

func (e *Encoder) GPU(g model.GPU) ([]byte, error) {
	return e.encode("gpu", newGPUDoc(g))
}

func (e *Encoder) Memory(m model.Memory) ([]byte, error) {
	return e.encode("memory", newMemoryDoc(m))
}

func (e *Encoder) Storage(s model.Storage) ([]byte, error) {
	return e.encode("storage", newStorageDoc(s))
}

func (e *Encoder) Network(n model.Network) ([]byte, error) {
	return e.encode("network", newNetworkDoc(n))
}

// All renders every category of st into one document. Each category is
// copied under its own lock.
func (e *Encoder) All(st *store.Store) ([]byte, error) {
	return e.encode("all", allDoc{
		CPU:     newCPUDoc(st.CPU()),
		GPU:     newGPUDoc(st.GPU()),
		Memory:  newMemoryDoc(st.Memory()),
		Storage: newStorageDoc(st.Storage()),
		Network: newNetworkDoc(st.Network()),
	})
}

func (e *Encoder) encode(category string, doc any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if e.indent != "" {
		enc.SetIndent("", e.indent)
	}
	if err := enc.Encode(doc); err != nil {
		return nil, &EncodeError{Category: category, Err: err}
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
