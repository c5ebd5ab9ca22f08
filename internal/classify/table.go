// Package classify maps raw sensor readings onto the per-category
// aggregate records by device category, sensor kind and label.
package classify

import "github.com/Dicklesworthstone/hwsnap/internal/model"

// Family names the aggregate a device category feeds.
type Family int

const (
	// FamilyNone is recognised but produces no assignment.
	FamilyNone Family = iota
	FamilyCPU
	FamilyGPU
	FamilyMemory
	FamilyStorage
	FamilyNetwork
)

func (f Family) String() string {
	switch f {
	case FamilyCPU:
		return "cpu"
	case FamilyGPU:
		return "gpu"
	case FamilyMemory:
		return "memory"
	case FamilyStorage:
		return "storage"
	case FamilyNetwork:
		return "network"
	}
	return "none"
}

// Table routes device categories to families. It is built once and never
// mutated afterwards.
type Table struct {
	families map[model.Category]Family
}

var defaultFamilies = map[model.Category]Family{
	model.CategoryCPU:       FamilyCPU,
	model.CategoryGPUNvidia: FamilyGPU,
	model.CategoryGPUAMD:    FamilyGPU,
	model.CategoryGPUIntel:  FamilyGPU,
	model.CategoryMemory:    FamilyMemory,
	model.CategoryStorage:   FamilyStorage,
	model.CategoryNetwork:   FamilyNetwork,
	model.CategoryBattery:   FamilyNone,
	model.CategoryOther:     FamilyNone,
}

// NewTable builds a table. Families for which enabled returns false route
// to FamilyNone. A nil enabled keeps every family.
func NewTable(enabled func(Family) bool) *Table {
	t := &Table{families: make(map[model.Category]Family, len(defaultFamilies))}
	for cat, fam := range defaultFamilies {
		if enabled != nil && fam != FamilyNone && !enabled(fam) {
			fam = FamilyNone
		}
		t.families[cat] = fam
	}
	return t
}

// Family returns the family for c. Unknown categories map to FamilyNone.
func (t *Table) Family(c model.Category) Family {
	return t.families[c]
}
