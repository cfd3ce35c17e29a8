package pci

import (
	"sync"

	"github.com/ZZJJWarth/DragonOS/internal/device"
)

// DriverCore extends the generic driver state with the dynamic-ID list.
// Rules are stored as shared immutable instances so several match tables
// can reference one registration without copying.
type DriverCore struct {
	*device.DriverCore

	dynMu  sync.Mutex
	dynids []*DeviceID
}

func NewDriverCore(inner *device.DriverCore) *DriverCore {
	return &DriverCore{DriverCore: inner}
}

// AddDynID appends a runtime match rule.
func (c *DriverCore) AddDynID(id DeviceID) {
	c.dynMu.Lock()
	defer c.dynMu.Unlock()
	rule := id
	c.dynids = append(c.dynids, &rule)
}

// DynIDList returns a snapshot of the registered rules, preserving
// insertion order so repeated scans are deterministic.
func (c *DriverCore) DynIDList() []*DeviceID {
	c.dynMu.Lock()
	defer c.dynMu.Unlock()
	out := make([]*DeviceID, len(c.dynids))
	copy(out, c.dynids)
	return out
}
