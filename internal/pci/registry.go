package pci

import "sync"

// Registry is the process-wide collection of enumerated PCI functions.
//
// Lock ordering: the registry lock is leaf-most. It must never be held
// while invoking a subsystem entry point or any per-device/per-driver
// lock, so reentrant registration cannot deadlock. Queries therefore
// return snapshots taken under the lock.
type Registry struct {
	mu      sync.RWMutex
	devices []*RawDevice
}

// NewRegistry creates an empty registry. Production code normally uses
// the process-wide DeviceList; tests build their own.
func NewRegistry() *Registry { return &Registry{} }

// Add appends a descriptor in discovery order.
func (r *Registry) Add(d *RawDevice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices = append(r.devices, d)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// Devices returns a snapshot of all descriptors in discovery order.
func (r *Registry) Devices() []*RawDevice {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*RawDevice, len(r.devices))
	copy(out, r.devices)
	return out
}

// DevicesByVendor returns the descriptors with the given vendor ID, in
// discovery order. The lock is released before the caller touches the
// returned descriptors.
func (r *Registry) DevicesByVendor(vendor uint16) []*RawDevice {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*RawDevice
	for _, d := range r.devices {
		if d.Header.Vendor == vendor {
			out = append(out, d)
		}
	}
	return out
}

var (
	deviceListOnce sync.Once
	deviceList     *Registry
)

// DeviceList returns the process-wide registry. This is the single
// initialization point for the global device list.
func DeviceList() *Registry {
	deviceListOnce.Do(func() {
		deviceList = NewRegistry()
	})
	return deviceList
}
