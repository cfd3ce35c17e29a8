package pci

import "github.com/ZZJJWarth/DragonOS/internal/device"

// Device is a device registered against the PCI bus. DynID is the
// concrete identification the matching engine compares with driver rules.
type Device interface {
	device.Device
	DynID() DeviceID
}

// Driver is a driver registered against the PCI bus. Probe is the
// driver's opportunity to reject a matched device; the remaining hooks
// are invoked on detach, power-down, power-up and system shutdown. A hook
// failure is reported to the caller without touching the bound-device
// list; the caller decides whether to DeleteDevice afterwards.
type Driver interface {
	device.Driver

	// AddDynID appends a runtime match rule. It always succeeds.
	AddDynID(id DeviceID)

	// DynIDList returns a snapshot of all rules, or nil if the driver
	// exposes no dynamic matching.
	DynIDList() []*DeviceID

	Probe(dev Device, id DeviceID) error
	Remove(dev Device) error
	Suspend(dev Device) error
	Resume(dev Device) error
	Shutdown(dev Device) error
}
