package virtio

import (
	"github.com/ZZJJWarth/DragonOS/internal/device"
	"github.com/ZZJJWarth/DragonOS/internal/pci"
)

// Transitional and modern PCI device IDs per subsystem.
const (
	pciDeviceIDNetLegacy = 0x1000
	pciDeviceIDBlkLegacy = 0x1001
	pciDeviceIDNetModern = ModernDeviceIDBase + uint16(DeviceTypeNetwork)
	pciDeviceIDBlkModern = ModernDeviceIDBase + uint16(DeviceTypeBlock)
)

// RegisterBlockDriver creates the virtio-blk driver and registers it on
// bus. Devices probed later (or already attached, eligible and unbound)
// bind to it through the matching engine.
func RegisterBlockDriver(bus *pci.Bus) (*Driver, error) {
	drv := NewDriver("virtio_blk",
		pci.NewDeviceID(VendorID, pciDeviceIDBlkLegacy),
		pci.NewDeviceID(VendorID, pciDeviceIDBlkModern),
	)
	return drv, bus.RegisterDriver(drv)
}

// RegisterNetDriver creates the virtio-net driver and registers it on bus.
func RegisterNetDriver(bus *pci.Bus) (*Driver, error) {
	drv := NewDriver("virtio_net",
		pci.NewDeviceID(VendorID, pciDeviceIDNetLegacy),
		pci.NewDeviceID(VendorID, pciDeviceIDNetModern),
	)
	return drv, bus.RegisterDriver(drv)
}

// BlockEntry returns the block subsystem entry point: it wraps the
// transport in a logical device and registers it against bus, where the
// matching engine binds it to the block driver.
func BlockEntry(bus *pci.Bus) Handler {
	return func(t Transport, id *device.ID) error {
		return bus.RegisterDevice(NewDevice(t, id))
	}
}

// NetEntry returns the network subsystem entry point.
func NetEntry(bus *pci.Bus) Handler {
	return func(t Transport, id *device.ID) error {
		return bus.RegisterDevice(NewDevice(t, id))
	}
}
