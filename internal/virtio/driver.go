package virtio

import (
	"fmt"

	"github.com/ZZJJWarth/DragonOS/internal/device"
	"github.com/ZZJJWarth/DragonOS/internal/kobject"
	"github.com/ZZJJWarth/DragonOS/internal/pci"
	"github.com/ZZJJWarth/DragonOS/internal/sysfs"
)

// Driver is a virtio subsystem driver registered against the PCI bus. The
// subsystem entry points create one per subsystem and let the matching
// engine hand it the devices whose identification its rules accept.
type Driver struct {
	*pci.DriverCore
	table device.IdTable
}

// NewDriver creates a driver with a fixed identity and the given match
// rules.
func NewDriver(name string, rules ...pci.DeviceID) *Driver {
	d := &Driver{
		DriverCore: pci.NewDriverCore(device.NewDriverCore(kobject.NewFixedBase(name))),
		table:      device.NewIdTable(name),
	}
	for _, r := range rules {
		d.AddDynID(r)
	}
	return d
}

func (d *Driver) IDTable() (device.IdTable, bool) { return d.table, true }

// Probe accepts every device the match rules admitted; the transport was
// already validated during construction.
func (d *Driver) Probe(dev pci.Device, _ pci.DeviceID) error {
	if _, ok := dev.(*Device); !ok {
		return fmt.Errorf("virtio: %q is not a virtio device", dev.Name())
	}
	return nil
}

func (d *Driver) Remove(pci.Device) error   { return nil }
func (d *Driver) Suspend(pci.Device) error  { return nil }
func (d *Driver) Resume(pci.Device) error   { return nil }
func (d *Driver) Shutdown(pci.Device) error { return nil }

var _ pci.Driver = (*Driver)(nil)

// Device is the logical virtio device a subsystem entry point registers
// once probing produced a transport for it.
type Device struct {
	*device.Core

	transport Transport
	id        *device.ID
	table     device.IdTable
	dynid     pci.DeviceID
}

// NewDevice wraps a transport in a bus-registrable device.
func NewDevice(t Transport, id *device.ID) *Device {
	name := fmt.Sprintf("virtio-%s-%s", t.DeviceType(), id)
	d := &Device{
		Core:      device.NewCore(kobject.NewFixedBase(name)),
		transport: t,
		id:        id,
		table:     device.NewIdTable(name),
	}
	if pt, ok := t.(*PCITransport); ok {
		d.dynid = pt.Raw().ID()
	} else {
		// MMIO devices present the modern PCI identification their
		// device type would map to, so one rule set covers both
		// transports.
		d.dynid = pci.DeviceID{
			Vendor: VendorID,
			Device: uint32(ModernDeviceIDBase + uint16(t.DeviceType())),
		}
	}
	return d
}

func (d *Device) Transport() Transport { return d.transport }
func (d *Device) ID() *device.ID       { return d.id }

func (d *Device) DevType() device.Type {
	switch d.transport.DeviceType() {
	case DeviceTypeBlock:
		return device.TypeBlock
	case DeviceTypeNetwork:
		return device.TypeNet
	default:
		return device.TypePCI
	}
}

func (d *Device) IDTable() device.IdTable { return d.table }
func (d *Device) DynID() pci.DeviceID     { return d.dynid }

func (d *Device) AttributeGroups() []sysfs.AttributeGroup {
	return []sysfs.AttributeGroup{deviceGroup{dev: d}}
}

var _ pci.Device = (*Device)(nil)

// deviceGroup exposes the transport identification of one virtio device.
type deviceGroup struct {
	dev *Device
}

func (deviceGroup) Name() string { return "virtio" }

func (g deviceGroup) Attributes() []sysfs.Attribute {
	return []sysfs.Attribute{
		deviceTypeAttr{dev: g.dev},
		featuresAttr{dev: g.dev},
		transportAttr{dev: g.dev},
	}
}

func (g deviceGroup) Visible(_ kobject.KObject, attr sysfs.Attribute) (sysfs.Mode, bool) {
	return attr.Mode(), true
}

type deviceTypeAttr struct {
	dev *Device
}

func (deviceTypeAttr) Name() string              { return "device_type" }
func (deviceTypeAttr) Mode() sysfs.Mode          { return sysfs.ModeRO }
func (deviceTypeAttr) Support() sysfs.OpsSupport { return sysfs.SupportShow }

func (a deviceTypeAttr) Show(_ kobject.KObject, buf []byte) (int, error) {
	return sysfs.Emit(buf, a.dev.transport.DeviceType().String()+"\n")
}

func (a deviceTypeAttr) Store(_ kobject.KObject, _ []byte) (int, error) {
	return 0, sysfs.ErrNotImplemented
}

type featuresAttr struct {
	dev *Device
}

func (featuresAttr) Name() string              { return "features" }
func (featuresAttr) Mode() sysfs.Mode          { return sysfs.ModeRO }
func (featuresAttr) Support() sysfs.OpsSupport { return sysfs.SupportShow }

func (a featuresAttr) Show(_ kobject.KObject, buf []byte) (int, error) {
	return sysfs.EmitHex(buf, a.dev.transport.DeviceFeatures(), 16)
}

func (a featuresAttr) Store(_ kobject.KObject, _ []byte) (int, error) {
	return 0, sysfs.ErrNotImplemented
}

type transportAttr struct {
	dev *Device
}

func (transportAttr) Name() string              { return "transport" }
func (transportAttr) Mode() sysfs.Mode          { return sysfs.ModeRO }
func (transportAttr) Support() sysfs.OpsSupport { return sysfs.SupportShow }

func (a transportAttr) Show(_ kobject.KObject, buf []byte) (int, error) {
	return sysfs.Emit(buf, a.dev.transport.Kind().String()+"\n")
}

func (a transportAttr) Store(_ kobject.KObject, _ []byte) (int, error) {
	return 0, sysfs.ErrNotImplemented
}
