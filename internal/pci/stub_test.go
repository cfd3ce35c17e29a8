package pci

import (
	"github.com/ZZJJWarth/DragonOS/internal/device"
	"github.com/ZZJJWarth/DragonOS/internal/kobject"
	"github.com/ZZJJWarth/DragonOS/internal/sysfs"
)

// stubPCIDevice is a minimal pci.Device used by the engine tests. Its
// identity is fixed at construction and never drifts.
type stubPCIDevice struct {
	*device.Core

	table device.IdTable
	dynid DeviceID
}

func newStubPCIDevice(name string, dynid DeviceID) *stubPCIDevice {
	return &stubPCIDevice{
		Core:  device.NewCore(kobject.NewFixedBase(name)),
		table: device.NewIdTable(name),
		dynid: dynid,
	}
}

func (d *stubPCIDevice) DevType() device.Type    { return device.TypePCI }
func (d *stubPCIDevice) IDTable() device.IdTable { return d.table }
func (d *stubPCIDevice) DynID() DeviceID         { return d.dynid }

func (d *stubPCIDevice) AttributeGroups() []sysfs.AttributeGroup {
	return []sysfs.AttributeGroup{helloGroup{}}
}

// helloGroup/helloAttr mirror the introspection surface a real device
// exposes: one read-only attribute with a pending write path.
type helloGroup struct{}

func (helloGroup) Name() string                  { return "TestAttr" }
func (helloGroup) Attributes() []sysfs.Attribute { return []sysfs.Attribute{helloAttr{}} }

func (helloGroup) Visible(_ kobject.KObject, attr sysfs.Attribute) (sysfs.Mode, bool) {
	return attr.Mode(), true
}

type helloAttr struct{}

func (helloAttr) Name() string              { return "hello" }
func (helloAttr) Mode() sysfs.Mode          { return sysfs.ModeRO }
func (helloAttr) Support() sysfs.OpsSupport { return sysfs.SupportShow }

func (helloAttr) Show(_ kobject.KObject, buf []byte) (int, error) {
	return sysfs.Emit(buf, "Hello Pci")
}

func (helloAttr) Store(_ kobject.KObject, _ []byte) (int, error) {
	return 0, sysfs.ErrNotImplemented
}

// stubPCIDriver is a minimal pci.Driver whose probe behavior is scripted
// per test.
type stubPCIDriver struct {
	*DriverCore

	table    device.IdTable
	hasTable bool

	probeErr  error
	removeErr error

	probed  []Device
	removed []Device
}

func newStubPCIDriver(name string) *stubPCIDriver {
	return &stubPCIDriver{
		DriverCore: NewDriverCore(device.NewDriverCore(kobject.NewFixedBase(name))),
		table:      device.NewIdTable(name),
		hasTable:   true,
	}
}

func (d *stubPCIDriver) IDTable() (device.IdTable, bool) { return d.table, d.hasTable }

func (d *stubPCIDriver) Probe(dev Device, _ DeviceID) error {
	if d.probeErr != nil {
		return d.probeErr
	}
	d.probed = append(d.probed, dev)
	return nil
}

func (d *stubPCIDriver) Remove(dev Device) error {
	if d.removeErr != nil {
		return d.removeErr
	}
	d.removed = append(d.removed, dev)
	return nil
}

func (d *stubPCIDriver) Suspend(Device) error  { return nil }
func (d *stubPCIDriver) Resume(Device) error   { return nil }
func (d *stubPCIDriver) Shutdown(Device) error { return nil }

var (
	_ Device = (*stubPCIDevice)(nil)
	_ Driver = (*stubPCIDriver)(nil)
)
