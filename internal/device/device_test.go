package device

import (
	"errors"
	"testing"

	"github.com/ZZJJWarth/DragonOS/internal/kobject"
	"github.com/ZZJJWarth/DragonOS/internal/sysfs"
)

type stubDevice struct {
	*Core
}

func newStubDevice(name string) *stubDevice {
	return &stubDevice{Core: NewCore(kobject.NewBase(name))}
}

func (d *stubDevice) DevType() Type                           { return TypePCI }
func (d *stubDevice) IDTable() IdTable                        { return NewIdTable(d.Name()) }
func (d *stubDevice) AttributeGroups() []sysfs.AttributeGroup { return nil }

type stubDriver struct {
	*DriverCore
}

func newStubDriver(name string) *stubDriver {
	return &stubDriver{DriverCore: NewDriverCore(kobject.NewBase(name))}
}

func (d *stubDriver) IDTable() (IdTable, bool) { return NewIdTable(d.Name()), true }

var (
	_ Device = (*stubDevice)(nil)
	_ Driver = (*stubDriver)(nil)
)

func TestAddDeviceIdempotent(t *testing.T) {
	drv := newStubDriver("drv")
	dev := newStubDevice("dev0")

	drv.AddDevice(dev)
	drv.AddDevice(dev)
	if got := len(drv.Devices()); got != 1 {
		t.Fatalf("bound set has %d entries, want 1", got)
	}
	if !kobject.Same(drv.Devices()[0], dev) {
		t.Fatal("bound set holds a different device")
	}
}

func TestDeleteDeviceSymmetric(t *testing.T) {
	drv := newStubDriver("drv")
	a := newStubDevice("a")
	b := newStubDevice("b")

	drv.AddDevice(a)
	before := len(drv.Devices())

	drv.AddDevice(b)
	drv.DeleteDevice(b)
	if got := len(drv.Devices()); got != before {
		t.Fatalf("bound set has %d entries after add+delete, want %d", got, before)
	}

	// Deleting an absent device must not error or change the set.
	drv.DeleteDevice(b)
	if got := len(drv.Devices()); got != before {
		t.Fatalf("delete of absent device changed set size to %d", got)
	}
}

func TestDriverUpgradeAfterDestruction(t *testing.T) {
	dev := newStubDevice("dev0")
	drv := newStubDriver("drv")

	dev.SetDriver(kobject.WeakOf[Driver](drv))
	if _, ok := dev.Driver(); !ok {
		t.Fatal("driver upgrade failed while driver is alive")
	}

	drv.Life().Release()
	if _, ok := dev.Driver(); ok {
		t.Fatal("driver upgrade succeeded after destruction")
	}
	// The stale weak field must have been compacted.
	if _, ok := dev.Driver(); ok {
		t.Fatal("second upgrade succeeded after destruction")
	}
}

func TestBusAndClassCompaction(t *testing.T) {
	dev := newStubDevice("dev0")

	cls := &stubClass{Base: kobject.NewBase("block")}
	dev.SetClass(kobject.WeakOf[Class](cls))
	cls.Life().Release()
	if _, ok := dev.Class(); ok {
		t.Fatal("class upgrade succeeded after destruction")
	}
	if _, ok := dev.Bus(); ok {
		t.Fatal("bus upgrade succeeded with no bus set")
	}
}

type stubClass struct {
	*kobject.Base
}

func TestDeviceStateDefaults(t *testing.T) {
	dev := newStubDevice("dev0")
	if dev.DevState() != StateUndefined {
		t.Fatalf("fresh device state is %v", dev.DevState())
	}
	if !dev.CanMatch() || dev.IsDead() {
		t.Fatal("fresh device must be matchable and alive")
	}

	dev.SetDevState(StateDead)
	if !dev.IsDead() {
		t.Fatal("device not dead after StateDead")
	}
	dev.SetCanMatch(false)
	if dev.CanMatch() {
		t.Fatal("can_match still set")
	}
}

func TestNewIDValidation(t *testing.T) {
	if _, err := NewID("", ""); !errors.Is(err, ErrEmptyID) {
		t.Fatalf("empty id returned %v, want ErrEmptyID", err)
	}
	id, err := NewID("", "4098")
	if err != nil {
		t.Fatalf("NewID: %v", err)
	}
	if id.String() != "4098" {
		t.Fatalf("id stringifies as %q", id.String())
	}
}
