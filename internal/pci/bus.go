package pci

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/ZZJJWarth/DragonOS/internal/device"
	"github.com/ZZJJWarth/DragonOS/internal/kobject"
)

// Bus is the PCI bus object: it strongly owns the devices attached to it
// (through its kset), keeps the list of registered drivers, and runs the
// matching engine that binds one to the other.
//
// bindMu serializes every bind and unbind so that the device's driver
// back-reference and the driver's bound set always change together:
// either both reflect the bind, or neither does.
type Bus struct {
	*kobject.Base

	devices *kobject.KSet

	driverMu sync.Mutex
	drivers  []Driver

	bindMu sync.Mutex
}

func NewBus() *Bus {
	b := &Bus{
		Base:    kobject.NewFixedBase("pci"),
		devices: kobject.NewKSet("pci_devices"),
	}
	b.devices.SetParent(kobject.WeakOf[kobject.KObject](b))
	return b
}

func (b *Bus) DevName() string { return "pci" }

// Devices returns the kset owning the attached devices.
func (b *Bus) Devices() *kobject.KSet { return b.devices }

// Drivers returns a snapshot of the registered drivers in registration
// order.
func (b *Bus) Drivers() []Driver {
	b.driverMu.Lock()
	defer b.driverMu.Unlock()
	out := make([]Driver, len(b.drivers))
	copy(out, b.drivers)
	return out
}

// eligible applies the matching gate: the engine only considers devices
// that opted in and are not dead.
func eligible(dev Device) bool {
	return dev.CanMatch() && !dev.IsDead()
}

// matchID finds the first rule of drv that accepts dev, scanning the
// dynamic-ID list in insertion order so repeated scans over an unmodified
// list are deterministic. A static name-table match falls back to the
// always-match rule.
func matchID(dev Device, drv Driver) (DeviceID, bool) {
	want := dev.DynID()
	for _, rule := range drv.DynIDList() {
		if rule.Match(want) {
			return *rule, true
		}
	}
	if table, ok := drv.IDTable(); ok && table.Name() == dev.IDTable().Name() {
		return DummyID(), true
	}
	return DeviceID{}, false
}

// Match implements device.Bus. It reports compatibility without binding.
func (b *Bus) Match(dev device.Device, drv device.Driver) (bool, error) {
	pdev, ok := dev.(Device)
	if !ok {
		return false, fmt.Errorf("pci: %q is not a pci device", dev.Name())
	}
	pdrv, ok := drv.(Driver)
	if !ok {
		return false, fmt.Errorf("pci: %q is not a pci driver", drv.Name())
	}
	if !eligible(pdev) {
		return false, nil
	}
	_, matched := matchID(pdev, pdrv)
	return matched, nil
}

// bind runs the driver's probe and, only on success, flips both sides of
// the binding under bindMu. On probe failure nothing is mutated.
func (b *Bus) bind(dev Device, drv Driver, id DeviceID) error {
	b.bindMu.Lock()
	defer b.bindMu.Unlock()
	if _, bound := dev.Driver(); bound {
		return nil
	}
	if err := drv.Probe(dev, id); err != nil {
		return err
	}
	dev.SetDriver(kobject.WeakOf[device.Driver](drv))
	drv.AddDevice(dev)
	dev.SetDevState(device.StateBound)
	return nil
}

// probeDevice walks the registered drivers in order, binding dev to the
// first one whose probe succeeds. A probe failure abandons that attempt
// only; the engine proceeds to the next candidate. Exhausting all
// candidates leaves the device unbound, which is a normal terminal state;
// the last probe error, if any, is preserved for the caller.
func (b *Bus) probeDevice(dev Device) (bool, error) {
	if !eligible(dev) {
		return false, nil
	}
	var lastErr error
	for _, drv := range b.Drivers() {
		id, matched := matchID(dev, drv)
		if !matched {
			continue
		}
		if err := b.bind(dev, drv, id); err != nil {
			slog.Error("pci: probe failed", "device", dev.Name(), "driver", drv.Name(), "err", err)
			lastErr = err
			continue
		}
		return true, nil
	}
	return false, lastErr
}

// Probe implements device.Bus: it runs a matching attempt for dev and
// returns the preserved probe error when every compatible driver rejected
// the device. An unmatched device is not an error.
func (b *Bus) Probe(dev device.Device) error {
	pdev, ok := dev.(Device)
	if !ok {
		return fmt.Errorf("pci: %q is not a pci device", dev.Name())
	}
	_, err := b.probeDevice(pdev)
	return err
}

// Remove implements device.Bus: it detaches dev from its bound driver,
// invoking the driver's remove hook first. A hook failure is returned to
// the caller with the binding left intact.
func (b *Bus) Remove(dev device.Device) error {
	pdev, ok := dev.(Device)
	if !ok {
		return fmt.Errorf("pci: %q is not a pci device", dev.Name())
	}
	return b.unbind(pdev)
}

func (b *Bus) unbind(dev Device) error {
	b.bindMu.Lock()
	defer b.bindMu.Unlock()
	drv, bound := dev.Driver()
	if !bound {
		return nil
	}
	pdrv, ok := drv.(Driver)
	if !ok {
		return fmt.Errorf("pci: bound driver %q is not a pci driver", drv.Name())
	}
	if err := pdrv.Remove(dev); err != nil {
		return err
	}
	pdrv.DeleteDevice(dev)
	dev.SetDriver(kobject.Weak[device.Driver]{})
	dev.SetDevState(device.StateUnbound)
	return nil
}

// RegisterDevice attaches dev to the bus and runs a matching attempt.
// Staying unbound is not a failure; probe rejections are logged inside the
// engine and do not surface here.
func (b *Bus) RegisterDevice(dev Device) error {
	dev.SetBus(kobject.WeakOf[device.Bus](b))
	if dev.DevState() == device.StateUndefined {
		dev.SetDevState(device.StateInitialized)
	}
	b.devices.Join(dev)

	bound, _ := b.probeDevice(dev)
	if !bound {
		slog.Debug("pci: device left unbound", "device", dev.Name())
	}
	return nil
}

// UnregisterDevice detaches dev from its driver and drops the bus's
// ownership, destroying the device's registration.
func (b *Bus) UnregisterDevice(dev Device) error {
	if err := b.unbind(dev); err != nil {
		return err
	}
	b.devices.Leave(dev)
	dev.SetBus(kobject.Weak[device.Bus]{})
	dev.SetDevState(device.StateDead)
	dev.Life().Release()
	return nil
}

// RegisterDriver adds drv to the bus and offers it every currently
// unbound, eligible device.
func (b *Bus) RegisterDriver(drv Driver) error {
	drv.SetBus(kobject.WeakOf[device.Bus](b))
	b.driverMu.Lock()
	for _, d := range b.drivers {
		if kobject.Same(d, drv) {
			b.driverMu.Unlock()
			return nil
		}
	}
	b.drivers = append(b.drivers, drv)
	b.driverMu.Unlock()

	for _, member := range b.devices.Members() {
		dev, ok := member.(Device)
		if !ok || !eligible(dev) {
			continue
		}
		if _, bound := dev.Driver(); bound {
			continue
		}
		id, matched := matchID(dev, drv)
		if !matched {
			continue
		}
		if err := b.bind(dev, drv, id); err != nil {
			slog.Error("pci: probe failed", "device", dev.Name(), "driver", drv.Name(), "err", err)
		}
	}
	return nil
}

// UnregisterDriver unbinds every device bound to drv and removes it from
// the bus, destroying the driver's registration. Devices whose remove
// hook fails stay bound and are reported through the returned error.
func (b *Bus) UnregisterDriver(drv Driver) error {
	var firstErr error
	for _, dev := range drv.Devices() {
		pdev, ok := dev.(Device)
		if !ok {
			continue
		}
		if err := b.unbind(pdev); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return firstErr
	}

	b.driverMu.Lock()
	kept := b.drivers[:0]
	for _, d := range b.drivers {
		if !kobject.Same(d, drv) {
			kept = append(kept, d)
		}
	}
	b.drivers = kept
	b.driverMu.Unlock()

	drv.SetBus(kobject.Weak[device.Bus]{})
	drv.Life().Release()
	return nil
}

var _ device.Bus = (*Bus)(nil)

var (
	globalBusOnce sync.Once
	globalBus     *Bus
)

// GlobalBus returns the process-wide PCI bus instance.
func GlobalBus() *Bus {
	globalBusOnce.Do(func() {
		globalBus = NewBus()
	})
	return globalBus
}
