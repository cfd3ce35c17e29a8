package device

import (
	"sync"

	"github.com/ZZJJWarth/DragonOS/internal/kobject"
)

// Core carries the binding state common to every device implementation:
// the weak back-references to bus, class and driver, the lifecycle state
// and the matching eligibility flag. Reads of the back-references far
// outnumber rebinds, so the guard is a reader/writer lock.
//
// Concrete devices embed *Core and add DevType/IDTable/AttributeGroups.
type Core struct {
	*kobject.Base

	mu       sync.RWMutex
	bus      kobject.Weak[Bus]
	class    kobject.Weak[Class]
	driver   kobject.Weak[Driver]
	state    State
	canMatch bool
}

// NewCore creates device binding state around a kobject base. The device
// starts with no bus, driver or class and is eligible for matching.
func NewCore(base *kobject.Base) *Core {
	return &Core{Base: base, state: StateUndefined, canMatch: true}
}

// Bus upgrades the weak bus link. On a failed upgrade the stale field is
// cleared so future calls short-circuit.
func (c *Core) Bus() (Bus, bool) {
	c.mu.RLock()
	ref := c.bus
	c.mu.RUnlock()
	if ref.Empty() {
		return nil, false
	}
	if bus, ok := ref.Upgrade(); ok {
		return bus, true
	}
	c.mu.Lock()
	c.bus = kobject.Weak[Bus]{}
	c.mu.Unlock()
	return nil, false
}

func (c *Core) SetBus(bus kobject.Weak[Bus]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bus = bus
}

func (c *Core) Class() (Class, bool) {
	c.mu.RLock()
	ref := c.class
	c.mu.RUnlock()
	if ref.Empty() {
		return nil, false
	}
	if class, ok := ref.Upgrade(); ok {
		return class, true
	}
	c.mu.Lock()
	c.class = kobject.Weak[Class]{}
	c.mu.Unlock()
	return nil, false
}

func (c *Core) SetClass(class kobject.Weak[Class]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.class = class
}

func (c *Core) Driver() (Driver, bool) {
	c.mu.RLock()
	ref := c.driver
	c.mu.RUnlock()
	if ref.Empty() {
		return nil, false
	}
	if drv, ok := ref.Upgrade(); ok {
		return drv, true
	}
	c.mu.Lock()
	c.driver = kobject.Weak[Driver]{}
	c.mu.Unlock()
	return nil, false
}

func (c *Core) SetDriver(driver kobject.Weak[Driver]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.driver = driver
}

func (c *Core) DevState() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Core) SetDevState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

func (c *Core) CanMatch() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.canMatch
}

func (c *Core) SetCanMatch(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.canMatch = v
}

func (c *Core) IsDead() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state == StateDead
}

// StateSynced defaults to true; devices with a firmware shadow override it.
func (c *Core) StateSynced() bool { return true }

// DriverCore carries the state common to every driver implementation: the
// strongly-owned bound-device set and the weak bus link. Bind and unbind
// are about as frequent as reads here, so a plain mutex suffices.
type DriverCore struct {
	*kobject.Base

	mu      sync.Mutex
	devices []Device
	bus     kobject.Weak[Bus]
}

func NewDriverCore(base *kobject.Base) *DriverCore {
	return &DriverCore{Base: base}
}

// Devices returns a snapshot of the bound set.
func (c *DriverCore) Devices() []Device {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Device, len(c.devices))
	copy(out, c.devices)
	return out
}

// AddDevice inserts dev into the bound set. Idempotent by identity.
func (c *DriverCore) AddDevice(dev Device) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range c.devices {
		if kobject.Same(d, dev) {
			return
		}
	}
	c.devices = append(c.devices, dev)
}

// DeleteDevice filters dev out of the bound set by identity. Removing an
// absent device is a no-op.
func (c *DriverCore) DeleteDevice(dev Device) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.devices[:0]
	for _, d := range c.devices {
		if !kobject.Same(d, dev) {
			kept = append(kept, d)
		}
	}
	c.devices = kept
}

func (c *DriverCore) Bus() (Bus, bool) {
	c.mu.Lock()
	ref := c.bus
	c.mu.Unlock()
	if ref.Empty() {
		return nil, false
	}
	if bus, ok := ref.Upgrade(); ok {
		return bus, true
	}
	c.mu.Lock()
	c.bus = kobject.Weak[Bus]{}
	c.mu.Unlock()
	return nil, false
}

func (c *DriverCore) SetBus(bus kobject.Weak[Bus]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bus = bus
}
