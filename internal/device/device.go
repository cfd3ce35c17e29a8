// Package device defines the Device/Driver/Bus contract: the roles every
// bus participant plays and the identification types the matching engine
// compares. Every participant is-a kobject.KObject.
package device

import (
	"errors"

	"github.com/ZZJJWarth/DragonOS/internal/kobject"
	"github.com/ZZJJWarth/DragonOS/internal/sysfs"
)

// Type classifies a device by the subsystem it belongs to.
type Type uint8

const (
	TypeBus Type = iota
	TypeNet
	TypeGPU
	TypeInput
	TypeBlock
	TypeRTC
	TypeSerial
	TypeIntc
	TypePlatform
	TypeChar
	TypePCI
)

// State is the device lifecycle state.
type State uint8

const (
	StateUndefined State = iota
	StateInitializing
	StateInitialized
	StateBound
	StateUnbound
	StateNotReady
	StateDead
)

func (s State) String() string {
	switch s {
	case StateUndefined:
		return "undefined"
	case StateInitializing:
		return "initializing"
	case StateInitialized:
		return "initialized"
	case StateBound:
		return "bound"
	case StateUnbound:
		return "unbound"
	case StateNotReady:
		return "not-ready"
	case StateDead:
		return "dead"
	default:
		return "invalid"
	}
}

// IdTable is the static identification a device or driver presents to the
// matching engine: a name plus an optional compatible string.
type IdTable struct {
	name       string
	compatible string
	hasCompat  bool
}

func NewIdTable(name string) IdTable {
	return IdTable{name: name}
}

func NewIdTableCompat(name, compatible string) IdTable {
	return IdTable{name: name, compatible: compatible, hasCompat: true}
}

func (t IdTable) Name() string { return t.name }

func (t IdTable) Compatible() (string, bool) { return t.compatible, t.hasCompat }

// ErrEmptyID rejects a device identifier with neither name nor data.
var ErrEmptyID = errors.New("device: identifier needs a name or data")

// ID is the per-probe device identifier allocated during bus probing and
// handed to the subsystem entry point that completes registration.
type ID struct {
	name string
	data string
}

// NewID allocates an identifier. At least one of name and data must be
// non-empty.
func NewID(name, data string) (*ID, error) {
	if name == "" && data == "" {
		return nil, ErrEmptyID
	}
	return &ID{name: name, data: data}, nil
}

func (id *ID) Name() string { return id.name }
func (id *ID) Data() string { return id.data }

func (id *ID) String() string {
	if id.name != "" {
		return id.name
	}
	return id.data
}

// Device is the generic device role. Bus, Driver and Class accessors
// upgrade the stored weak back-reference: the structural owner (bus device
// list, driver bound set, class registry) holds the strong handle, the
// device only points back. A failed upgrade is a valid outcome, and the
// accessor compacts its stale weak field so later calls short-circuit.
type Device interface {
	kobject.KObject

	DevType() Type
	IDTable() IdTable

	Bus() (Bus, bool)
	SetBus(bus kobject.Weak[Bus])

	Class() (Class, bool)
	SetClass(class kobject.Weak[Class])

	Driver() (Driver, bool)
	SetDriver(driver kobject.Weak[Driver])

	DevState() State
	SetDevState(s State)

	// CanMatch gates whether the matching engine considers this device
	// at all; IsDead permanently excludes it once true.
	CanMatch() bool
	SetCanMatch(bool)
	IsDead() bool

	// StateSynced reports whether the device's state has been pushed to
	// its firmware/hardware counterpart.
	StateSynced() bool

	// AttributeGroups returns the introspection surface; nil means the
	// device is not introspectable.
	AttributeGroups() []sysfs.AttributeGroup
}

// Driver is the generic driver role. A driver strongly owns the set of
// devices currently bound to it.
type Driver interface {
	kobject.KObject

	IDTable() (IdTable, bool)

	// Devices returns a snapshot of the bound set.
	Devices() []Device
	// AddDevice is idempotent by identity; adding a present device is a
	// no-op.
	AddDevice(dev Device)
	// DeleteDevice removes by identity; removing an absent device is a
	// no-op.
	DeleteDevice(dev Device)

	Bus() (Bus, bool)
	SetBus(bus kobject.Weak[Bus])
}

// Bus is the rendezvous point between devices and drivers. The matching
// engine lives behind it.
type Bus interface {
	kobject.KObject

	// DevName is the stem used when naming devices attached to the bus.
	DevName() string

	// Match reports whether drv can serve dev, without side effects.
	Match(dev Device, drv Driver) (bool, error)

	// Probe asks the matched driver to take the device, via the bus's
	// own convention.
	Probe(dev Device) error

	// Remove detaches dev from its bound driver.
	Remove(dev Device) error
}

// Class groups devices of the same functional kind. The class registry
// owns its members; devices reference their class weakly.
type Class interface {
	kobject.KObject
}
