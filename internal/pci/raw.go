package pci

import "fmt"

// Standard configuration-space offsets and bits.
const (
	offVendorID      = 0x00
	offDeviceID      = 0x02
	offCommand       = 0x04
	offStatus        = 0x06
	offRevisionID    = 0x08
	offClassCode     = 0x09
	offHeaderType    = 0x0e
	offSubsysVendor  = 0x2c
	offSubsysID      = 0x2e
	offCapabilityPtr = 0x34

	statusCapabilitiesList = 0x10
	headerTypeMask         = 0x7f
)

// Capability IDs used by this core.
const (
	CapIDVendor = 0x09
	CapIDMSIX   = 0x11
)

// capWalkLimit bounds the capability chain walk so a corrupt chain cannot
// loop forever.
const capWalkLimit = 48

// Kind distinguishes the three configuration header layouts.
type Kind uint8

const (
	KindStandard Kind = iota
	KindPCIBridge
	KindCardBusBridge
)

func (k Kind) String() string {
	switch k {
	case KindStandard:
		return "standard"
	case KindPCIBridge:
		return "pci-bridge"
	case KindCardBusBridge:
		return "cardbus-bridge"
	default:
		return "unknown"
	}
}

// Header is the common header shared by every configuration layout.
type Header struct {
	Vendor     uint16
	Device     uint16
	Status     uint16
	Revision   uint8
	ClassCode  [3]uint8
	HeaderType uint8
}

// Capability is one entry of a function's capability list.
type Capability struct {
	ID     uint8
	Offset uint8
	Next   uint8
}

// RawDevice is the enumeration-time descriptor of one PCI function: the
// common header plus the accessors the probing code needs. It is not a
// device.Device; a subsystem driver wraps it in one when it claims the
// function.
type RawDevice struct {
	cfg  ConfigSpace
	bars BARSpace // may be nil when no window access is available

	Header    Header
	SubVendor uint16
	SubDevice uint16
	kind      Kind

	// CapabilityPtr is the head of the capability chain, 0 when the
	// function advertises none. Refreshed by Capabilities.
	CapabilityPtr uint8
}

// NewRawDevice reads the common header through cfg and builds a
// descriptor. bars may be nil for functions whose windows are not mapped.
func NewRawDevice(cfg ConfigSpace, bars BARSpace) (*RawDevice, error) {
	d := &RawDevice{cfg: cfg, bars: bars}

	vendor, err := cfg.ReadConfig(offVendorID, 2)
	if err != nil {
		return nil, fmt.Errorf("pci: read vendor id: %w", err)
	}
	if vendor == 0xffff || vendor == 0 {
		return nil, fmt.Errorf("pci: no function present (vendor %#04x)", vendor)
	}
	d.Header.Vendor = uint16(vendor)

	device, err := cfg.ReadConfig(offDeviceID, 2)
	if err != nil {
		return nil, fmt.Errorf("pci: read device id: %w", err)
	}
	d.Header.Device = uint16(device)

	status, err := cfg.ReadConfig(offStatus, 2)
	if err != nil {
		return nil, fmt.Errorf("pci: read status: %w", err)
	}
	d.Header.Status = uint16(status)

	rev, err := cfg.ReadConfig(offRevisionID, 1)
	if err != nil {
		return nil, fmt.Errorf("pci: read revision: %w", err)
	}
	d.Header.Revision = uint8(rev)

	for i := range d.Header.ClassCode {
		c, err := cfg.ReadConfig(offClassCode+uint16(i), 1)
		if err != nil {
			return nil, fmt.Errorf("pci: read class code: %w", err)
		}
		d.Header.ClassCode[i] = uint8(c)
	}

	ht, err := cfg.ReadConfig(offHeaderType, 1)
	if err != nil {
		return nil, fmt.Errorf("pci: read header type: %w", err)
	}
	d.Header.HeaderType = uint8(ht)
	switch d.Header.HeaderType & headerTypeMask {
	case 0x00:
		d.kind = KindStandard
	case 0x01:
		d.kind = KindPCIBridge
	case 0x02:
		d.kind = KindCardBusBridge
	default:
		return nil, fmt.Errorf("pci: unknown header type %#02x", d.Header.HeaderType)
	}

	if d.kind == KindStandard {
		sv, err := cfg.ReadConfig(offSubsysVendor, 2)
		if err != nil {
			return nil, fmt.Errorf("pci: read subsystem vendor: %w", err)
		}
		d.SubVendor = uint16(sv)
		sd, err := cfg.ReadConfig(offSubsysID, 2)
		if err != nil {
			return nil, fmt.Errorf("pci: read subsystem id: %w", err)
		}
		d.SubDevice = uint16(sd)
	}
	return d, nil
}

func (d *RawDevice) Kind() Kind              { return d.kind }
func (d *RawDevice) Standard() bool          { return d.kind == KindStandard }
func (d *RawDevice) Config() ConfigSpace     { return d.cfg }
func (d *RawDevice) BARs() (BARSpace, bool)  { return d.bars, d.bars != nil }

// ID returns the fully concrete identification of the function, suitable
// for matching against driver rules.
func (d *RawDevice) ID() DeviceID {
	class := uint32(d.Header.ClassCode[2])<<16 |
		uint32(d.Header.ClassCode[1])<<8 |
		uint32(d.Header.ClassCode[0])
	return DeviceID{
		Vendor:    uint32(d.Header.Vendor),
		Device:    uint32(d.Header.Device),
		SubVendor: uint32(d.SubVendor),
		SubDevice: uint32(d.SubDevice),
		Class:     class,
		ClassMask: 0xffffff,
	}
}

// Capabilities walks the function's capability chain. Functions without
// the capability-list status bit return an empty list. The walk is bounded
// so a cyclic chain degrades into a truncated list rather than a hang.
func (d *RawDevice) Capabilities() ([]Capability, error) {
	if d.Header.Status&statusCapabilitiesList == 0 {
		return nil, nil
	}
	ptr, err := d.cfg.ReadConfig(offCapabilityPtr, 1)
	if err != nil {
		return nil, fmt.Errorf("pci: read capability pointer: %w", err)
	}
	d.CapabilityPtr = uint8(ptr) &^ 0x3

	var caps []Capability
	off := d.CapabilityPtr
	for i := 0; off != 0 && i < capWalkLimit; i++ {
		id, err := d.cfg.ReadConfig(uint16(off), 1)
		if err != nil {
			return nil, fmt.Errorf("pci: read capability id at %#x: %w", off, err)
		}
		next, err := d.cfg.ReadConfig(uint16(off)+1, 1)
		if err != nil {
			return nil, fmt.Errorf("pci: read capability next at %#x: %w", off, err)
		}
		cap := Capability{ID: uint8(id), Offset: off, Next: uint8(next) &^ 0x3}
		caps = append(caps, cap)
		off = cap.Next
	}
	return caps, nil
}

// MSIXCapabilityOffset finds the MSI-X capability, if the function has one.
func (d *RawDevice) MSIXCapabilityOffset() (uint8, bool) {
	caps, err := d.Capabilities()
	if err != nil {
		return 0, false
	}
	for _, c := range caps {
		if c.ID == CapIDMSIX {
			return c.Offset, true
		}
	}
	return 0, false
}

func (d *RawDevice) String() string {
	return fmt.Sprintf("%04x:%04x (%s)", d.Header.Vendor, d.Header.Device, d.kind)
}
