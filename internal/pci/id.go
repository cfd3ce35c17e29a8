// Package pci implements the PCI side of the driver core: the raw
// descriptor registry produced by bus enumeration, the Device/Driver
// specializations, and the matching engine that binds the two.
package pci

// AnyID is the wildcard value in a match rule; it matches every value of
// the field it stands in for.
const AnyID = 0xffff_ffff

// DeviceID is an immutable match rule: vendor and device identification
// plus the subsystem and class fields of the full PCI model. Fields set to
// AnyID match anything. Registered rules are shared by pointer so several
// drivers' match tables can reference one instance without copying.
type DeviceID struct {
	Vendor    uint32
	Device    uint32
	SubVendor uint32
	SubDevice uint32
	Class     uint32
	ClassMask uint32
}

// NewDeviceID builds a rule matching one vendor/device pair, with the
// remaining fields wildcarded.
func NewDeviceID(vendor, device uint16) DeviceID {
	return DeviceID{
		Vendor:    uint32(vendor),
		Device:    uint32(device),
		SubVendor: AnyID,
		SubDevice: AnyID,
		Class:     0,
		ClassMask: 0,
	}
}

// DummyID is the always-match rule.
func DummyID() DeviceID {
	return DeviceID{
		Vendor:    AnyID,
		Device:    AnyID,
		SubVendor: AnyID,
		SubDevice: AnyID,
		Class:     0,
		ClassMask: 0,
	}
}

func fieldMatch(rule, value uint32) bool {
	return rule == AnyID || rule == value
}

// Match reports whether the rule accepts the identification other, which
// is typically a fully concrete DeviceID presented by a device.
func (id DeviceID) Match(other DeviceID) bool {
	return fieldMatch(id.Vendor, other.Vendor) &&
		fieldMatch(id.Device, other.Device) &&
		fieldMatch(id.SubVendor, other.SubVendor) &&
		fieldMatch(id.SubDevice, other.SubDevice) &&
		id.Class&id.ClassMask == other.Class&id.ClassMask
}

// MatchDevice reports whether the rule accepts a bare vendor/device pair.
func (id DeviceID) MatchDevice(vendor, device uint16) bool {
	return fieldMatch(id.Vendor, uint32(vendor)) && fieldMatch(id.Device, uint32(device))
}

// Equal is field-by-field comparison, wildcards included.
func (id DeviceID) Equal(other DeviceID) bool { return id == other }
