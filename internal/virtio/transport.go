// Package virtio implements virtio bus probing: it enumerates PCI (and
// MMIO) candidates, filters them by vendor/device-ID range, constructs a
// transport per candidate and routes the resulting logical device to the
// correct subsystem driver by device type.
package virtio

import "fmt"

// DeviceType is the virtio device type identifier.
type DeviceType uint16

const (
	DeviceTypeInvalid DeviceType = 0
	DeviceTypeNetwork DeviceType = 1
	DeviceTypeBlock   DeviceType = 2
	DeviceTypeConsole DeviceType = 3
	DeviceTypeEntropy DeviceType = 4
	DeviceTypeBalloon DeviceType = 5
	DeviceTypeSCSI    DeviceType = 8
	DeviceTypeGPU     DeviceType = 16
	DeviceTypeInput   DeviceType = 18
	DeviceTypeSocket  DeviceType = 19
	DeviceTypeFS      DeviceType = 26
)

func (t DeviceType) String() string {
	switch t {
	case DeviceTypeNetwork:
		return "network"
	case DeviceTypeBlock:
		return "block"
	case DeviceTypeConsole:
		return "console"
	case DeviceTypeEntropy:
		return "entropy"
	case DeviceTypeBalloon:
		return "balloon"
	case DeviceTypeSCSI:
		return "scsi"
	case DeviceTypeGPU:
		return "gpu"
	case DeviceTypeInput:
		return "input"
	case DeviceTypeSocket:
		return "socket"
	case DeviceTypeFS:
		return "fs"
	default:
		return fmt.Sprintf("type-%d", uint16(t))
	}
}

// TransportKind tags the physical transport behind a Transport.
type TransportKind uint8

const (
	TransportPCI TransportKind = iota
	TransportMMIO
)

func (k TransportKind) String() string {
	if k == TransportPCI {
		return "pci"
	}
	return "mmio"
}

// Transport abstracts how a virtio device's control registers are reached.
// It carries everything the generic probing code needs without exposing
// which concrete transport backs it; the full register/queue machinery
// lives outside this core.
type Transport interface {
	Kind() TransportKind
	DeviceType() DeviceType
	// DeviceFeatures returns the device's 64-bit feature word.
	DeviceFeatures() uint64
	fmt.Stringer
}
