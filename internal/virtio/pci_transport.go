package virtio

import (
	"fmt"

	"github.com/ZZJJWarth/DragonOS/internal/device"
	"github.com/ZZJJWarth/DragonOS/internal/pci"
)

const (
	// VendorID is the virtio PCI vendor identifier.
	VendorID = 0x1af4

	// DeviceIDMin/Max bound the device-ID range the probe accepts.
	DeviceIDMin = 0x1000
	DeviceIDMax = 0x103f

	// ModernDeviceIDBase maps modern device IDs to device types.
	ModernDeviceIDBase = 0x1040
)

// Virtio vendor capability cfg types.
const (
	capCommonCfg = 1
	capNotifyCfg = 2
	capISRCfg    = 3
	capDeviceCfg = 4
	capPCICfg    = 5
)

// Virtio vendor capability layout (after the generic id/next bytes).
const (
	capOffLen    = 2 // u8 capability length
	capOffType   = 3 // u8 cfg_type
	capOffBAR    = 4 // u8 BAR index
	capOffOffset = 8 // u32 offset within the BAR
	capOffLength = 12 // u32 window length
)

// Common configuration window registers.
const (
	commonDFSelect = 0x00
	commonDF       = 0x04
	commonNumQ     = 0x12
	commonStatus   = 0x14
)

// capWindow locates one virtio configuration structure behind a BAR.
type capWindow struct {
	bar    uint8
	offset uint32
	length uint32
}

func (w capWindow) valid() bool { return w.length != 0 }

// PCITransport is the PCI-backed variant of Transport.
type PCITransport struct {
	raw   *pci.RawDevice
	devID *device.ID
	index int

	deviceType DeviceType
	features   uint64

	common    capWindow
	notify    capWindow
	isr       capWindow
	deviceCfg capWindow
}

// NewPCITransport builds a transport for one probed candidate. index is
// the local probe index disambiguating multiple functions of the same
// card. Construction fails on malformed capability layouts; the caller
// skips the candidate and continues.
func NewPCITransport(raw *pci.RawDevice, devID *device.ID, index int) (*PCITransport, error) {
	if !raw.Standard() {
		return nil, fmt.Errorf("virtio-pci: %s has no standard header", raw)
	}

	t := &PCITransport{raw: raw, devID: devID, index: index}
	if err := t.locateWindows(); err != nil {
		return nil, err
	}

	devType, err := deviceTypeOf(raw)
	if err != nil {
		return nil, err
	}
	t.deviceType = devType

	features, err := t.readDeviceFeatures()
	if err != nil {
		return nil, err
	}
	t.features = features
	return t, nil
}

// deviceTypeOf derives the virtio device type from PCI identification:
// modern IDs encode it directly, transitional IDs carry it in the
// subsystem device ID.
func deviceTypeOf(raw *pci.RawDevice) (DeviceType, error) {
	id := raw.Header.Device
	if id >= ModernDeviceIDBase {
		return DeviceType(id - ModernDeviceIDBase), nil
	}
	if raw.SubDevice == 0 {
		return 0, fmt.Errorf("virtio-pci: transitional %s has no subsystem device type", raw)
	}
	return DeviceType(raw.SubDevice), nil
}

// locateWindows walks the capability chain for vendor-specific entries and
// records the configuration windows. Common, notify and ISR windows are
// required; the device window is optional.
func (t *PCITransport) locateWindows() error {
	caps, err := t.raw.Capabilities()
	if err != nil {
		return fmt.Errorf("virtio-pci: capability walk: %w", err)
	}
	cfg := t.raw.Config()
	for _, c := range caps {
		if c.ID != pci.CapIDVendor {
			continue
		}
		cfgType, err := cfg.ReadConfig(uint16(c.Offset)+capOffType, 1)
		if err != nil {
			return fmt.Errorf("virtio-pci: read cfg_type at %#x: %w", c.Offset, err)
		}
		bar, err := cfg.ReadConfig(uint16(c.Offset)+capOffBAR, 1)
		if err != nil {
			return fmt.Errorf("virtio-pci: read bar index at %#x: %w", c.Offset, err)
		}
		offset, err := cfg.ReadConfig(uint16(c.Offset)+capOffOffset, 4)
		if err != nil {
			return fmt.Errorf("virtio-pci: read window offset at %#x: %w", c.Offset, err)
		}
		length, err := cfg.ReadConfig(uint16(c.Offset)+capOffLength, 4)
		if err != nil {
			return fmt.Errorf("virtio-pci: read window length at %#x: %w", c.Offset, err)
		}
		w := capWindow{bar: uint8(bar), offset: offset, length: length}
		switch cfgType {
		case capCommonCfg:
			t.common = w
		case capNotifyCfg:
			t.notify = w
		case capISRCfg:
			t.isr = w
		case capDeviceCfg:
			t.deviceCfg = w
		case capPCICfg:
			// Alternative access window, unused here.
		}
	}
	if !t.common.valid() {
		return fmt.Errorf("virtio-pci: %s has no common configuration window", t.raw)
	}
	if !t.notify.valid() {
		return fmt.Errorf("virtio-pci: %s has no notify window", t.raw)
	}
	if !t.isr.valid() {
		return fmt.Errorf("virtio-pci: %s has no ISR window", t.raw)
	}
	return nil
}

// readDeviceFeatures reads the 64-bit device feature word through the
// common window's feature-select registers.
func (t *PCITransport) readDeviceFeatures() (uint64, error) {
	bars, ok := t.raw.BARs()
	if !ok {
		return 0, fmt.Errorf("virtio-pci: %s has no mapped BAR windows", t.raw)
	}
	var features uint64
	for sel := uint32(0); sel < 2; sel++ {
		if err := bars.WriteBAR(t.common.bar, uint64(t.common.offset)+commonDFSelect, 4, sel); err != nil {
			return 0, fmt.Errorf("virtio-pci: select feature word %d: %w", sel, err)
		}
		word, err := bars.ReadBAR(t.common.bar, uint64(t.common.offset)+commonDF, 4)
		if err != nil {
			return 0, fmt.Errorf("virtio-pci: read feature word %d: %w", sel, err)
		}
		features |= uint64(word) << (32 * sel)
	}
	return features, nil
}

func (t *PCITransport) Kind() TransportKind    { return TransportPCI }
func (t *PCITransport) DeviceType() DeviceType { return t.deviceType }
func (t *PCITransport) DeviceFeatures() uint64 { return t.features }

// Raw exposes the underlying PCI descriptor.
func (t *PCITransport) Raw() *pci.RawDevice { return t.raw }

// Index is the local probe index assigned during enumeration.
func (t *PCITransport) Index() int { return t.index }

func (t *PCITransport) String() string {
	return fmt.Sprintf("virtio-pci %s %s#%d", t.raw, t.deviceType, t.index)
}

var _ Transport = (*PCITransport)(nil)
