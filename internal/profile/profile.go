// Package profile loads synthetic machine topologies from YAML and
// materializes them as PCI registry entries and MMIO enumerations, so the
// probing flow can run against described hardware instead of a live bus.
package profile

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/ZZJJWarth/DragonOS/internal/pci"
	"github.com/ZZJJWarth/DragonOS/internal/virtio"
)

// TypeName is a virtio device type that unmarshals from either the
// numeric value or the well-known name ("block", "network", ...).
type TypeName virtio.DeviceType

var typeNames = map[string]virtio.DeviceType{
	"network": virtio.DeviceTypeNetwork,
	"block":   virtio.DeviceTypeBlock,
	"console": virtio.DeviceTypeConsole,
	"entropy": virtio.DeviceTypeEntropy,
	"balloon": virtio.DeviceTypeBalloon,
	"scsi":    virtio.DeviceTypeSCSI,
	"gpu":     virtio.DeviceTypeGPU,
	"input":   virtio.DeviceTypeInput,
	"socket":  virtio.DeviceTypeSocket,
	"fs":      virtio.DeviceTypeFS,
}

func (t *TypeName) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err == nil {
		if dt, ok := typeNames[s]; ok {
			*t = TypeName(dt)
			return nil
		}
		if n, err := strconv.ParseUint(s, 0, 16); err == nil {
			*t = TypeName(n)
			return nil
		}
		return fmt.Errorf("profile: unknown device type %q", s)
	}
	var n uint16
	if err := node.Decode(&n); err != nil {
		return fmt.Errorf("profile: invalid device type: %w", err)
	}
	*t = TypeName(n)
	return nil
}

func (t TypeName) DeviceType() virtio.DeviceType { return virtio.DeviceType(t) }

// Transitional PCI device IDs for the device types that have one.
var legacyDeviceIDs = map[virtio.DeviceType]uint16{
	virtio.DeviceTypeNetwork: 0x1000,
	virtio.DeviceTypeBlock:   0x1001,
	virtio.DeviceTypeBalloon: 0x1002,
	virtio.DeviceTypeConsole: 0x1003,
	virtio.DeviceTypeSCSI:    0x1004,
	virtio.DeviceTypeEntropy: 0x1005,
	virtio.DeviceTypeFS:      0x1009,
}

// PCIFunction describes one synthetic virtio PCI function.
type PCIFunction struct {
	// DeviceID overrides the transitional device ID; when zero it is
	// derived from Type. Types without a transitional ID must set it.
	DeviceID uint16   `yaml:"device-id"`
	Type     TypeName `yaml:"type"`
	Features uint64   `yaml:"features"`
	// Broken omits the capability chain so transport construction
	// fails, modelling an incompatible capability layout.
	Broken bool `yaml:"broken"`
}

func (f PCIFunction) deviceID() (uint16, error) {
	if f.DeviceID != 0 {
		return f.DeviceID, nil
	}
	if id, ok := legacyDeviceIDs[f.Type.DeviceType()]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("profile: device type %s needs an explicit device-id", f.Type.DeviceType())
}

// MMIOSlot describes one platform-discovered virtio MMIO device.
type MMIOSlot struct {
	Base     uint64   `yaml:"base"`
	Type     TypeName `yaml:"type"`
	Features uint64   `yaml:"features"`
}

// Profile is a whole described machine.
type Profile struct {
	Machine string        `yaml:"machine"`
	PCI     []PCIFunction `yaml:"pci-devices"`
	MMIO    []MMIOSlot    `yaml:"mmio-devices"`
}

// Parse decodes a profile document. Unknown fields are rejected so typos
// in hand-written profiles surface instead of silently describing nothing.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("profile: parse: %w", err)
	}
	return &p, nil
}

// Load reads and parses a profile file.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("profile: read %s: %w", path, err)
	}
	return Parse(data)
}

// Apply materializes every described PCI function into reg, in document
// order (which becomes discovery order for the probe).
func (p *Profile) Apply(reg *pci.Registry) error {
	for i, f := range p.PCI {
		devID, err := f.deviceID()
		if err != nil {
			return fmt.Errorf("pci-devices[%d]: %w", i, err)
		}
		raw, err := virtio.NewSimRawDevice(devID, f.Type.DeviceType(), f.Features, f.Broken)
		if err != nil {
			return fmt.Errorf("pci-devices[%d]: %w", i, err)
		}
		reg.Add(raw)
	}
	return nil
}

// Enumerator returns the platform MMIO enumeration described by the
// profile, or nil when it describes none.
func (p *Profile) Enumerator() virtio.MMIOEnumerator {
	if len(p.MMIO) == 0 {
		return nil
	}
	slots := p.MMIO
	return func() ([]*virtio.MMIOTransport, error) {
		out := make([]*virtio.MMIOTransport, 0, len(slots))
		for _, s := range slots {
			out = append(out, virtio.NewMMIOTransport(s.Base, s.Type.DeviceType(), s.Features))
		}
		return out, nil
	}
}
