package profile

import (
	"testing"

	"github.com/ZZJJWarth/DragonOS/internal/device"
	"github.com/ZZJJWarth/DragonOS/internal/pci"
	"github.com/ZZJJWarth/DragonOS/internal/virtio"
)

const demoProfile = `
machine: demo
pci-devices:
  - type: block
    features: 0x107
  - type: network
    features: 0x23
  - type: gpu
    device-id: 0x1010
  - type: block
    broken: true
mmio-devices:
  - base: 0x0a000000
    type: network
    features: 0x23
`

func TestParseAndApply(t *testing.T) {
	p, err := Parse([]byte(demoProfile))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Machine != "demo" {
		t.Fatalf("machine parsed as %q", p.Machine)
	}
	if len(p.PCI) != 4 || len(p.MMIO) != 1 {
		t.Fatalf("parsed %d pci and %d mmio devices", len(p.PCI), len(p.MMIO))
	}
	if p.PCI[0].Type.DeviceType() != virtio.DeviceTypeBlock {
		t.Fatalf("first device type is %v", p.PCI[0].Type.DeviceType())
	}

	reg := pci.NewRegistry()
	if err := p.Apply(reg); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if reg.Len() != 4 {
		t.Fatalf("registry holds %d devices", reg.Len())
	}
	devs := reg.Devices()
	if devs[0].Header.Device != 0x1001 {
		t.Fatalf("block function got transitional id %#x", devs[0].Header.Device)
	}
	if devs[2].Header.Device != 0x1010 {
		t.Fatalf("gpu function got id %#x", devs[2].Header.Device)
	}
}

func TestProfileDrivesProbe(t *testing.T) {
	p, err := Parse([]byte(demoProfile))
	if err != nil {
		t.Fatal(err)
	}
	reg := pci.NewRegistry()
	if err := p.Apply(reg); err != nil {
		t.Fatal(err)
	}

	var blocks, nets int
	disp := virtio.NewDispatcher(
		func(tr virtio.Transport, _ *device.ID) error { blocks++; return nil },
		func(tr virtio.Transport, _ *device.ID) error { nets++; return nil },
	)
	if err := virtio.Probe(reg, p.Enumerator(), disp); err != nil {
		t.Fatalf("Probe: %v", err)
	}
	// One working PCI block device (the broken one is skipped), one PCI
	// network plus one MMIO network; the gpu function is unsupported.
	if blocks != 1 {
		t.Fatalf("block entry point invoked %d times", blocks)
	}
	if nets != 2 {
		t.Fatalf("net entry point invoked %d times", nets)
	}
}

func TestParseRejectsUnknownFieldsAndTypes(t *testing.T) {
	if _, err := Parse([]byte("machine: x\npci-devices:\n  - typ: block\n")); err == nil {
		t.Fatal("typo field accepted")
	}
	if _, err := Parse([]byte("pci-devices:\n  - type: warp-drive\n")); err == nil {
		t.Fatal("unknown type name accepted")
	}
}

func TestDeviceIDRequiredForModernOnlyTypes(t *testing.T) {
	p, err := Parse([]byte("pci-devices:\n  - type: input\n"))
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Apply(pci.NewRegistry()); err == nil {
		t.Fatal("input device without device-id accepted")
	}
}
