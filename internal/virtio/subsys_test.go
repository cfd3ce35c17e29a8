package virtio

import (
	"strings"
	"testing"

	"github.com/ZZJJWarth/DragonOS/internal/device"
	"github.com/ZZJJWarth/DragonOS/internal/kernfs"
	"github.com/ZZJJWarth/DragonOS/internal/pci"
	"github.com/ZZJJWarth/DragonOS/internal/sysfs"
)

// End to end: enumerated functions flow through transport construction,
// dispatch, bus registration and driver binding.
func TestProbeBindsSubsystemDrivers(t *testing.T) {
	reg := pci.NewRegistry()
	reg.Add(mustSimDevice(t, 0x1001, DeviceTypeBlock, 0x107, false))
	reg.Add(mustSimDevice(t, 0x1000, DeviceTypeNetwork, 0x23, false))

	bus := pci.NewBus()
	blkDrv, err := RegisterBlockDriver(bus)
	if err != nil {
		t.Fatal(err)
	}
	netDrv, err := RegisterNetDriver(bus)
	if err != nil {
		t.Fatal(err)
	}

	disp := NewDispatcher(BlockEntry(bus), NetEntry(bus))
	if err := Probe(reg, nil, disp); err != nil {
		t.Fatalf("Probe: %v", err)
	}

	if got := len(blkDrv.Devices()); got != 1 {
		t.Fatalf("block driver bound %d devices, want 1", got)
	}
	if got := len(netDrv.Devices()); got != 1 {
		t.Fatalf("net driver bound %d devices, want 1", got)
	}

	blkDev := blkDrv.Devices()[0].(*Device)
	if blkDev.Transport().DeviceType() != DeviceTypeBlock {
		t.Fatalf("block driver got a %v device", blkDev.Transport().DeviceType())
	}
	if drv, ok := blkDev.Driver(); !ok || drv.Name() != "virtio_blk" {
		t.Fatal("block device does not point back at virtio_blk")
	}
	if b, ok := blkDev.Bus(); !ok || b.Name() != "pci" {
		t.Fatal("block device does not point back at the pci bus")
	}
}

func TestMMIODeviceBindsThroughSameDispatch(t *testing.T) {
	bus := pci.NewBus()
	netDrv, err := RegisterNetDriver(bus)
	if err != nil {
		t.Fatal(err)
	}
	disp := NewDispatcher(BlockEntry(bus), NetEntry(bus))

	enum := MMIOEnumerator(func() ([]*MMIOTransport, error) {
		return []*MMIOTransport{NewMMIOTransport(0x0a000000, DeviceTypeNetwork, 0x23)}, nil
	})
	if err := Probe(pci.NewRegistry(), enum, disp); err != nil {
		t.Fatal(err)
	}
	if got := len(netDrv.Devices()); got != 1 {
		t.Fatalf("net driver bound %d devices, want 1", got)
	}
	dev := netDrv.Devices()[0].(*Device)
	if dev.Transport().Kind() != TransportMMIO {
		t.Fatalf("bound device has %v transport", dev.Transport().Kind())
	}
}

func TestDeviceAttributes(t *testing.T) {
	tr := NewMMIOTransport(0x0a000000, DeviceTypeBlock, 0x107)
	id, err := device.NewID("", "2")
	if err != nil {
		t.Fatal(err)
	}
	dev := NewDevice(tr, id)

	groups := dev.AttributeGroups()
	if len(groups) != 1 || groups[0].Name() != "virtio" {
		t.Fatalf("unexpected attribute groups %v", groups)
	}

	dev.SetInode(kernfs.NewInode(dev.Name(), 0o755))
	if err := sysfs.CreateGroups(dev, groups); err != nil {
		t.Fatalf("CreateGroups: %v", err)
	}
	dir, ok := dev.Inode().Child("virtio")
	if !ok || dir.ChildCount() != 3 {
		t.Fatal("attribute nodes not materialized")
	}

	buf := make([]byte, 64)
	for _, attr := range groups[0].Attributes() {
		n, err := sysfs.ShowAttribute(attr, dev, buf)
		if err != nil {
			t.Fatalf("show %s: %v", attr.Name(), err)
		}
		switch attr.Name() {
		case "device_type":
			if strings.TrimSpace(string(buf[:n])) != "block" {
				t.Fatalf("device_type shows %q", buf[:n])
			}
		case "features":
			if !strings.HasPrefix(string(buf[:n]), "0x") {
				t.Fatalf("features shows %q", buf[:n])
			}
		case "transport":
			if strings.TrimSpace(string(buf[:n])) != "mmio" {
				t.Fatalf("transport shows %q", buf[:n])
			}
		}
		if _, err := sysfs.StoreAttribute(attr, dev, []byte("x")); err == nil {
			t.Fatalf("store on read-only %s succeeded", attr.Name())
		}
	}
}
