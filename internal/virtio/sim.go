package virtio

import (
	"fmt"
	"sync"

	"github.com/ZZJJWarth/DragonOS/internal/pci"
)

// SimBARSpace is a simulated BAR backend implementing just enough of the
// virtio common configuration window for transport construction: the
// feature-select/feature register pair. Machine profiles and tests use it
// in place of real mapped windows.
type SimBARSpace struct {
	commonBAR    uint8
	commonOffset uint64
	features     uint64

	mu       sync.Mutex
	dfSelect uint32
}

func NewSimBARSpace(commonBAR uint8, commonOffset uint32, features uint64) *SimBARSpace {
	return &SimBARSpace{
		commonBAR:    commonBAR,
		commonOffset: uint64(commonOffset),
		features:     features,
	}
}

func (s *SimBARSpace) ReadBAR(bar uint8, offset uint64, size uint8) (uint32, error) {
	if size != 4 {
		return 0, fmt.Errorf("virtio-sim: unsupported read size %d", size)
	}
	if bar != s.commonBAR {
		return 0, nil
	}
	switch offset - s.commonOffset {
	case commonDFSelect:
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.dfSelect, nil
	case commonDF:
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.dfSelect == 0 {
			return uint32(s.features), nil
		}
		if s.dfSelect == 1 {
			return uint32(s.features >> 32), nil
		}
		return 0, nil
	default:
		return 0, nil
	}
}

func (s *SimBARSpace) WriteBAR(bar uint8, offset uint64, size uint8, value uint32) error {
	if size != 4 {
		return fmt.Errorf("virtio-sim: unsupported write size %d", size)
	}
	if bar != s.commonBAR {
		return nil
	}
	if offset-s.commonOffset == commonDFSelect {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.dfSelect = value
	}
	return nil
}

var _ pci.BARSpace = (*SimBARSpace)(nil)

// Synthetic config-space layout used by BuildConfigImage.
const (
	simCapBase      = 0x40
	simCapStride    = 0x10
	simCommonBAR    = 0
	simCommonOffset = 0x0000
	simNotifyOffset = 0x1000
	simISROffset    = 0x2000
	simDeviceOffset = 0x3000
	simWindowLen    = 0x1000
)

// BuildConfigImage assembles a 256-byte configuration image for a
// transitional virtio function: common header, subsystem device type and
// a well-formed vendor capability chain (common, notify, ISR, device).
// Pass broken=true to omit the capability chain so transport construction
// fails, which is how profiles model incompatible hardware.
func BuildConfigImage(deviceID uint16, devType DeviceType, broken bool) []byte {
	img := make([]byte, 256)
	put16 := func(off int, v uint16) {
		img[off] = byte(v)
		img[off+1] = byte(v >> 8)
	}
	put32 := func(off int, v uint32) {
		img[off] = byte(v)
		img[off+1] = byte(v >> 8)
		img[off+2] = byte(v >> 16)
		img[off+3] = byte(v >> 24)
	}

	put16(0x00, VendorID)
	put16(0x02, deviceID)
	img[0x0e] = 0x00 // standard header
	put16(0x2c, VendorID)
	put16(0x2e, uint16(devType))

	if broken {
		return img
	}

	img[0x06] = 0x10 // capability list present
	img[0x34] = simCapBase

	windows := []struct {
		cfgType uint8
		offset  uint32
	}{
		{capCommonCfg, simCommonOffset},
		{capNotifyCfg, simNotifyOffset},
		{capISRCfg, simISROffset},
		{capDeviceCfg, simDeviceOffset},
	}
	for i, w := range windows {
		off := simCapBase + i*simCapStride
		img[off] = pci.CapIDVendor
		if i+1 < len(windows) {
			img[off+1] = byte(simCapBase + (i+1)*simCapStride)
		}
		img[off+capOffLen] = 16
		img[off+capOffType] = w.cfgType
		img[off+capOffBAR] = simCommonBAR
		put32(off+capOffOffset, w.offset)
		put32(off+capOffLength, simWindowLen)
	}
	return img
}

// NewSimRawDevice builds a registry-ready descriptor for a simulated
// transitional virtio function.
func NewSimRawDevice(deviceID uint16, devType DeviceType, features uint64, broken bool) (*pci.RawDevice, error) {
	img := BuildConfigImage(deviceID, devType, broken)
	cfg := pci.NewMemConfigSpace(img)
	bars := NewSimBARSpace(simCommonBAR, simCommonOffset, features)
	return pci.NewRawDevice(cfg, bars)
}
