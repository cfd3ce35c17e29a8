package pci

import (
	"fmt"
	"sync"
)

// ConfigSpace models configuration-space access for a single PCI function.
// The concrete accessor (port I/O, ECAM, a sysfs config file, an in-memory
// image) lives outside this core.
type ConfigSpace interface {
	// ReadConfig reads size bytes (1, 2 or 4) at offset, little-endian.
	ReadConfig(offset uint16, size uint8) (uint32, error)
	// WriteConfig writes size bytes at offset.
	WriteConfig(offset uint16, size uint8, value uint32) error
}

// BARSpace provides access to the memory windows behind a function's BARs.
// The register-level transport implementation is out of scope here; the
// probing core only reads identification and feature words through it.
type BARSpace interface {
	ReadBAR(bar uint8, offset uint64, size uint8) (uint32, error)
	WriteBAR(bar uint8, offset uint64, size uint8, value uint32) error
}

// MemConfigSpace is a config space backed by a flat byte image. Profiles
// and tests use it to stand in for real hardware.
type MemConfigSpace struct {
	mu    sync.Mutex
	bytes []byte
}

// NewMemConfigSpace wraps image as a config space. The image is used in
// place, not copied; 256 bytes is the usual size.
func NewMemConfigSpace(image []byte) *MemConfigSpace {
	return &MemConfigSpace{bytes: image}
}

func checkAccess(offset uint16, size uint8, limit int) error {
	switch size {
	case 1, 2, 4:
	default:
		return fmt.Errorf("pci: invalid config access size %d", size)
	}
	if int(offset)+int(size) > limit {
		return fmt.Errorf("pci: config access at %#x size %d out of range", offset, size)
	}
	return nil
}

func (m *MemConfigSpace) ReadConfig(offset uint16, size uint8) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := checkAccess(offset, size, len(m.bytes)); err != nil {
		return 0, err
	}
	var v uint32
	for i := uint8(0); i < size; i++ {
		v |= uint32(m.bytes[offset+uint16(i)]) << (8 * i)
	}
	return v, nil
}

func (m *MemConfigSpace) WriteConfig(offset uint16, size uint8, value uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := checkAccess(offset, size, len(m.bytes)); err != nil {
		return err
	}
	for i := uint8(0); i < size; i++ {
		m.bytes[offset+uint16(i)] = byte(value >> (8 * i))
	}
	return nil
}

var _ ConfigSpace = (*MemConfigSpace)(nil)
