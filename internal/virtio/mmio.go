package virtio

import "fmt"

// MMIOTransport is the MMIO-backed variant of Transport. The register
// file behind it belongs to the platform; this core only carries the
// identification the dispatch step needs.
type MMIOTransport struct {
	base       uint64
	deviceType DeviceType
	features   uint64
}

func NewMMIOTransport(base uint64, deviceType DeviceType, features uint64) *MMIOTransport {
	return &MMIOTransport{base: base, deviceType: deviceType, features: features}
}

func (t *MMIOTransport) Kind() TransportKind    { return TransportMMIO }
func (t *MMIOTransport) DeviceType() DeviceType { return t.deviceType }
func (t *MMIOTransport) DeviceFeatures() uint64 { return t.features }
func (t *MMIOTransport) Base() uint64           { return t.base }

func (t *MMIOTransport) String() string {
	return fmt.Sprintf("virtio-mmio@%#x %s", t.base, t.deviceType)
}

var _ Transport = (*MMIOTransport)(nil)

// MMIOEnumerator is the platform-provided probing entry point for
// MMIO-discoverable virtio devices. Unlike per-candidate PCI failures, an
// enumerator error is fatal to the probe: it indicates platform
// misconfiguration, not hardware variance.
type MMIOEnumerator func() ([]*MMIOTransport, error)
