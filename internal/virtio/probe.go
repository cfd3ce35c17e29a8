package virtio

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/ZZJJWarth/DragonOS/internal/device"
	"github.com/ZZJJWarth/DragonOS/internal/pci"
)

// Handler is a subsystem entry point. It takes ownership of the transport
// and the freshly allocated device identifier and is responsible for
// completing device/driver registration on its bus.
type Handler func(t Transport, id *device.ID) error

// Dispatcher routes a constructed transport to the subsystem entry point
// for its device type. GPU and input devices are recognized but not
// supported yet; anything else is logged and skipped. No path out of
// Dispatch is an error: a device nobody claims is not a probe failure.
type Dispatcher struct {
	block Handler
	net   Handler
}

func NewDispatcher(block, net Handler) *Dispatcher {
	return &Dispatcher{block: block, net: net}
}

func (d *Dispatcher) Dispatch(t Transport, id *device.ID) {
	switch t.DeviceType() {
	case DeviceTypeBlock:
		d.invoke(d.block, t, id)
	case DeviceTypeNetwork:
		d.invoke(d.net, t, id)
	case DeviceTypeGPU:
		slog.Warn("virtio: gpu devices not supported yet", "transport", t.String())
	case DeviceTypeInput:
		slog.Warn("virtio: input devices not supported yet", "transport", t.String())
	default:
		slog.Warn("virtio: unrecognized device type", "type", t.DeviceType().String(), "transport", t.String())
	}
}

func (d *Dispatcher) invoke(h Handler, t Transport, id *device.ID) {
	if h == nil {
		slog.Warn("virtio: no entry point registered", "type", t.DeviceType().String())
		return
	}
	if err := h(t, id); err != nil {
		slog.Error("virtio: subsystem entry point failed", "type", t.DeviceType().String(), "err", err)
	}
}

// deviceSearch filters the registry down to virtio candidates: the virtio
// vendor with a device ID inside the known range, standard header only.
// Candidates come back in discovery order.
func deviceSearch(reg *pci.Registry) []*pci.RawDevice {
	var out []*pci.RawDevice
	for _, raw := range reg.DevicesByVendor(VendorID) {
		if !raw.Standard() {
			continue
		}
		if raw.Header.Device >= DeviceIDMin && raw.Header.Device <= DeviceIDMax {
			out = append(out, raw)
		}
	}
	return out
}

// ProbePCI enumerates virtio candidates from the PCI registry and feeds
// every successfully constructed transport through the dispatcher.
//
// Candidates are processed in reverse discovery order, and every
// candidate consumes one slot of the monotonically increasing local probe
// index whether or not its transport could be built; downstream index
// assignment for multi-function cards depends on both behaviors.
//
// The loop is fault isolating: a candidate whose transport cannot be
// constructed is logged and skipped, never aborting the remaining scan.
// The registry lock is not held here, so dispatch may freely register
// against other global registries.
func ProbePCI(reg *pci.Registry, disp *Dispatcher) {
	candidates := deviceSearch(reg)
	index := 0
	for i := len(candidates) - 1; i >= 0; i-- {
		raw := candidates[i]
		slog.Debug("virtio-pci: probing candidate",
			"vendor", fmt.Sprintf("%#04x", raw.Header.Vendor),
			"device", fmt.Sprintf("%#04x", raw.Header.Device),
			"index", index)

		id, err := device.NewID("", strconv.Itoa(int(raw.Header.Device)))
		if err != nil {
			slog.Error("virtio-pci: allocate device id", "err", err)
			index++
			continue
		}

		transport, err := NewPCITransport(raw, id, index)
		if err != nil {
			slog.Error("virtio-pci: transport create failed", "err", err)
		} else {
			slog.Debug("virtio-pci: detected device",
				"type", transport.DeviceType().String(),
				"features", fmt.Sprintf("%#018x", transport.DeviceFeatures()))
			disp.Dispatch(transport, id)
		}
		index++
	}
}

// ProbeMMIO runs the platform MMIO enumeration and dispatches its
// results. A nil enumerator means the platform has none. The enumerator's
// error is propagated, not recovered: probing runs once at boot and a
// failure here means the platform is misconfigured.
func ProbeMMIO(enum MMIOEnumerator, disp *Dispatcher) error {
	if enum == nil {
		return nil
	}
	transports, err := enum()
	if err != nil {
		return fmt.Errorf("virtio-mmio: enumeration failed: %w", err)
	}
	for _, t := range transports {
		id, err := device.NewID("", strconv.Itoa(int(t.DeviceType())))
		if err != nil {
			slog.Error("virtio-mmio: allocate device id", "err", err)
			continue
		}
		slog.Debug("virtio-mmio: detected device", "type", t.DeviceType().String(), "base", fmt.Sprintf("%#x", t.Base()))
		disp.Dispatch(t, id)
	}
	return nil
}

// Probe finds and dispatches all virtio devices: the PCI pass first, then
// the platform MMIO pass. Only an MMIO enumeration failure is fatal.
func Probe(reg *pci.Registry, enum MMIOEnumerator, disp *Dispatcher) error {
	ProbePCI(reg, disp)
	return ProbeMMIO(enum, disp)
}
