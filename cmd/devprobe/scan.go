package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/ZZJJWarth/DragonOS/internal/virtio"
)

const sysfsPCIPath = "/sys/bus/pci/devices"

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the host PCI bus for virtio candidates",
	Long: "Reads /sys/bus/pci/devices and lists every function, marking the " +
		"ones the virtio probe would consider candidates.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var uts unix.Utsname
		if err := unix.Uname(&uts); err == nil {
			fmt.Printf("kernel: %s %s\n\n", cstr(uts.Sysname[:]), cstr(uts.Release[:]))
		}

		entries, err := os.ReadDir(sysfsPCIPath)
		if err != nil {
			return fmt.Errorf("read sysfs: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ADDRESS\tVENDOR\tDEVICE\tVIRTIO")
		candidates := 0
		total := 0
		for _, entry := range entries {
			devPath := filepath.Join(sysfsPCIPath, entry.Name())
			vendor, err := readHex16(filepath.Join(devPath, "vendor"))
			if err != nil {
				continue
			}
			device, err := readHex16(filepath.Join(devPath, "device"))
			if err != nil {
				continue
			}
			total++

			mark := ""
			if vendor == virtio.VendorID && device >= virtio.DeviceIDMin && device <= virtio.DeviceIDMax {
				mark = "candidate"
				candidates++
			} else if vendor == virtio.VendorID {
				mark = "out-of-range"
			}
			fmt.Fprintf(w, "%s\t%04x\t%04x\t%s\n", entry.Name(), vendor, device, mark)
		}
		w.Flush()

		fmt.Printf("\n%d functions, %d virtio candidates\n", total, candidates)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

// readHex16 reads a sysfs value file of the form "0x1af4\n".
func readHex16(path string) (uint16, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	s := strings.TrimSpace(string(data))
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	return uint16(v), nil
}

func cstr(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
