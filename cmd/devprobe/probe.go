package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ZZJJWarth/DragonOS/internal/pci"
	"github.com/ZZJJWarth/DragonOS/internal/profile"
	"github.com/ZZJJWarth/DragonOS/internal/virtio"
)

var probeCmd = &cobra.Command{
	Use:   "probe <profile.yaml>",
	Short: "Run virtio probing against a machine profile",
	Long: "Loads a YAML machine profile, materializes its devices into a PCI " +
		"registry, runs the full virtio probe and prints how each device was " +
		"dispatched and bound.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prof, err := profile.Load(args[0])
		if err != nil {
			return err
		}

		reg := pci.NewRegistry()
		if err := prof.Apply(reg); err != nil {
			return err
		}

		bus := pci.NewBus()
		if _, err := virtio.RegisterBlockDriver(bus); err != nil {
			return fmt.Errorf("register block driver: %w", err)
		}
		if _, err := virtio.RegisterNetDriver(bus); err != nil {
			return fmt.Errorf("register net driver: %w", err)
		}

		disp := virtio.NewDispatcher(virtio.BlockEntry(bus), virtio.NetEntry(bus))
		if err := virtio.Probe(reg, prof.Enumerator(), disp); err != nil {
			return fmt.Errorf("probe: %w", err)
		}

		if prof.Machine != "" {
			fmt.Printf("machine: %s\n\n", prof.Machine)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DEVICE\tTYPE\tTRANSPORT\tFEATURES\tDRIVER\tSTATE")
		for _, member := range bus.Devices().Members() {
			dev, ok := member.(*virtio.Device)
			if !ok {
				continue
			}
			driverName := "-"
			if drv, ok := dev.Driver(); ok {
				driverName = drv.Name()
			}
			t := dev.Transport()
			fmt.Fprintf(w, "%s\t%s\t%s\t%#x\t%s\t%s\n",
				dev.Name(), t.DeviceType(), t.Kind(), t.DeviceFeatures(), driverName, dev.DevState())
		}
		w.Flush()

		fmt.Printf("\n%d devices registered on the %s bus\n", bus.Devices().Len(), bus.Name())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
}
