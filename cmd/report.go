package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/apex/log"
	"github.com/goccy/go-json"
	"github.com/mitchellh/colorstring"
	"github.com/spf13/cobra"

	"github.com/ballastd/ballast/diskio"
)

var reportArgs struct {
	JSON bool
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the OS level disk report and the reservation report",
	Run:   reportCmdRun,
}

func init() {
	reportCmd.Flags().BoolVar(&reportArgs.JSON, "json", false, "output the reports as JSON")
}

func reportCmdRun(*cobra.Command, []string) {
	if err := initConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to read configuration: %s\n", err)
		os.Exit(1)
	}
	if err := initLogging(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to configure logging: %s\n", err)
		os.Exit(1)
	}

	d, err := newDiskIO()
	if err != nil {
		log.WithField("error", err).Fatal("failed to construct the disk reservation")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := d.WaitUntilReady(ctx); err != nil {
		log.WithField("error", err).Fatal("failed to stabilize the disk reservation")
	}

	disk, err := d.DiskReport()
	if err != nil {
		log.WithField("error", err).Fatal("failed to query disk statistics")
	}
	reservation, err := d.ReservationReport()
	if err != nil {
		log.WithField("error", err).Fatal("failed to compute the reservation report")
	}

	if reportArgs.JSON {
		out := struct {
			Disk        diskio.DiskStats         `json:"disk"`
			Reservation diskio.ReservationReport `json:"reservation"`
		}{disk, reservation}

		b, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			log.WithField("error", err).Fatal("failed to marshal reports")
		}
		fmt.Println(string(b))
		return
	}

	colorstring.Println("[bold]Disk[reset]")
	fmt.Printf("  filesystem: %s (mounted on %s)\n", disk.Filesystem, disk.MountPoint)
	fmt.Printf("  size: %d KB, used: %d KB, available: %d KB (%d%% used)\n", disk.SizeKB, disk.UsedKB, disk.AvailableKB, disk.CapacityPct)
	colorstring.Println("[bold]Reservation[reset]")
	fmt.Printf("  size: %d B, used: %d B, available: %d B (%d%% free)\n", reservation.Size, reservation.Used, reservation.Available, reservation.CapacityPct)
}
