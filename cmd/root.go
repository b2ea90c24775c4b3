package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"emperror.dev/errors"
	"github.com/NYTimes/logrotate"
	"github.com/apex/log"
	"github.com/apex/log/handlers/multi"
	"github.com/mitchellh/colorstring"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/ballastd/ballast/config"
	"github.com/ballastd/ballast/diskio"
	"github.com/ballastd/ballast/internal/stats"
	"github.com/ballastd/ballast/loggers/cli"
	"github.com/ballastd/ballast/system"
)

var (
	configPath  = config.DefaultLocation
	debug       = false
	profiler    = ""
	showVersion = false
)

var root = &cobra.Command{
	Use:   "ballast",
	Short: "Manages a reserved disk space budget for a folder",
	Run:   rootCmdRun,
}

func init() {
	root.PersistentFlags().BoolVar(&showVersion, "version", false, "show the version and exit")
	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultLocation, "set the location for the configuration file")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "pass in order to run ballast in debug mode")
	root.Flags().StringVar(&profiler, "profiler", "", "the profiler to run for this instance")

	root.AddCommand(configureCmd)
	root.AddCommand(reportCmd)
}

// Execute runs the root command and exits with a non-zero status on failure.
func Execute() {
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to execute command: %s\n", err)
		os.Exit(1)
	}
}

func rootCmdRun(*cobra.Command, []string) {
	if showVersion {
		fmt.Println(system.Version)
		os.Exit(0)
	}

	switch profiler {
	case "cpu":
		defer profile.Start(profile.CPUProfile).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile).Stop()
	case "routines":
		defer profile.Start(profile.GoroutineProfile).Stop()
	case "block":
		defer profile.Start(profile.BlockProfile).Stop()
	}

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

	r, err := d.ReservationReport()
	if err != nil {
		log.WithField("error", err).Fatal("failed to compute the reservation report")
	}

	colorstring.Printf("[green]ballast[reset] %s\n", system.Version)
	colorstring.Printf("managing [cyan]%s[reset] with a capacity of [cyan]%d[reset] bytes\n", d.Path(), d.Capacity())
	colorstring.Printf("block size [cyan]%d[reset], available [cyan]%d[reset] of [cyan]%d[reset] bytes (%d%% free)\n", d.BlockSize(), r.Available, r.Size, r.CapacityPct)
}

// Reads the configuration from the disk into the global instance, resolving
// a relative path against the working directory first.
func initConfig() error {
	p := configPath
	if !filepath.IsAbs(p) {
		d, err := os.Getwd()
		if err != nil {
			return err
		}
		p = filepath.Clean(filepath.Join(d, configPath))
	}

	if s, err := os.Stat(p); err != nil {
		return err
	} else if s.IsDir() {
		return errors.New("cannot use a directory as the configuration file path")
	}

	return config.FromFile(p)
}

// Configures the global logger, adding a rotated log file next to the
// terminal handler when a log directory is configured.
func initLogging() error {
	log.SetLevel(log.InfoLevel)
	if debug || config.Get().Debug {
		log.SetLevel(log.DebugLevel)
	}

	dir := config.Get().System.LogDirectory
	if dir == "" {
		log.SetHandler(cli.Default)
		return nil
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, "cmd: failed to create log directory")
	}
	w, err := logrotate.NewFile(filepath.Join(dir, "ballast.log"))
	if err != nil {
		return errors.Wrap(err, "cmd: failed to open log file")
	}
	log.SetHandler(multi.New(cli.Default, cli.New(w.File, false)))
	return nil
}

// newDiskIO wires the configured folder and capacity together with the
// native stats implementation.
func newDiskIO() (*diskio.DiskIO, error) {
	c := config.Get()
	s := stats.New(time.Duration(c.System.DiskStatsTTL) * time.Second)
	return diskio.New(c.Reservation.Folder, c.Reservation.Capacity, s)
}
