package config

import (
	"os"
	"path/filepath"
	"sync"

	"emperror.dev/errors"
	"github.com/creasty/defaults"
	"gopkg.in/yaml.v2"
)

// DefaultLocation is the default location of the configuration file when
// one is not provided on the command line.
const DefaultLocation = "/etc/ballast/config.yml"

type Configuration struct {
	sync.RWMutex `json:"-" yaml:"-"`

	// The location from which this configuration instance was instantiated.
	path string

	// Determines if ballast should be running in debug mode. This value is
	// ignored if the debug flag is passed through the command line arguments.
	Debug bool `default:"false" yaml:"debug"`

	Reservation ReservationConfiguration `yaml:"reservation"`

	System SystemConfiguration `yaml:"system"`
}

// ReservationConfiguration defines the managed folder and the byte budget
// that is enforced for it.
type ReservationConfiguration struct {
	// The absolute path of the folder whose disk usage is being managed. The
	// folder must exist before the reservation is constructed.
	Folder string `yaml:"folder"`

	// The total number of bytes reserved for the managed folder. Must be a
	// positive value.
	Capacity int64 `yaml:"capacity"`
}

// SystemConfiguration defines basic system level settings for the process.
type SystemConfiguration struct {
	// Directory where ballast event logs are stored. If empty, logs are only
	// written to stderr.
	LogDirectory string `default:"/var/log/ballast" yaml:"log_directory"`

	// The number of seconds that OS level disk statistics may be served from
	// cache before being refreshed. These figures are informational only, so
	// a short TTL is acceptable.
	DiskStatsTTL int `default:"5" yaml:"disk_stats_ttl"`
}

var (
	mu sync.RWMutex

	_config *Configuration
)

// NewAtPath creates a new struct and set the path where it should be stored.
// This function does not modify the currently stored global configuration.
func NewAtPath(path string) (*Configuration, error) {
	var c Configuration
	// Configures the default values for many of the configuration options
	// present in the structs. If these values are set in the configuration
	// file they will be overridden.
	if err := defaults.Set(&c); err != nil {
		return nil, err
	}
	c.path = path
	return &c, nil
}

// Set the global configuration instance.
func Set(c *Configuration) {
	mu.Lock()
	_config = c
	mu.Unlock()
}

// Get returns the global configuration instance. This is a thread-safe
// operation that will block if the configuration is presently being modified.
func Get() *Configuration {
	mu.RLock()
	c := _config
	mu.RUnlock()
	return c
}

// FromFile reads the configuration from the provided file and stores it in
// the global singleton for this instance.
func FromFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "config: could not read file")
	}

	c, err := NewAtPath(path)
	if err != nil {
		return err
	}

	// Replace environment variables within the configuration file with their
	// values from the host system.
	b = []byte(os.ExpandEnv(string(b)))

	if err := yaml.Unmarshal(b, c); err != nil {
		return errors.Wrap(err, "config: could not unmarshal file")
	}

	Set(c)
	return nil
}

// WriteToDisk writes the configuration to the disk in a YAML format at the
// path from which it was originally loaded.
func WriteToDisk(c *Configuration) error {
	// Obtain an exclusive write against the configuration object.
	c.Lock()
	defer c.Unlock()

	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(c.path, b, 0o600); err != nil {
		return err
	}
	return nil
}

// Path returns the location on the disk that this configuration instance was
// loaded from (or will be written to).
func (c *Configuration) Path() string {
	return c.path
}
