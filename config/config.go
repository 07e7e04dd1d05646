package config

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

const (
	DefaultFileName = "forzadash.toml"

	// Data Out port configured in the game
	DefaultPort = 9876
)

type Format int

const (
	FormatTOML Format = iota
	FormatYAML
)

type Config struct {
	Listener  ListenerConfig  `toml:"listener" yaml:"listener"`
	HTTP      HTTPConfig      `toml:"http" yaml:"http"`
	Broadcast BroadcastConfig `toml:"broadcast" yaml:"broadcast"`
	WebSocket WebSocketConfig `toml:"websocket" yaml:"websocket"`
	CarInfo   CarInfoConfig   `toml:"carinfo" yaml:"carinfo"`
	Log       LogConfig       `toml:"log" yaml:"log"`
}

type ListenerConfig struct {
	// empty means the first non-loopback IPv4 address
	Address    string `toml:"address" yaml:"address"`
	Port       int    `toml:"port" yaml:"port"`
	ReadBuffer int    `toml:"read_buffer" yaml:"read_buffer"`
}

type HTTPConfig struct {
	Address string `toml:"address" yaml:"address"`
}

type BroadcastConfig struct {
	Interval Duration `toml:"interval" yaml:"interval"`
	Encoding string   `toml:"encoding" yaml:"encoding"`
}

type WebSocketConfig struct {
	WriteWait  Duration `toml:"write_wait" yaml:"write_wait"`
	PongWait   Duration `toml:"pong_wait" yaml:"pong_wait"`
	PingPeriod Duration `toml:"ping_period" yaml:"ping_period"`
}

type CarInfoConfig struct {
	Files []string `toml:"files" yaml:"files"`
}

type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
	// rotated with lumberjack when set
	File       string `toml:"file" yaml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" yaml:"max_backups"`
}

// Duration accepts strings such as "16ms" in both toml and yaml files.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", string(text))
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

func Default() *Config {
	return &Config{
		Listener: ListenerConfig{
			Port:       DefaultPort,
			ReadBuffer: 64 * 1024,
		},
		HTTP: HTTPConfig{
			Address: ":4567",
		},
		Broadcast: BroadcastConfig{
			Interval: Duration{16 * time.Millisecond},
			Encoding: "json",
		},
		WebSocket: WebSocketConfig{
			WriteWait:  Duration{5 * time.Second},
			PongWait:   Duration{60 * time.Second},
			PingPeriod: Duration{50 * time.Second},
		},
		CarInfo: CarInfoConfig{
			Files: []string{"data/car_list.json"},
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// DefaultPath is the config file next to the running binary.
func DefaultPath() (string, error) {
	dir, err := filepath.Abs(filepath.Dir(os.Args[0]))
	if err != nil {
		return "", errors.Wrapf(err, "unable to determine binary location")
	}
	return filepath.Join(dir, DefaultFileName), nil
}

// Load reads fileName, choosing the format from its extension. A missing file
// gives the defaults. Relative car list paths are resolved against the
// directory holding fileName.
func Load(fileName string) (*Config, error) {
	config, err := load(fileName)
	if err != nil {
		return nil, err
	}
	config.resolvePaths(filepath.Dir(fileName))
	return config, nil
}

func load(fileName string) (*Config, error) {
	file, err := os.Open(fileName)
	if os.IsNotExist(err) {
		log.WithField("file", fileName).Info("no config file, using defaults")
		return Default(), nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open file %s", fileName)
	}
	defer file.Close()
	return FromReader(file, formatOf(fileName))
}

func (c *Config) resolvePaths(dir string) {
	for i, fileName := range c.CarInfo.Files {
		if !filepath.IsAbs(fileName) {
			c.CarInfo.Files[i] = filepath.Join(dir, fileName)
		}
	}
}

func formatOf(fileName string) Format {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatTOML
}

func FromReader(configReader io.Reader, format Format) (*Config, error) {
	configData, err := ioutil.ReadAll(configReader)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read config reader")
	}
	config := Default()
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(configData, config)
	default:
		_, err = toml.Decode(string(configData), config)
	}
	if err != nil {
		return nil, errors.Wrap(err, "unable to decode configuration")
	}
	if err = config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.Listener.Port < 1 || c.Listener.Port > 65535 {
		return errors.Errorf("listener port %d out of range", c.Listener.Port)
	}
	if c.Listener.ReadBuffer < 0 {
		return errors.Errorf("listener read buffer %d is negative", c.Listener.ReadBuffer)
	}
	if c.Broadcast.Interval.Duration <= 0 {
		return errors.New("broadcast interval must be positive")
	}
	switch c.Broadcast.Encoding {
	case "json", "cbor":
	default:
		return errors.Errorf("unknown broadcast encoding %q", c.Broadcast.Encoding)
	}
	if c.WebSocket.PingPeriod.Duration >= c.WebSocket.PongWait.Duration {
		return errors.New("websocket ping period must be shorter than pong wait")
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "invalid log level")
	}
	return nil
}
