package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Mode     string `mapstructure:"mode"`
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	PongWait   time.Duration `mapstructure:"pong_wait"`
	WriteWait  time.Duration `mapstructure:"write_wait"`
	SendBuffer int           `mapstructure:"send_buffer"`
	InboxSize  int           `mapstructure:"inbox_size"`

	InviteTTL        time.Duration `mapstructure:"invite_ttl"`
	RoomCreateLimit  int           `mapstructure:"room_create_limit"`
	RoomCreateWindow time.Duration `mapstructure:"room_create_window"`
	SlowPeerPolicy   string        `mapstructure:"slow_peer_policy"`

	AllowedOrigins []string `mapstructure:"allowed_origins"`
	Metrics        bool     `mapstructure:"metrics"`
}

const envPrefix = "RELAY"

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("write_wait", "10s")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("inbox_size", 1024)
	v.SetDefault("invite_ttl", "10m")
	v.SetDefault("room_create_limit", 5)
	v.SetDefault("room_create_window", "1m")
	v.SetDefault("slow_peer_policy", "drop")
	v.SetDefault("allowed_origins", []string{"*"})
	v.SetDefault("metrics", true)
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("relay", pflag.ContinueOnError)
	fs.String("config", "", "path to a YAML config file")
	fs.String("mode", "", "gin mode: release or debug")
	fs.Int("port", 0, "HTTP listen port")
	fs.String("log_level", "", "zerolog level")
	fs.Int64("read_limit", 0, "max inbound frame size in bytes")
	fs.Duration("ping_period", 0, "interval between pings")
	fs.Duration("pong_wait", 0, "time allowed to read the next pong")
	fs.Duration("write_wait", 0, "time allowed to write a frame")
	fs.Int("send_buffer", 0, "outbound frames buffered per connection")
	fs.Int("inbox_size", 0, "coordinator inbox capacity")
	fs.Duration("invite_ttl", 0, "invite lifetime, 0 disables expiry")
	fs.Int("room_create_limit", 0, "room_create requests per window, 0 disables")
	fs.Duration("room_create_window", 0, "room_create rate limit window")
	fs.String("slow_peer_policy", "", "drop or close")
	fs.StringSlice("allowed_origins", nil, "allowed WebSocket origins")
	fs.Bool("metrics", true, "expose /metrics")
	return fs
}

// Load resolves configuration from defaults, an optional YAML file, RELAY_*
// environment variables and command-line flags, in increasing precedence.
func Load(args []string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}
	// Only flags set on the command line override lower layers.
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Name != "config" {
			_ = v.BindPFlag(f.Name, f)
		}
	})

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fileName, explicit := configFile(fs)
	v.SetConfigFile(fileName)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !(errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("read config %s: %w", fileName, err)
		}
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Msg("config ready")
	return &cfg, nil
}

func configFile(fs *pflag.FlagSet) (string, bool) {
	if path, _ := fs.GetString("config"); path != "" {
		return path, true
	}
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return fmt.Sprintf("config/config.%s.yaml", env), false
}

func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.ReadLimit <= 0 {
		errs = append(errs, errors.New("read_limit must be positive"))
	}
	if c.PingPeriod <= 0 || c.PongWait <= c.PingPeriod {
		errs = append(errs, errors.New("pong_wait must exceed a positive ping_period"))
	}
	if c.WriteWait <= 0 {
		errs = append(errs, errors.New("write_wait must be positive"))
	}
	if c.SendBuffer <= 0 {
		errs = append(errs, errors.New("send_buffer must be positive"))
	}
	if c.InboxSize < 0 {
		errs = append(errs, errors.New("inbox_size must not be negative"))
	}
	if c.RoomCreateLimit > 0 && c.RoomCreateWindow <= 0 {
		errs = append(errs, errors.New("room_create_window must be positive when room_create_limit is set"))
	}
	switch c.SlowPeerPolicy {
	case "drop", "close":
	default:
		errs = append(errs, fmt.Errorf("slow_peer_policy %q must be drop or close", c.SlowPeerPolicy))
	}
	return errors.Join(errs...)
}
