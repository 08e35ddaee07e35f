package config

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/berfenger/owl2mqtt/pkg/owl"

	"go.uber.org/zap/zapcore"
)

const (
	ACQUISITION_LISTEN = "listen"
	ACQUISITION_POLL   = "poll"
)

type Config struct {
	LogLevel      zapcore.Level
	Owl           OwlConfig     `mapstructure:"owl"`
	MQTT          MQTTConfig    `mapstructure:"mqtt"`
	MonitorConfig MonitorConfig `mapstructure:"monitor"`
	Port          uint          `mapstructure:"port"`
	HttpLog       bool          `mapstructure:"http_log"`
}

type OwlConfig struct {
	Host                string
	Port                uint
	Name                string
	Mode                string
	Sensors             []string
	Acquisition         string
	TimeoutMillis       uint32 `mapstructure:"timeout_millis"`
	MinIntervalMillis   uint32 `mapstructure:"min_interval_millis"`
	RetryIntervalMillis uint32 `mapstructure:"retry_interval_millis"`
}

type MonitorConfig struct {
	PollIntervalMillis uint32 `mapstructure:"poll_interval_millis"`
}

type MQTTConfig struct {
	Host                      string
	Port                      int
	Username                  string
	Password                  string
	BaseTopic                 string `mapstructure:"base_topic"`
	HADiscoveryEnable         bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic          string `mapstructure:"ha_discovery_topic"`
	HADiscoveryRefreshMinutes uint32 `mapstructure:"ha_discovery_refresh_minutes"`
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}

// Validate checks bounds and enums and normalizes the MQTT topics in place.
func (cfg *Config) Validate() error {

	baseTopic, err := CheckMQTTTopic(cfg.MQTT.BaseTopic)
	if err != nil {
		return errors.New("invalid base topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.BaseTopic = baseTopic

	hadBaseTopic, err := CheckMQTTTopic(cfg.MQTT.HADiscoveryTopic)
	if err != nil {
		return errors.New("invalid homeassistant discovery topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.HADiscoveryTopic = hadBaseTopic

	if cfg.Owl.Port == 0 || cfg.Owl.Port > 65535 {
		return fmt.Errorf("config param owl.port must be in 1..65535, got %d", cfg.Owl.Port)
	}
	switch owl.Mode(cfg.Owl.Mode) {
	case owl.ModeMonophase, owl.ModeTriphase:
	default:
		return fmt.Errorf("config param owl.mode must be %s or %s", owl.ModeMonophase, owl.ModeTriphase)
	}
	if !slices.Contains([]string{ACQUISITION_LISTEN, ACQUISITION_POLL}, cfg.Owl.Acquisition) {
		return fmt.Errorf("config param owl.acquisition must be %s or %s", ACQUISITION_LISTEN, ACQUISITION_POLL)
	}
	for _, kind := range cfg.Owl.Sensors {
		if _, err := owl.LookupDescriptor(owl.SensorKind(kind)); err != nil {
			return fmt.Errorf("config param owl.sensors: %w", err)
		}
	}
	if cfg.Owl.TimeoutMillis < 1000 {
		return errors.New("config param owl.timeout_millis should be >= 1000")
	}
	if cfg.Owl.RetryIntervalMillis < 1000 {
		return errors.New("config param owl.retry_interval_millis should be >= 1000")
	}
	if cfg.MonitorConfig.PollIntervalMillis < 1000 {
		return errors.New("config param monitor.poll_interval_millis should be >= 1000")
	}
	return nil
}

func (c OwlConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c OwlConfig) SensorKinds() []owl.SensorKind {
	kinds := make([]owl.SensorKind, 0, len(c.Sensors))
	for _, s := range c.Sensors {
		kinds = append(kinds, owl.SensorKind(s))
	}
	return kinds
}

func (c OwlConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMillis) * time.Millisecond
}

func (c OwlConfig) RetryInterval() time.Duration {
	return time.Duration(c.RetryIntervalMillis) * time.Millisecond
}

// MinInterval is the poll throttle window. When not configured it is derived
// from the number of device classes the enabled sensors read from.
func (c OwlConfig) MinInterval() time.Duration {
	if c.MinIntervalMillis > 0 {
		return time.Duration(c.MinIntervalMillis) * time.Millisecond
	}
	sensors, err := owl.BuildSensors(c.Name, owl.Mode(c.Mode), c.SensorKinds())
	if err != nil {
		return owl.RefreshInterval(1)
	}
	return owl.RefreshInterval(len(owl.SensorClasses(sensors)))
}

func (c MonitorConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMillis) * time.Millisecond
}
