package util

import (
	"github.com/berfenger/owl2mqtt/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		Owl: config.OwlConfig{
			Host:                "127.0.0.1",
			Port:                3200,
			Name:                "OWL Test",
			Mode:                "triphase",
			Sensors:             []string{"battery", "radio", "power", "energy_today", "heating_state", "weather_temp"},
			Acquisition:         config.ACQUISITION_LISTEN,
			TimeoutMillis:       5000,
			MinIntervalMillis:   1000,
			RetryIntervalMillis: 1000,
		},
		MQTT: config.MQTTConfig{
			Host:                      "localhost",
			Port:                      1883,
			BaseTopic:                 "owl2mqtt_test",
			HADiscoveryEnable:         true,
			HADiscoveryTopic:          "homeassistant",
			HADiscoveryRefreshMinutes: 60,
		},
		MonitorConfig: config.MonitorConfig{
			PollIntervalMillis: 1000,
		},
		Port: 8080,
	}
}
