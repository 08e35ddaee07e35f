package metrics

import (
	"github.com/berfenger/owl2mqtt/pkg/owl"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "owl"

// Metrics exports acquisition counters and the latest sensor readings.
type Metrics struct {
	datagrams         *prometheus.CounterVec
	datagramErrors    *prometheus.CounterVec
	snapshotTimestamp *prometheus.GaugeVec
	sensorValue       *prometheus.GaugeVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		datagrams: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "datagrams_total",
			Help:      "Datagrams stored, by device class.",
		}, []string{"class"}),
		datagramErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "datagram_errors_total",
			Help:      "Acquisition failures, by reason.",
		}, []string{"reason"}),
		snapshotTimestamp: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_timestamp_seconds",
			Help:      "Reception time of the latest snapshot, by device class.",
		}, []string{"class"}),
		sensorValue: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sensor_value",
			Help:      "Latest numeric reading, by sensor.",
		}, []string{"sensor"}),
	}
}

// Instrument hooks the metrics into an owl listener or poller.
func (m *Metrics) Instrument() *owl.Instrument {
	return &owl.Instrument{
		RecordDatagram: m.recordDatagram,
		RecordError:    m.recordError,
	}
}

func (m *Metrics) recordDatagram(snapshot *owl.Snapshot) {
	class := snapshot.Class().String()
	m.datagrams.WithLabelValues(class).Inc()
	m.snapshotTimestamp.WithLabelValues(class).Set(float64(snapshot.ReceivedAt().UnixMilli()) / 1000)
}

func (m *Metrics) recordError(reason string) {
	m.datagramErrors.WithLabelValues(reason).Inc()
}

// RecordReading exports numeric readings. Labels have no gauge value.
func (m *Metrics) RecordReading(sensorId string, reading owl.Reading) {
	if reading.IsLabel {
		return
	}
	m.sensorValue.WithLabelValues(sensorId).Set(reading.Value)
}
