package storage

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// MetricsDriver records operation counts, durations and transferred bytes of
// the driver it wraps.
type MetricsDriver struct {
	inner    Driver
	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
	bytes    *prometheus.CounterVec
}

var (
	_ Driver = &MetricsDriver{}
	_ URLer  = &MetricsDriver{}
)

func NewMetricsDriver(inner Driver, registerer prometheus.Registerer) (*MetricsDriver, error) {
	ops := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "s3store",
			Subsystem: "driver",
			Name:      "ops_total",
			Help:      "No of driver operations partitioned by op and outcome",
		},
		[]string{"op", "outcome"},
	)

	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "s3store",
			Subsystem: "driver",
			Name:      "op_duration_seconds",
			Help:      "Duration of driver operations partitioned by op",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	bytes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "s3store",
			Subsystem: "driver",
			Name:      "bytes_total",
			Help:      "Bytes transferred partitioned by direction",
		},
		[]string{"direction"},
	)

	for _, c := range []prometheus.Collector{ops, duration, bytes} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}

	return &MetricsDriver{
		inner:    inner,
		ops:      ops,
		duration: duration,
		bytes:    bytes,
	}, nil
}

func (m *MetricsDriver) observe(op string, start time.Time, err error) {
	m.duration.With(prometheus.Labels{"op": op}).Observe(time.Since(start).Seconds())
	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeFailure
	}
	m.ops.With(prometheus.Labels{"op": op, "outcome": outcome}).Inc()
}

func (m *MetricsDriver) Upload(ctx context.Context, entity *FileEntity, acl ACL) (string, error) {
	start := time.Now()
	path, err := m.inner.Upload(ctx, entity, acl)
	m.observe("upload", start, err)
	if err != nil {
		return "", err
	}

	m.bytes.With(prometheus.Labels{"direction": "upload"}).Add(float64(len(entity.Bytes)))
	return path, nil
}

func (m *MetricsDriver) Get(ctx context.Context, path string) ([]byte, error) {
	start := time.Now()
	b, err := m.inner.Get(ctx, path)
	m.observe("get", start, err)
	if err != nil {
		return nil, err
	}

	m.bytes.With(prometheus.Labels{"direction": "download"}).Add(float64(len(b)))
	return b, nil
}

func (m *MetricsDriver) Delete(ctx context.Context, path string) error {
	start := time.Now()
	err := m.inner.Delete(ctx, path)
	m.observe("delete", start, err)
	return err
}

func (m *MetricsDriver) URL(path string) string {
	if u, ok := m.inner.(URLer); ok {
		return u.URL(path)
	}
	return ""
}
