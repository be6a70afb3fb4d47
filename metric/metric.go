package metric

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/deltapad/go-deltapad/app"
	"github.com/deltapad/go-deltapad/app/logger"
)

const CName = "common.metric"

var log = logger.NewNamed(CName)

type Config struct {
	Addr string `yaml:"addr"`
}

type configSource interface {
	GetMetric() Config
}

func New() Metric {
	return new(metric)
}

type Metric interface {
	Registry() *prometheus.Registry

	OperationRegistered()
	Dispatch(op string, err error)
	TransactionCommitted(deltas int)

	app.ComponentRunnable
}

type metric struct {
	registry *prometheus.Registry
	config   Config
	server   *http.Server

	opsRegistered prometheus.Counter
	dispatches    *prometheus.CounterVec
	commits       prometheus.Counter
	deltasApplied prometheus.Counter
}

func (m *metric) Init(a *app.App) (err error) {
	m.registry = prometheus.NewRegistry()
	m.config = a.MustComponent("config").(configSource).GetMetric()

	m.opsRegistered = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "deltapad",
		Subsystem: "registry",
		Name:      "operations_registered_total",
	})
	m.dispatches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "deltapad",
		Subsystem: "transaction",
		Name:      "dispatches_total",
	}, []string{"op", "result"})
	m.commits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "deltapad",
		Subsystem: "transaction",
		Name:      "commits_total",
	})
	m.deltasApplied = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "deltapad",
		Subsystem: "transaction",
		Name:      "deltas_applied_total",
	})
	for _, c := range []prometheus.Collector{m.opsRegistered, m.dispatches, m.commits, m.deltasApplied} {
		if err = m.registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *metric) Name() string {
	return CName
}

func (m *metric) Run(ctx context.Context) (err error) {
	if err = m.registry.Register(collectors.NewGoCollector()); err != nil {
		return err
	}
	if m.config.Addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	m.server = &http.Server{Addr: m.config.Addr, Handler: mux}
	var errCh = make(chan error)
	go func() {
		errCh <- m.server.ListenAndServe()
	}()
	select {
	case err = <-errCh:
		return err
	case <-time.After(time.Second / 5):
	}
	log.Info("metrics listener started", zap.String("addr", m.config.Addr))
	return nil
}

func (m *metric) Close(ctx context.Context) (err error) {
	if m.server != nil {
		err = m.server.Shutdown(ctx)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	}
	return
}

func (m *metric) Registry() *prometheus.Registry {
	return m.registry
}

func (m *metric) OperationRegistered() {
	m.opsRegistered.Inc()
}

func (m *metric) Dispatch(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.dispatches.WithLabelValues(op, result).Inc()
}

func (m *metric) TransactionCommitted(deltas int) {
	m.commits.Inc()
	m.deltasApplied.Add(float64(deltas))
}
