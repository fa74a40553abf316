package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once       sync.Once
	collectors []prometheus.Collector
)

// register queues collectors from each file's init().
func register(cs ...prometheus.Collector) {
	collectors = append(collectors, cs...)
}

// MustRegister publishes every collector on the default registry. Repeat calls are no-ops.
func MustRegister() {
	once.Do(func() { prometheus.MustRegister(collectors...) })
}

// RegisterWith adds the collectors to reg, e.g. a private registry in tests.
func RegisterWith(reg prometheus.Registerer) error {
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
