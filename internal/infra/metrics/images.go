package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(imageIngestTotal, imageIngestLatencyMs, imageIngestBytes) }

var (
	imageIngestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_ingest_total",
			Help: "Product image ingests by result.",
		},
		[]string{"result"}, // ok | download_failed | save_failed | rolled_back
	)

	imageIngestLatencyMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "image_ingest_latency_ms",
			Help:    "Time to download and store a product image.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
	)

	imageIngestBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "image_ingest_bytes_total",
			Help: "Bytes written to the image upload directory.",
		},
	)
)

func IncImageIngest(result string) {
	imageIngestTotal.WithLabelValues(norm(result)).Inc()
}

func ObserveImageDownload(latencyMs int64, bytes int) {
	imageIngestLatencyMs.Observe(float64(latencyMs))
	imageIngestBytes.Add(float64(bytes))
}
