package compression

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	streamsOpened = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "des_compression_streams_opened_total",
			Help: "Compression streams opened by type and direction",
		},
		[]string{"type", "direction"},
	)

	bytesRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "des_compression_bytes_read_total",
			Help: "Decompressed bytes read by compression type",
		},
		[]string{"type"},
	)
)
