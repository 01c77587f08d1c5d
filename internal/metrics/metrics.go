// Package metrics exposes Prometheus counters/gauges for the codec's hot
// paths, plus a cheap local mirror for in-process logging without scraping.
package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/kstaniek/go-vector-dbc/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EncodeTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dbc_encode_total",
		Help: "Total Message.Encode calls.",
	})
	DecodeTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dbc_decode_total",
		Help: "Total Message.Decode calls.",
	})
	EncodeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dbc_encode_errors_total",
		Help: "Encode errors by reason.",
	}, []string{"reason"})
	DecodeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dbc_decode_errors_total",
		Help: "Decode errors by reason.",
	}, []string{"reason"})
	ValidatorWarnings = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dbc_validator_warnings_total",
		Help: "Non-strict overlap/fit validator warnings emitted.",
	})
	TruncatedDecodes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dbc_truncated_decode_total",
		Help: "Decode calls whose input buffer length differed from the message length (zero-padded or truncated).",
	})
	TraceFramesReplayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dbc_trace_frames_replayed_total",
		Help: "Total frames read from a recorded trace stream.",
	})
	TraceMalformed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dbc_trace_malformed_total",
		Help: "Malformed or truncated frames encountered reading a recorded trace stream.",
	})
	BroadcastDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dbc_broadcast_dropped_total",
		Help: "Decoded frames dropped by the broadcaster due to backpressure.",
	})

	readinessMu sync.RWMutex
	readinessFn func() bool
)

// Error reason label constants (stable label values to bound cardinality).
const (
	ReasonMissingSignal = "missing_signal"
	ReasonOutOfRange    = "out_of_range"
	ReasonBadMux        = "bad_mux"
	ReasonBadChoice     = "bad_choice"
)

// Local mirrored counters for easy logging (avoid Prometheus scraping in-process).
var (
	localEncode    uint64
	localDecode    uint64
	localWarnings  uint64
	localTruncated uint64
)

// Snapshot is a cheap copy of local counters.
type Snapshot struct {
	Encode    uint64
	Decode    uint64
	Warnings  uint64
	Truncated uint64
}

func Snap() Snapshot {
	return Snapshot{
		Encode:    atomic.LoadUint64(&localEncode),
		Decode:    atomic.LoadUint64(&localDecode),
		Warnings:  atomic.LoadUint64(&localWarnings),
		Truncated: atomic.LoadUint64(&localTruncated),
	}
}

func IncEncode() {
	EncodeTotal.Inc()
	atomic.AddUint64(&localEncode, 1)
}

func IncDecode() {
	DecodeTotal.Inc()
	atomic.AddUint64(&localDecode, 1)
}

func IncEncodeError(reason string) { EncodeErrors.WithLabelValues(reason).Inc() }
func IncDecodeError(reason string) { DecodeErrors.WithLabelValues(reason).Inc() }

func IncValidatorWarning() {
	ValidatorWarnings.Inc()
	atomic.AddUint64(&localWarnings, 1)
}

func IncTruncatedDecode() {
	TruncatedDecodes.Inc()
	atomic.AddUint64(&localTruncated, 1)
}

func IncTraceFrameReplayed() { TraceFramesReplayed.Inc() }
func IncTraceMalformed()     { TraceMalformed.Inc() }
func IncBroadcastDropped()   { BroadcastDropped.Inc() }

// StartHTTP serves Prometheus metrics at /metrics on a fresh mux. Not called
// by this library itself (there is no CLI); provided for embedding
// applications.
func StartHTTP(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if IsReady() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready\n"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready\n"))
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logging.L().Info("metrics_listen", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.L().Error("metrics_http_error", "error", err)
		}
	}()
	return srv
}

// SetReadinessFunc registers a function used by /ready and IsReady.
func SetReadinessFunc(fn func() bool) { readinessMu.Lock(); readinessFn = fn; readinessMu.Unlock() }

// IsReady invokes the registered readiness function if present.
func IsReady() bool {
	readinessMu.RLock()
	fn := readinessFn
	readinessMu.RUnlock()
	if fn == nil {
		return true
	}
	return fn()
}
