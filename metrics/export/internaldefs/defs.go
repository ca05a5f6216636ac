package internaldefs

import (
	goToken "github.com/MrEthical07/goToken"
)

// CounterDef names one goToken counter for exporters.
type CounterDef struct {
	ID   goToken.MetricID
	Name string
	Help string
}

// HistogramDef names one goToken latency histogram for exporters.
type HistogramDef struct {
	ID   goToken.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: goToken.MetricSignSuccess, Name: "gotoken_sign_success_total", Help: "Tokens signed successfully."},
	{ID: goToken.MetricSignFailure, Name: "gotoken_sign_failure_total", Help: "Signing calls that returned an error."},
	{ID: goToken.MetricKeyFetchFailure, Name: "gotoken_key_fetch_failure_total", Help: "Deferred key resolutions that failed or returned unusable material."},
	{ID: goToken.MetricDecodeSuccess, Name: "gotoken_decode_success_total", Help: "Tokens decoded successfully."},
	{ID: goToken.MetricDecodeFailure, Name: "gotoken_decode_failure_total", Help: "Decode calls that returned an error."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goToken.MetricSignLatency, Name: "gotoken_sign_latency_seconds", Help: "Sign latency histogram."},
}

// HistogramUpperBounds are the bucket upper bounds in seconds, +Inf excluded. They mirror
// the microsecond buckets of goToken.Metrics.
var HistogramUpperBounds = []float64{
	0.00005,
	0.0001,
	0.00025,
	0.0005,
	0.001,
	0.005,
	0.025,
}

// HistogramBoundSuffix names each bucket, +Inf included, for exporters without native
// histograms.
var HistogramBoundSuffix = []string{
	"0_00005",
	"0_0001",
	"0_00025",
	"0_0005",
	"0_001",
	"0_005",
	"0_025",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size array, zero filling missing buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals; the last entry is
// the sample count.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
