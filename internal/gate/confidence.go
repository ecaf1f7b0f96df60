package gate

import (
	"math"

	"github.com/iaerohq/aerobot/internal/answering"
)

// The answering service is not consistent about where or how it reports
// confidence: the key varies and the scale is either 0-1 or 0-100. The
// accepted key lists are explicit; anything else is treated as absent.
var (
	eventConfidenceKeys  = []string{"confidence", "confidence_score", "score", "certainty", "probability"}
	sourceConfidenceKeys = []string{"score", "confidence", "similarity", "relevance"}
)

// Confidence extracts a normalized 0-1 confidence for the event, probing
// the event payload first and then each source. The first finite value
// wins. The second return is false when no confidence-like field exists,
// which callers must treat as "skip the check", not as zero confidence.
func Confidence(ev answering.Event, sources []answering.Source) (float64, bool) {
	if v, ok := probeKeys(ev.Data, eventConfidenceKeys); ok {
		return normalizeConfidence(v), true
	}
	for _, src := range sources {
		if v, ok := probeKeys(src.Fields, sourceConfidenceKeys); ok {
			return normalizeConfidence(v), true
		}
	}
	return 0, false
}

func probeKeys(fields map[string]any, keys []string) (float64, bool) {
	if fields == nil {
		return 0, false
	}
	for _, key := range keys {
		v, ok := fields[key]
		if !ok {
			continue
		}
		f, ok := asFinite(v)
		if !ok {
			continue
		}
		return f, true
	}
	return 0, false
}

func asFinite(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// normalizeConfidence maps a raw value onto 0-1, assuming anything above
// 1 is on a 0-100 scale.
func normalizeConfidence(v float64) float64 {
	if v > 1 {
		v = v / 100
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
