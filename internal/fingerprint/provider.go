package fingerprint

import (
	"context"
	"errors"
	"math/bits"
	"strconv"
	"strings"
)

// ErrUnavailable indicates the fingerprinting tool is not installed or could
// not produce output for the file.
var ErrUnavailable = errors.New("fingerprint unavailable")

// Provider computes an acoustic fingerprint for an audio file. The returned
// string is the encoded form suitable for persistence; decode it with Parse
// before comparing.
type Provider interface {
	Compute(ctx context.Context, path string) (string, error)
}

// Encode renders raw subfingerprints as a comma-separated string for storage.
func Encode(fp []uint32) string {
	if len(fp) == 0 {
		return ""
	}
	parts := make([]string, len(fp))
	for i, v := range fp {
		parts[i] = strconv.FormatUint(uint64(v), 10)
	}
	return strings.Join(parts, ",")
}

// Parse decodes a stored fingerprint back into raw subfingerprints.
func Parse(encoded string) []uint32 {
	if strings.TrimSpace(encoded) == "" {
		return nil
	}
	parts := strings.FieldsFunc(encoded, func(r rune) bool { return r == ',' || r == ' ' })
	fp := make([]uint32, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
		if err != nil {
			continue
		}
		fp = append(fp, uint32(v))
	}
	return fp
}

// Similarity returns the fraction of matching bits between two fingerprints,
// compared over the shorter length so differing trim lengths are not
// penalized. Returns 0 when either fingerprint is empty.
func Similarity(a, b []uint32) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	var distance int
	for i := 0; i < n; i++ {
		distance += bits.OnesCount32(a[i] ^ b[i])
	}
	totalBits := 32 * n
	return 1 - float64(distance)/float64(totalBits)
}

// DurationClose reports whether two durations are near enough to plausibly be
// the same recording: within toleranceMillis or 2% of the longer duration,
// whichever is larger. Unknown durations never disqualify a pair.
func DurationClose(aMillis, bMillis, toleranceMillis int64) bool {
	if aMillis <= 0 || bMillis <= 0 {
		return true
	}
	diff := aMillis - bMillis
	if diff < 0 {
		diff = -diff
	}
	longer := max(aMillis, bMillis)
	if pct := longer * 2 / 100; pct > toleranceMillis {
		toleranceMillis = pct
	}
	return diff <= toleranceMillis
}
