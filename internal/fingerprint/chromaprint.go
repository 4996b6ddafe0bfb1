package fingerprint

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"quaver/internal/config"
)

// Chromaprint is the default Provider. It runs fpcalc in raw mode and keeps
// the 32-bit subfingerprints.
type Chromaprint struct {
	binary  string
	timeout time.Duration
	length  int
}

// NewChromaprint constructs a provider from detection settings.
func NewChromaprint(cfg *config.Config) *Chromaprint {
	return &Chromaprint{
		binary:  cfg.Detect.FpcalcBinary,
		timeout: time.Duration(cfg.Detect.FpcalcTimeoutSeconds) * time.Second,
		length:  cfg.Detect.FpcalcLengthSeconds,
	}
}

// Compute fingerprints one file. fpcalc failures surface as ErrUnavailable so
// callers can leave the track unresolved rather than failing the whole pass.
func (c *Chromaprint) Compute(ctx context.Context, path string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// fpcalc -raw outputs DURATION=<sec> and FINGERPRINT=<comma-separated uint32s>.
	cmd := exec.CommandContext(runCtx, c.binary, "-raw", "-length", strconv.Itoa(c.length), path)
	out, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("%w: fpcalc failed on %s: %v", ErrUnavailable, path, err)
		}
		return "", fmt.Errorf("%w: run %s: %v", ErrUnavailable, c.binary, err)
	}

	fp := parseRawOutput(string(out))
	if len(fp) == 0 {
		return "", fmt.Errorf("%w: fpcalc produced no fingerprint for %s", ErrUnavailable, path)
	}
	return Encode(fp), nil
}

func parseRawOutput(out string) []uint32 {
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		line = strings.TrimSpace(line)
		if value, ok := strings.CutPrefix(line, "FINGERPRINT="); ok {
			return Parse(value)
		}
	}
	return nil
}
