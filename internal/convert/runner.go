package convert

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"
)

// Runner executes an external conversion tool. Tests substitute a stub so
// no host binaries are needed.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner shells out on the host. Converters report decode problems on
// stderr, so failures come back with its tail attached.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		slog.Error("converter failed",
			"tool", name,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return fmt.Errorf("%s: %w (%s)", name, err, truncate(stderr.String(), 512))
	}
	slog.Debug("converter ok", "tool", name, "duration_ms", time.Since(start).Milliseconds())
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
