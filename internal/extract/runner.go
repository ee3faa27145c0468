package extract

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

// Runner abstracts external command execution so the PDF front end can be
// tested without poppler installed.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout []byte, err error)
}

type execRunner struct {
	logger *zap.Logger
}

// NewRunner returns a Runner backed by os/exec.
func NewRunner(logger *zap.Logger) Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &execRunner{logger: logger}
}

func (r *execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		r.logger.Error("exec.run.fail",
			zap.String("cmd", name),
			zap.Int64("elapsed_ms", elapsed),
			zap.String("stderr", stderr.String()),
			zap.Error(err))
		return nil, fmt.Errorf("%s: %w: %s", name, err, stderr.String())
	}
	r.logger.Debug("exec.run.ok",
		zap.String("cmd", name),
		zap.Int64("elapsed_ms", elapsed),
		zap.Int("stdout_bytes", stdout.Len()))
	return stdout.Bytes(), nil
}
