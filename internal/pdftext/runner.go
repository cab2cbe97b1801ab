package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// Runner abstracts command execution so tests can stub the pdftotext
// fallback.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	if err := cmd.Run(); err != nil {
		return out.Bytes(), fmt.Errorf("%s: %w: %s", name, err, errBuf.String())
	}
	return out.Bytes(), nil
}
