package format

import (
	"errors"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/tracklog/internal/domain"
)

// File extensions appended to a base path by the tracker agent.
const (
	RegistryExt = ".ttr"
	TraceExt    = ".tte"
)

// Paths derives the registry and trace file paths from base.
func Paths(base string) (registryPath, tracePath string) {
	return base + RegistryExt, base + TraceExt
}

// readFile reads path fully. The handle is released on every exit path and a
// close failure is reported like a read failure.
func readFile(op, path string, diag domain.Diagnostics) (data []byte, err error) {
	f, err := os.Open(path)
	if err != nil {
		switch {
		case errors.Is(err, os.ErrNotExist):
			diag.Error("file not found", zap.String("path", path))
		case errors.Is(err, os.ErrPermission):
			diag.Error("permission denied", zap.String("path", path))
		default:
			diag.Error("failed to open file", zap.String("path", path), zap.Error(err))
		}
		return nil, domain.IOError(op, path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			diag.Error("failed to close file", zap.String("path", path), zap.Error(cerr))
			if err == nil {
				data, err = nil, domain.IOError(op, path, cerr)
			}
		}
	}()

	data, err = io.ReadAll(f)
	if err != nil {
		diag.Error("failed to read file", zap.String("path", path), zap.Error(err))
		return nil, domain.IOError(op, path, err)
	}
	return data, nil
}

// withPath attaches path to a decode error that was produced without one.
func withPath(err error, path string) error {
	var de *domain.Error
	if errors.As(err, &de) && de.Path == "" {
		cp := *de
		cp.Path = path
		return &cp
	}
	return err
}

func diagOrNop(diag domain.Diagnostics) domain.Diagnostics {
	if diag == nil {
		return domain.NopDiagnostics{}
	}
	return diag
}
