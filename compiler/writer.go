package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// WriteFile writes res.Source to the configured output. Concurrent writers,
// including other processes, are serialized by an exclusive lock on
// "<output>.lock"; the file is replaced atomically through a rename.
func (c *Compiler) WriteFile(res *Result) error {
	if c.cfg.Output == "" {
		return ErrNoOutput
	}
	return writeLocked(c.cfg.Output, res.Source, c.logger)
}

func writeLocked(output string, src []byte, logger *zap.Logger) (err error) {
	dir := filepath.Dir(output)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	lockFile, err := os.OpenFile(output+".lock", os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	defer lockFile.Close()

	if err := lock(lockFile); err != nil {
		return fmt.Errorf("lock %s: %w", lockFile.Name(), err)
	}
	defer func() {
		if uerr := unlock(lockFile); uerr != nil && err == nil {
			err = fmt.Errorf("unlock %s: %w", lockFile.Name(), uerr)
		}
	}()

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(output)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(src); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), output); err != nil {
		return fmt.Errorf("rename to %s: %w", output, err)
	}

	logger.Info("container written", zap.String("output", output), zap.Int("bytes", len(src)))
	return nil
}
