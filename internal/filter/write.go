package filter

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile writes the filtered document to path. Failures wrap ErrOutputWrite.
func WriteFile(path, text string) error {
	if err := ReplaceFile(path, text); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrOutputWrite, path, err)
	}
	return nil
}

// ReplaceFile replaces dest with text. The content goes to a temporary file in
// the same directory which is then renamed over dest; no backup of the prior
// file is kept.
func ReplaceFile(dest, text string) error {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, ".toolfilter-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	_ = os.Chmod(tmpPath, 0o644)

	bw := bufio.NewWriterSize(tmp, 64*1024)
	if _, err := bw.WriteString(text); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
