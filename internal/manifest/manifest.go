// Package manifest persists alignment requests in the aligner's manifest
// format: one JSON object per line with audio_filepath and text keys.
package manifest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"texthighlight/internal/fileutil"
	"texthighlight/internal/services"
)

// Request is a single alignment job. Text must already be normalized.
type Request struct {
	AudioPath string `json:"audio_filepath"`
	Text      string `json:"text"`
}

// Write persists req at path, creating parent directories as needed. The audio
// file must exist when Write is called; the check runs before anything is
// written.
func Write(path string, req Request) error {
	if path == "" {
		return services.Wrap(services.ErrIO, "write_manifest", "", "manifest path required", nil)
	}
	if _, err := os.Stat(req.AudioPath); err != nil {
		return services.Wrap(services.ErrIO, "write_manifest", "stat audio", req.AudioPath, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return services.Wrap(services.ErrIO, "write_manifest", "create directory", filepath.Dir(path), err)
	}
	err := fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return Encode(w, req)
	})
	if err != nil {
		return services.Wrap(services.ErrIO, "write_manifest", "write", path, err)
	}
	return nil
}

// Encode writes req as one manifest line.
func Encode(w io.Writer, req Request) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(req)
}

// Read loads every request line from a manifest file. Blank lines are ignored.
func Read(path string) ([]Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Request
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var req Request
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("parse manifest line %d: %w", line, err)
		}
		out = append(out, req)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return out, nil
}
