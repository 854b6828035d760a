package ctm

import (
	"bufio"
	"bytes"
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"golang.org/x/sync/errgroup"

	"texthighlight/internal/logging"
	"texthighlight/internal/services"
)

const (
	// DefaultWorkers bounds parallel file decoding when no explicit limit is set.
	DefaultWorkers = 4

	// maxLineBytes caps one CTM line. Longer lines are skipped as malformed.
	maxLineBytes = 1024 * 1024
)

// FileStats summarizes how one CTM file was decoded.
type FileStats struct {
	Path    string
	Lines   int
	Marks   int
	Skipped int
}

// Decoder reads word-level CTM directories.
type Decoder struct {
	workers int
	logger  *slog.Logger
}

// NewDecoder returns a decoder with at most workers files in flight.
func NewDecoder(workers int, logger *slog.Logger) *Decoder {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Decoder{
		workers: workers,
		logger:  logging.NewComponentLogger(logger, "decoder"),
	}
}

// Decode reads every regular file in dir and returns all marks sorted by start
// time. Marks with equal start times keep file name order, then line order.
// A missing dir is reported as services.ErrResultsMissing.
func (d *Decoder) Decode(ctx context.Context, dir string) ([]Mark, error) {
	files, err := listFiles(dir)
	if err != nil {
		return nil, err
	}
	logger := logging.WithContext(ctx, d.logger)
	if len(files) == 0 {
		logging.WarnWithContext(logger, "no word-level result files produced", "ctm_empty",
			logging.String("dir", dir),
			logging.String(logging.FieldImpact, "result will contain no marks"),
			logging.String(logging.FieldErrorHint, "check the transcript matches the audio language"),
		)
		return []Mark{}, nil
	}

	perFile := make([][]Mark, len(files))
	stats := make([]FileStats, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			marks, st, err := DecodeFile(path)
			if err != nil {
				return err
			}
			perFile[i] = marks
			stats[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, marks := range perFile {
		total += len(marks)
	}
	merged := make([]Mark, 0, total)
	for i, marks := range perFile {
		merged = append(merged, marks...)
		logger.Debug("decoded ctm file",
			logging.String("file", filepath.Base(stats[i].Path)),
			logging.Int("lines", stats[i].Lines),
			logging.Int("marks", stats[i].Marks),
			logging.Int("skipped", stats[i].Skipped),
		)
	}
	slices.SortStableFunc(merged, func(a, b Mark) int {
		return cmp.Compare(a.Start, b.Start)
	})

	logger.Info("decoded word marks",
		logging.Int("files", len(files)),
		logging.Int("marks", len(merged)),
	)
	return merged, nil
}

// DecodeFile parses one CTM file. Marks keep line order.
func DecodeFile(path string) ([]Mark, FileStats, error) {
	stats := FileStats{Path: path}
	f, err := os.Open(path)
	if err != nil {
		return nil, stats, services.Wrap(services.ErrIO, "decode_results", "open", path, err)
	}
	defer f.Close()

	var marks []Mark
	reader := bufio.NewReaderSize(f, 64*1024)
	buf := make([]byte, 0, 256)
	for {
		line, overflow, readErr := readLine(reader, buf, maxLineBytes)
		buf = line[:0]
		switch {
		case overflow:
			stats.Lines++
			stats.Skipped++
		case len(bytes.TrimSpace(line)) > 0:
			stats.Lines++
			mark, ok := ParseLine(string(line))
			if !ok {
				stats.Skipped++
				break
			}
			marks = append(marks, mark)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, stats, services.Wrap(services.ErrIO, "decode_results", "read", path, readErr)
		}
	}
	stats.Marks = len(marks)
	return marks, stats, nil
}

// readLine returns the next line, reusing buf. A line longer than limit is
// drained and reported as overflow with no content.
func readLine(r *bufio.Reader, buf []byte, limit int) ([]byte, bool, error) {
	buf = buf[:0]
	overflow := false
	for {
		chunk, err := r.ReadSlice('\n')
		if !overflow {
			if len(buf)+len(chunk) > limit {
				overflow = true
				buf = buf[:0]
			} else {
				buf = append(buf, chunk...)
			}
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		return buf, overflow, err
	}
}

func listFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrResultsMissing, "decode_results", "", fmt.Sprintf("CTM directory not found: %s", dir), nil)
		}
		return nil, services.Wrap(services.ErrIO, "decode_results", "stat", dir, err)
	}
	if !info.IsDir() {
		return nil, services.Wrap(services.ErrResultsMissing, "decode_results", "", fmt.Sprintf("CTM path is not a directory: %s", dir), nil)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "decode_results", "list", dir, err)
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}
