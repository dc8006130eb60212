// Package publish moves freshly generated ranking files into the served data
// directory, checks them, and records when that happened.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/svipsc/ranking/internal/models"
	"github.com/svipsc/ranking/internal/rankings"
)

// Report lists the problems found by Validate
type Report struct {
	Missing []string `json:"missing"`
	Invalid []string `json:"invalid"`
}

// OK reports whether every expected file is present and usable
func (r Report) OK() bool { return len(r.Missing) == 0 && len(r.Invalid) == 0 }

// FileStat summarises one published ranking file
type FileStat struct {
	Division string `json:"division"`
	Players  int    `json:"players"`
	FileSize int64  `json:"file_size"`
}

// Importer stores a set of datasets as one snapshot
type Importer interface {
	ImportSnapshot(ctx context.Context, datasets map[string][]models.PlayerRankingEntry, meta *models.Metadata) (string, error)
}

// CopyRankingFiles copies every *.json file from srcDir into dstDir.
// A failed file does not stop the others; all failures are returned joined.
func CopyRankingFiles(srcDir, dstDir string) ([]string, error) {
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dstDir, err)
	}

	dirEntries, err := os.ReadDir(srcDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", srcDir, err)
	}

	var copied []string
	var errs []error
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		if err := copyFile(filepath.Join(srcDir, de.Name()), filepath.Join(dstDir, de.Name())); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", de.Name(), err))
			continue
		}
		copied = append(copied, de.Name())
	}
	return copied, errors.Join(errs...)
}

// copyFile copies contents and modification time
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

// Validate checks that every registry division has a non-empty, well-formed file in dir
func Validate(dir string, registry *models.Registry) Report {
	var report Report
	for _, d := range registry.Divisions() {
		name := models.DataFileName(d.Key)
		entries, err := readRankingFile(filepath.Join(dir, name))
		switch {
		case errors.Is(err, os.ErrNotExist):
			report.Missing = append(report.Missing, name)
		case err != nil:
			report.Invalid = append(report.Invalid, fmt.Sprintf("%s (%v)", name, err))
		case len(entries) == 0:
			report.Invalid = append(report.Invalid, name+" (empty)")
		}
	}
	return report
}

// WriteMetadata writes metadata.json into dir
func WriteMetadata(dir string, now time.Time) (*models.Metadata, error) {
	meta := &models.Metadata{
		LastUpdated: now.Format(time.RFC3339),
		UpdateDate:  now.Format("2006-01-02"),
		UpdateTime:  now.Format("15:04:05"),
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(dir, rankings.MetadataFile), data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write metadata: %w", err)
	}
	return meta, nil
}

// Stats summarises every ranking file in dir, sorted by division.
// Unreadable files are logged and skipped.
func Stats(dir string, logger *zap.Logger) ([]FileStat, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "ipsc_ranking_*.json"))
	if err != nil {
		return nil, err
	}

	stats := make([]FileStat, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			logger.Warn("Could not stat ranking file", zap.String("file", p), zap.Error(err))
			continue
		}
		entries, err := readRankingFile(p)
		if err != nil {
			logger.Warn("Could not read ranking file", zap.String("file", p), zap.Error(err))
			continue
		}
		division := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(p), "ipsc_ranking_"), ".json")
		stats = append(stats, FileStat{Division: division, Players: len(entries), FileSize: info.Size()})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Division < stats[j].Division })
	return stats, nil
}

// Import loads every registry division from dir and stores them as one snapshot.
// Divisions without a file are skipped; a malformed file aborts the import.
func Import(ctx context.Context, store Importer, dir string, registry *models.Registry, meta *models.Metadata) (string, error) {
	datasets := make(map[string][]models.PlayerRankingEntry, registry.Len())
	for _, d := range registry.Divisions() {
		entries, err := readRankingFile(filepath.Join(dir, models.DataFileName(d.Key)))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("division %s: %w", d.Key, err)
		}
		datasets[d.Key] = entries
	}
	if len(datasets) == 0 {
		return "", fmt.Errorf("no ranking files in %s", dir)
	}
	return store.ImportSnapshot(ctx, datasets, meta)
}

func readRankingFile(path string) ([]models.PlayerRankingEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return rankings.Decode(f)
}
