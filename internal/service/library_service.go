// Package service provides the playback core of the SpectraTune player.
package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/ushis/m3u"

	"github.com/tejashwikalptaru/spectratune/internal/domain"
	"github.com/tejashwikalptaru/spectratune/internal/ports"
)

// AudioExtensions are the file extensions offered in the open dialog and picked up by folder scans.
var AudioExtensions = []string{".mp3", ".wav", ".m4a", ".aac", ".flac", ".ogg"}

// PlaylistExtension marks playlist files whose entries are expanded into sources.
const PlaylistExtension = ".m3u"

// LibraryService turns user selections (files, folders, playlist files) into
// playable sources.
// All operations are thread-safe via sync.RWMutex.
type LibraryService struct {
	// Dependencies (injected)
	logger *slog.Logger
	bus    ports.EventBus

	// State
	scanning      bool
	cancelScan    context.CancelFunc
	supportedExts []string

	// Concurrency control
	mu sync.RWMutex
}

// NewLibraryService creates a new library service.
func NewLibraryService(logger *slog.Logger, bus ports.EventBus) *LibraryService {
	return &LibraryService{
		logger:        logger.With(slog.String("service", "LibraryService")),
		bus:           bus,
		supportedExts: slices.Clone(AudioExtensions),
	}
}

// IsFormatSupported checks if a file has a recognised audio extension.
func (s *LibraryService) IsFormatSupported(filePath string) bool {
	return lo.Contains(s.supportedExts, strings.ToLower(filepath.Ext(filePath)))
}

// IsPlaylist checks if a file is a playlist file.
func (s *LibraryService) IsPlaylist(filePath string) bool {
	return strings.EqualFold(filepath.Ext(filePath), PlaylistExtension)
}

// GetSupportedFormats returns the recognised audio extensions, playlist extension included.
func (s *LibraryService) GetSupportedFormats() []string {
	return append(slices.Clone(s.supportedExts), PlaylistExtension)
}

// ResolveSources expands playlist files, drops unsupported files and removes
// duplicates, keeping the order of first appearance.
func (s *LibraryService) ResolveSources(paths []string) []string {
	var out []string
	for _, p := range paths {
		if s.IsPlaylist(p) {
			entries, err := s.ExpandPlaylist(p)
			if err != nil {
				s.logger.Warn("failed to read playlist", slog.String("path", p), slog.Any("error", err))
				continue
			}
			out = append(out, entries...)
			continue
		}
		out = append(out, filepath.Clean(p))
	}

	out = lo.Filter(out, func(p string, _ int) bool {
		return s.IsFormatSupported(p)
	})
	return lo.Uniq(out)
}

// ExpandPlaylist reads an M3U file and returns its local entries. Relative
// entries are resolved against the playlist's directory; URLs are skipped.
func (s *LibraryService) ExpandPlaylist(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrFileNotFound, path)
		}
		return nil, err
	}
	defer f.Close()

	p, err := m3u.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	entries := make([]string, 0, len(p))
	for _, track := range p {
		entry := strings.TrimSpace(track.Path)
		if entry == "" || strings.Contains(entry, "://") {
			continue
		}
		if !filepath.IsAbs(entry) {
			entry = filepath.Join(dir, entry)
		}
		entries = append(entries, filepath.Clean(entry))
	}
	return entries, nil
}

// ScanFolder walks folderPath recursively and returns the supported audio
// files in lexical order. The scan stops when ctx is canceled or CancelScan is called.
func (s *LibraryService) ScanFolder(ctx context.Context, folderPath string) ([]string, error) {
	s.mu.Lock()
	if s.scanning {
		s.mu.Unlock()
		return nil, domain.NewServiceError("LibraryService", "ScanFolder", "scan already in progress", nil)
	}
	s.scanning = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancelScan = cancel
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.scanning = false
		s.cancelScan = nil
		s.mu.Unlock()
	}()

	started := time.Now()
	s.bus.Publish(domain.NewScanStartedEvent(folderPath))

	files, err := s.collectAudioFiles(ctx, folderPath)
	if errors.Is(err, context.Canceled) {
		err = domain.ErrScanCancelled
	}

	s.bus.Publish(domain.NewScanCompletedEvent(folderPath, len(files), time.Since(started), err))
	if err != nil {
		return files, err
	}

	s.logger.Info("folder scanned", slog.String("path", folderPath), slog.Int("found", len(files)))
	return files, nil
}

// collectAudioFiles recursively collects all audio files in a directory.
func (s *LibraryService) collectAudioFiles(ctx context.Context, folderPath string) ([]string, error) {
	info, err := os.Stat(folderPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrFileNotFound
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, domain.ErrInvalidFilePath
	}

	files := make([]string, 0)
	err = filepath.WalkDir(folderPath, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			// Skip entries we can't access
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if s.IsFormatSupported(path) {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

// CancelScan cancels the currently running scan.
func (s *LibraryService) CancelScan() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.scanning {
		return domain.NewServiceError("LibraryService", "CancelScan", "no scan in progress", nil)
	}
	if s.cancelScan != nil {
		s.cancelScan()
	}
	return nil
}

// IsScanning returns true if a scan is currently in progress.
func (s *LibraryService) IsScanning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanning
}

// Shutdown cancels any running scan.
func (s *LibraryService) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scanning && s.cancelScan != nil {
		s.cancelScan()
	}
	return nil
}
