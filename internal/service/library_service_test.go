package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/spectratune/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/spectratune/internal/domain"
	"github.com/tejashwikalptaru/spectratune/internal/logger"
	"github.com/tejashwikalptaru/spectratune/internal/testutil"
)

func newTestLibraryService(t *testing.T) (*LibraryService, *eventbus.SyncEventBus) {
	t.Helper()
	bus := eventbus.NewSyncEventBus()
	svc := NewLibraryService(logger.NewTestLogger(), bus)
	t.Cleanup(func() {
		_ = svc.Shutdown()
		_ = bus.Close()
	})
	return svc, bus
}

// writeFiles creates empty files under dir and returns their paths.
func writeFiles(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	paths := make([]string, 0, len(names))
	for _, name := range names {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, nil, 0o644))
		paths = append(paths, p)
	}
	return paths
}

func TestLibraryService_IsFormatSupported(t *testing.T) {
	svc, _ := newTestLibraryService(t)

	tests := []struct {
		path string
		want bool
	}{
		{"/music/song.mp3", true},
		{"/music/SONG.MP3", true},
		{"/music/song.wav", true},
		{"/music/song.m4a", true},
		{"/music/song.aac", true},
		{"/music/song.flac", true},
		{"/music/song.ogg", true},
		{"/music/cover.jpg", false},
		{"/music/list.m3u", false},
		{"/music/noext", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.IsFormatSupported(tt.path))
		})
	}
}

func TestLibraryService_GetSupportedFormats(t *testing.T) {
	svc, _ := newTestLibraryService(t)

	formats := svc.GetSupportedFormats()

	assert.Subset(t, formats, AudioExtensions)
	assert.Contains(t, formats, PlaylistExtension)

	// The returned slice is a copy
	formats[0] = ".xyz"
	assert.True(t, svc.IsFormatSupported("a.mp3"))
}

func TestLibraryService_ExpandPlaylist(t *testing.T) {
	svc, _ := newTestLibraryService(t)
	dir := t.TempDir()

	content := "#EXTM3U\n" +
		"#EXTINF:123,Artist - One\n" +
		"one.mp3\n" +
		"#EXTINF:200,Artist - Two\n" +
		"sub/two.flac\n" +
		"/abs/three.ogg\n" +
		"http://radio.example/stream.mp3\n"
	playlist := filepath.Join(dir, "mix.m3u")
	require.NoError(t, os.WriteFile(playlist, []byte(content), 0o644))

	entries, err := svc.ExpandPlaylist(playlist)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "one.mp3"),
		filepath.Join(dir, "sub", "two.flac"),
		"/abs/three.ogg",
	}, entries)
}

func TestLibraryService_ExpandPlaylist_Missing(t *testing.T) {
	svc, _ := newTestLibraryService(t)

	_, err := svc.ExpandPlaylist(filepath.Join(t.TempDir(), "missing.m3u"))

	assert.ErrorIs(t, err, domain.ErrFileNotFound)
}

func TestLibraryService_ResolveSources(t *testing.T) {
	svc, _ := newTestLibraryService(t)
	dir := t.TempDir()

	playlist := filepath.Join(dir, "list.m3u")
	require.NoError(t, os.WriteFile(playlist, []byte("#EXTM3U\nb.mp3\nnotes.txt\na.mp3\n"), 0o644))

	got := svc.ResolveSources([]string{
		filepath.Join(dir, "a.mp3"),
		filepath.Join(dir, "cover.png"),
		playlist,
		filepath.Join(dir, ".", "c.wav"),
		filepath.Join(dir, "missing.m3u"),
	})

	assert.Equal(t, []string{
		filepath.Join(dir, "a.mp3"),
		filepath.Join(dir, "b.mp3"),
		filepath.Join(dir, "c.wav"),
	}, got)
}

func TestLibraryService_ScanFolder(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	svc, bus := newTestLibraryService(t)
	dir := t.TempDir()
	writeFiles(t, dir, "b.mp3", "a.flac", "nested/c.ogg", "nested/readme.txt", "cover.jpg")

	var started domain.ScanStartedEvent
	var completed domain.ScanCompletedEvent
	bus.Subscribe(domain.EventScanStarted, func(e domain.Event) { started = e.(domain.ScanStartedEvent) })
	bus.Subscribe(domain.EventScanCompleted, func(e domain.Event) { completed = e.(domain.ScanCompletedEvent) })

	files, err := svc.ScanFolder(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "a.flac"),
		filepath.Join(dir, "b.mp3"),
		filepath.Join(dir, "nested", "c.ogg"),
	}, files)

	assert.Equal(t, dir, started.Path)
	assert.Equal(t, dir, completed.Path)
	assert.Equal(t, 3, completed.Found)
	assert.NoError(t, completed.Err)
	assert.False(t, svc.IsScanning())
}

func TestLibraryService_ScanFolder_Errors(t *testing.T) {
	svc, _ := newTestLibraryService(t)
	dir := t.TempDir()
	file := writeFiles(t, dir, "song.mp3")[0]

	_, err := svc.ScanFolder(context.Background(), filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, domain.ErrFileNotFound)

	_, err = svc.ScanFolder(context.Background(), file)
	assert.ErrorIs(t, err, domain.ErrInvalidFilePath)
}

func TestLibraryService_ScanFolder_Cancelled(t *testing.T) {
	svc, bus := newTestLibraryService(t)
	dir := t.TempDir()
	writeFiles(t, dir, "a.mp3", "b.mp3")

	var completed domain.ScanCompletedEvent
	bus.Subscribe(domain.EventScanCompleted, func(e domain.Event) { completed = e.(domain.ScanCompletedEvent) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.ScanFolder(ctx, dir)

	assert.ErrorIs(t, err, domain.ErrScanCancelled)
	assert.ErrorIs(t, completed.Err, domain.ErrScanCancelled)
	assert.False(t, svc.IsScanning())
}

func TestLibraryService_CancelScan_FromHandler(t *testing.T) {
	svc, bus := newTestLibraryService(t)
	dir := t.TempDir()
	writeFiles(t, dir, "a.mp3")

	// The scan-started event is delivered synchronously before the walk begins
	bus.Subscribe(domain.EventScanStarted, func(domain.Event) {
		assert.True(t, svc.IsScanning())
		assert.NoError(t, svc.CancelScan())
	})

	_, err := svc.ScanFolder(context.Background(), dir)

	assert.ErrorIs(t, err, domain.ErrScanCancelled)
}

func TestLibraryService_CancelScan_NoScan(t *testing.T) {
	svc, _ := newTestLibraryService(t)

	err := svc.CancelScan()

	var svcErr *domain.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "CancelScan", svcErr.Op)
}

func TestLibraryService_ScanFolder_RejectsConcurrentScan(t *testing.T) {
	svc, bus := newTestLibraryService(t)
	dir := t.TempDir()
	writeFiles(t, dir, "a.mp3")

	var nestedErr error
	bus.Subscribe(domain.EventScanStarted, func(domain.Event) {
		_, nestedErr = svc.ScanFolder(context.Background(), dir)
	})

	_, err := svc.ScanFolder(context.Background(), dir)
	require.NoError(t, err)

	var svcErr *domain.ServiceError
	require.ErrorAs(t, nestedErr, &svcErr)
	assert.Equal(t, "ScanFolder", svcErr.Op)
}
