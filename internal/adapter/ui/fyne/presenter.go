// Package fyne provides Fyne UI adapter implementations.
// This package implements the UI layer using the Fyne toolkit.
package fyne

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/tejashwikalptaru/spectratune/internal/domain"
	"github.com/tejashwikalptaru/spectratune/internal/ports"
	"github.com/tejashwikalptaru/spectratune/internal/service"
	"github.com/tejashwikalptaru/spectratune/internal/visualizer"
)

// UnknownArtist is shown in place of tag data, which is never read.
const UnknownArtist = "Unknown artist"

// UIView defines the interface for UI updates.
// The actual UI implementation (MainWindow) must implement this interface.
// All methods are called on the UI goroutine.
type UIView interface {
	// Playback state updates
	SetPlayState(playing bool)
	SetVolume(percent float64)

	// Track information updates
	SetTrackInfo(title, artist string)

	// Progress updates
	SetCurrentTime(text string)
	SetTotalTime(text string)
	SetProgress(fraction float64)

	// Playlist updates: rows are the visible names, selected is a row or -1
	SetPlaylist(rows []string, selected int)
	SetTrackCount(count int)

	// Status line
	SetStatus(message string, isError bool)
}

// Presenter implements the Presenter pattern (MVP architecture).
// It coordinates between services and the UI, handling all event-driven updates.
//
// Responsibilities:
// - Subscribe to events from the event bus
// - Map domain events to UI updates
// - Translate UI commands to service method calls
// - Serve spectrum frames to the rendering surface
//
// Thread-safety: presentation state is guarded by sync.RWMutex.
type Presenter struct {
	// Dependencies
	logger *slog.Logger

	// Services (injected)
	playbackService *service.PlaybackService
	libraryService  *service.LibraryService
	visualizer      *visualizer.Visualizer

	// Event bus for subscriptions
	EventBus ports.EventBus

	// dispatcher marshals background results onto the UI goroutine
	dispatcher ports.Dispatcher

	// UI view
	view UIView

	// Presentation state
	filter  string
	visible []int // playlist index per visible row
	subs    []domain.SubscriptionID

	// Background folder scans
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Concurrency control
	mu           sync.RWMutex
	shutdownOnce sync.Once
}

// NewPresenter creates a new presenter. dispatcher may be nil, in which case
// background work completes on the goroutine that produced it.
func NewPresenter(
	logger *slog.Logger,
	playbackService *service.PlaybackService,
	libraryService *service.LibraryService,
	vis *visualizer.Visualizer,
	eventBus ports.EventBus,
	dispatcher ports.Dispatcher,
	view UIView,
) *Presenter {
	if dispatcher == nil {
		dispatcher = service.ImmediateDispatcher{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Presenter{
		logger:          logger.With(slog.String("component", "Presenter")),
		playbackService: playbackService,
		libraryService:  libraryService,
		visualizer:      vis,
		EventBus:        eventBus,
		dispatcher:      dispatcher,
		view:            view,
		ctx:             ctx,
		cancel:          cancel,
	}

	// Subscribe to events
	p.subscribeToEvents()

	// Sync UI with current state
	p.syncInitialState()

	return p
}

// subscribeToEvents subscribes to all relevant events from the event bus.
func (p *Presenter) subscribeToEvents() {
	subscriptions := map[domain.EventType]domain.EventHandler{
		// Playback events
		domain.EventStateChanged:  p.onStateChanged,
		domain.EventTrackStarted:  p.onTrackStarted,
		domain.EventTrackReady:    p.onTrackReady,
		domain.EventTrackStopped:  p.onTrackStopped,
		domain.EventTrackProgress: p.onTrackProgress,
		domain.EventTrackError:    p.onTrackError,

		// Volume events
		domain.EventVolumeChanged: p.onVolumeChanged,

		// Playlist events
		domain.EventPlaylistUpdated: p.onPlaylistUpdated,

		// Status line
		domain.EventStatus: p.onStatus,

		// Scan events arrive on the scanning goroutine
		domain.EventScanStarted:   p.onScanStarted,
		domain.EventScanCompleted: p.onScanCompleted,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for eventType, handler := range subscriptions {
		p.subs = append(p.subs, p.EventBus.Subscribe(eventType, handler))
	}
}

// syncInitialState synchronizes the UI with the current application state.
func (p *Presenter) syncInitialState() {
	state := p.playbackService.State()

	p.view.SetVolume(state.Volume * 100.0)
	p.view.SetPlayState(state.State == domain.StatePlaying)
	p.view.SetCurrentTime(FormatTime(state.Position))
	p.view.SetTotalTime(FormatTime(state.Duration))
	p.view.SetProgress(state.Progress())

	if state.CurrentTrack != nil {
		p.view.SetTrackInfo(state.CurrentTrack.Name, UnknownArtist)
	} else {
		p.view.SetTrackInfo("", "")
	}

	playlist := p.playbackService.Playlist()
	p.refreshPlaylist(playlist.Tracks(), playlist.Current())
}

// Event handlers

func (p *Presenter) onStateChanged(event domain.Event) {
	e, ok := event.(domain.StateChangedEvent)
	if !ok {
		return
	}

	p.logger.Debug("playback state changed",
		slog.String("from", e.From.String()),
		slog.String("to", e.To.String()))
	p.view.SetPlayState(e.To == domain.StatePlaying)
	if e.To == domain.StateEmpty {
		p.view.SetTrackInfo("", "")
		p.view.SetCurrentTime(FormatTime(0))
		p.view.SetTotalTime(FormatTime(0))
		p.view.SetProgress(0)
	}
}

func (p *Presenter) onTrackStarted(event domain.Event) {
	e, ok := event.(domain.TrackStartedEvent)
	if !ok {
		return
	}

	p.view.SetTrackInfo(e.Track.Name, UnknownArtist)
	p.view.SetCurrentTime(FormatTime(0))
	p.view.SetTotalTime(FormatTime(0))
	p.view.SetProgress(0)
}

func (p *Presenter) onTrackReady(event domain.Event) {
	e, ok := event.(domain.TrackReadyEvent)
	if !ok {
		return
	}

	p.view.SetTotalTime(FormatTime(e.Duration))
}

func (p *Presenter) onTrackStopped(event domain.Event) {
	p.view.SetPlayState(false)
	p.view.SetCurrentTime(FormatTime(0))
	p.view.SetProgress(0)
}

func (p *Presenter) onTrackProgress(event domain.Event) {
	e, ok := event.(domain.TrackProgressEvent)
	if !ok {
		return
	}

	p.view.SetCurrentTime(FormatTime(e.Position))
	if e.Duration > 0 {
		p.view.SetTotalTime(FormatTime(e.Duration))
	}
	p.view.SetProgress(e.Fraction())
}

func (p *Presenter) onTrackError(event domain.Event) {
	e, ok := event.(domain.TrackErrorEvent)
	if !ok {
		return
	}

	p.logger.Warn("track failed",
		slog.String("source", e.Track.Source),
		slog.Int("index", e.Index),
		slog.Any("error", e.Error))
	p.view.SetPlayState(false)
}

func (p *Presenter) onVolumeChanged(event domain.Event) {
	e, ok := event.(domain.VolumeChangedEvent)
	if !ok {
		return
	}

	p.view.SetVolume(e.Volume * 100.0)
}

func (p *Presenter) onPlaylistUpdated(event domain.Event) {
	e, ok := event.(domain.PlaylistUpdatedEvent)
	if !ok {
		return
	}

	p.refreshPlaylist(e.Tracks, e.CurrentIndex)
}

func (p *Presenter) onStatus(event domain.Event) {
	e, ok := event.(domain.StatusEvent)
	if !ok {
		return
	}

	p.view.SetStatus(e.Message, e.Level == domain.StatusError)
}

func (p *Presenter) onScanStarted(event domain.Event) {
	e, ok := event.(domain.ScanStartedEvent)
	if !ok {
		return
	}

	p.dispatcher.Do(func() {
		p.view.SetStatus("Scanning: "+e.Path, false)
	})
}

func (p *Presenter) onScanCompleted(event domain.Event) {
	e, ok := event.(domain.ScanCompletedEvent)
	if !ok {
		return
	}

	var message string
	isError := e.Err != nil
	switch {
	case errors.Is(e.Err, domain.ErrScanCancelled):
		message = "Scan cancelled"
	case isError:
		message = fmt.Sprintf("Scan failed: %v", e.Err)
	default:
		message = fmt.Sprintf("Found %d file(s) in %s", e.Found, e.Duration.Round(time.Millisecond))
	}

	p.dispatcher.Do(func() {
		p.view.SetStatus(message, isError)
	})
}

// refreshPlaylist applies the active filter to tracks and pushes the rows to the view.
func (p *Presenter) refreshPlaylist(tracks []domain.Track, current int) {
	p.mu.Lock()
	visible := p.playbackService.Playlist().Search(p.filter)
	p.visible = visible
	p.mu.Unlock()

	rows := make([]string, 0, len(visible))
	for _, i := range visible {
		if i < len(tracks) {
			rows = append(rows, tracks[i].Name)
		}
	}

	_, selected, found := lo.FindIndexOf(visible, func(i int) bool {
		return i == current
	})
	if !found {
		selected = -1
	}

	p.view.SetPlaylist(rows, selected)
	p.view.SetTrackCount(len(tracks))
}

// playlistIndex maps a visible row to its playlist index, or -1.
func (p *Presenter) playlistIndex(row int) int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if row < 0 || row >= len(p.visible) {
		return -1
	}
	return p.visible[row]
}

// report logs a command failure; invalid operations are silent no-ops.
func (p *Presenter) report(op string, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, domain.ErrInvalidOperation) {
		p.logger.Debug("command ignored", slog.String("op", op), slog.Any("error", err))
		return
	}
	p.logger.Warn("command failed", slog.String("op", op), slog.Any("error", err))
}

// UI Command handlers (called by UI)

// OnPlayPause handles the play/pause button.
func (p *Presenter) OnPlayPause() {
	p.report("TogglePlayPause", p.playbackService.TogglePlayPause())
}

// OnStop handles the stop button.
func (p *Presenter) OnStop() {
	p.report("Stop", p.playbackService.Stop())
}

// OnNext handles the next button.
func (p *Presenter) OnNext() {
	p.report("Next", p.playbackService.Next())
}

// OnPrevious handles the previous button.
func (p *Presenter) OnPrevious() {
	p.report("Previous", p.playbackService.Previous())
}

// OnTrackSelected plays the track shown at row. Selecting the row of the
// live track is a no-op, so highlighting the current track never restarts it.
func (p *Presenter) OnTrackSelected(row int) {
	index := p.playlistIndex(row)
	if index < 0 {
		return
	}

	state := p.playbackService.State()
	if index == state.CurrentIndex && state.State.HasSession() {
		return
	}
	p.report("Select", p.playbackService.Select(index))
}

// OnRemoveTrack removes the track shown at row.
func (p *Presenter) OnRemoveTrack(row int) {
	index := p.playlistIndex(row)
	if index < 0 {
		p.report("RemoveTrack", domain.ErrInvalidIndex)
		return
	}
	p.report("RemoveTrack", p.playbackService.RemoveTrack(index))
}

// OnVolumeChanged handles the volume slider (0 to 100).
func (p *Presenter) OnVolumeChanged(percent float64) {
	if math.IsNaN(percent) {
		return
	}
	volume := math.Max(0, math.Min(100, percent)) / 100.0
	if math.Abs(volume-p.playbackService.Volume()) < 1e-9 {
		return
	}
	p.report("SetVolume", p.playbackService.SetVolume(volume))
}

// OnScrubStart suspends progress updates while the user drags the progress slider.
func (p *Presenter) OnScrubStart() {
	p.report("BeginScrub", p.playbackService.BeginScrub())
}

// OnScrubEnd seeks to fraction of the track and resumes progress updates.
func (p *Presenter) OnScrubEnd(fraction float64) {
	p.report("EndScrub", p.playbackService.EndScrub(fraction))
}

// OnFilesOpened adds the chosen files to the playlist. Playlist files are
// expanded and unsupported files dropped.
func (p *Presenter) OnFilesOpened(paths []string) int {
	sources := p.libraryService.ResolveSources(paths)
	if len(sources) == 0 {
		p.view.SetStatus("No supported files selected", true)
		return 0
	}
	return p.playbackService.AddTracks(sources...)
}

// OnFolderOpened scans folderPath in the background and adds what it finds.
func (p *Presenter) OnFolderOpened(folderPath string) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		files, err := p.libraryService.ScanFolder(p.ctx, folderPath)
		if err != nil {
			p.logger.Warn("folder scan failed", slog.String("path", folderPath), slog.Any("error", err))
			return
		}
		if len(files) == 0 {
			return
		}

		p.dispatcher.Do(func() {
			p.playbackService.AddTracks(files...)
		})
	}()
}

// OnFilter narrows the visible playlist rows to names matching query.
func (p *Presenter) OnFilter(query string) {
	p.mu.Lock()
	p.filter = query
	p.mu.Unlock()

	playlist := p.playbackService.Playlist()
	p.refreshPlaylist(playlist.Tracks(), playlist.Current())
}

// Frame returns the bar commands for a spectrum canvas of the given size.
func (p *Presenter) Frame(width, height int) []visualizer.BarCommand {
	return p.visualizer.Frame(width, height)
}

// DrawSpectrum renders one spectrum frame. It is called once per host frame
// from the raster widget.
func (p *Presenter) DrawSpectrum(width, height int) image.Image {
	return p.visualizer.Draw(width, height)
}

// Shutdown cancels background scans and detaches from the event bus.
// It's safe to call multiple times (idempotent).
func (p *Presenter) Shutdown() {
	p.shutdownOnce.Do(func() {
		p.cancel()
		p.wg.Wait()

		p.mu.Lock()
		subs := p.subs
		p.subs = nil
		p.mu.Unlock()

		for _, id := range subs {
			p.EventBus.Unsubscribe(id)
		}
	})
}

// FormatTime renders a duration as m:ss.
func FormatTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
