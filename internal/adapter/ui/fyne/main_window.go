package fyne

import (
	"fmt"
	"image"
	"log/slog"
	"sync"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/spectratune/internal/adapter/ui/fyne/widgets"
	"github.com/tejashwikalptaru/spectratune/res"
)

const (
	// APPNAME is the window title.
	APPNAME = "SpectraTune"

	// progressSteps is the resolution of the progress slider.
	progressSteps = 1000

	// volumeStep is the change applied by the volume shortcuts.
	volumeStep = 5
)

// WindowConfig sizes the main window.
type WindowConfig struct {
	// CanvasWidth and CanvasHeight are the minimum spectrum canvas size
	CanvasWidth  float32
	CanvasHeight float32

	// Extensions limits the file dialog; playlist files included
	Extensions []string
}

// MainWindow is the main UI window implementing the UIView interface.
// It handles all UI rendering and user interactions.
//
// The MainWindow follows the MVP pattern:
// - It's a "dumb view" that just displays data
// - All business logic is in the Presenter
// - User interactions are forwarded to the Presenter
type MainWindow struct {
	app    fyneapp.App
	window fyneapp.Window
	logger *slog.Logger
	config WindowConfig

	// UI components
	prevButton     *widget.Button
	playButton     *widget.Button
	stopButton     *widget.Button
	nextButton     *widget.Button
	removeButton   *widget.Button
	titleLabel     *widget.Label
	artistLabel    *widget.Label
	currentTime    *widget.Label
	endTime        *widget.Label
	progressSlider *widget.Slider
	volumeSlider   *widget.Slider
	volumeLabel    *widget.Label
	statusLabel    *widget.Label
	countLabel     *widget.Label
	filterEntry    *widget.Entry
	playlist       *widget.List
	spectrum       *widgets.SpectrumView
	picker         *SourcePicker

	// View state, touched only on the UI goroutine
	rows        []string
	selectedRow int
	syncing     bool
	scrubbing   bool

	// Lifecycle management
	closeOnce sync.Once

	// Presenter (set after construction)
	presenter *Presenter
}

// NewMainWindow creates a new main window.
func NewMainWindow(app fyneapp.App, config WindowConfig, logger *slog.Logger) *MainWindow {
	w := &MainWindow{
		app:         app,
		logger:      logger.With(slog.String("component", "MainWindow")),
		config:      config,
		selectedRow: -1,
	}

	w.window = app.NewWindow(APPNAME)
	w.picker = NewSourcePicker(w.window, config.Extensions, w.logger)
	w.buildUI()
	w.window.SetMaster()

	return w
}

// SetPresenter connects the presenter to this view.
// This must be called before showing the window.
func (w *MainWindow) SetPresenter(presenter *Presenter) {
	w.presenter = presenter
	w.wirePresenterHandlers()
	w.addShortcuts()
}

// buildUI constructs the UI components.
func (w *MainWindow) buildUI() {
	// Track header with a placeholder in place of album art
	art := canvas.NewImageFromResource(theme.MediaMusicIcon())
	art.FillMode = canvas.ImageFillContain
	art.SetMinSize(fyneapp.NewSize(48, 48))

	w.titleLabel = widget.NewLabel("")
	w.titleLabel.Truncation = fyneapp.TextTruncateEllipsis
	w.titleLabel.TextStyle = fyneapp.TextStyle{Bold: true}
	w.artistLabel = widget.NewLabel("")
	w.artistLabel.TextStyle = fyneapp.TextStyle{Italic: true}
	header := container.NewBorder(nil, nil, art, nil, container.NewVBox(w.titleLabel, w.artistLabel))

	// Spectrum canvas; frames are requested from the presenter
	w.spectrum = widgets.NewSpectrumView(w.drawSpectrum,
		fyneapp.NewSize(w.config.CanvasWidth, w.config.CanvasHeight))

	// Progress slider
	w.progressSlider = widget.NewSlider(0, progressSteps)
	w.currentTime = widget.NewLabel(FormatTime(0))
	w.endTime = widget.NewLabel(FormatTime(0))
	sliderHolder := container.NewBorder(nil, nil, w.currentTime, w.endTime, w.progressSlider)

	// Control buttons
	w.prevButton = widget.NewButtonWithIcon("", theme.MediaSkipPreviousIcon(), nil)
	w.playButton = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), nil)
	w.stopButton = widget.NewButtonWithIcon("", theme.MediaStopIcon(), nil)
	w.nextButton = widget.NewButtonWithIcon("", theme.MediaSkipNextIcon(), nil)
	buttonsHBox := container.NewHBox(w.prevButton, w.playButton, w.stopButton, w.nextButton)

	// Volume slider
	w.volumeSlider = widget.NewSlider(0, 100)
	w.volumeLabel = widget.NewLabel("0%")
	volIcon := widget.NewIcon(theme.VolumeUpIcon())
	volumeHolder := container.NewBorder(nil, nil, volIcon, w.volumeLabel, w.volumeSlider)

	controls := container.NewGridWithColumns(2, buttonsHBox, volumeHolder)

	// Playlist with filter box
	w.filterEntry = widget.NewEntry()
	w.filterEntry.SetPlaceHolder("Filter playlist")
	w.playlist = widget.NewList(
		func() int {
			return len(w.rows)
		},
		func() fyneapp.CanvasObject {
			label := widget.NewLabel("")
			label.Truncation = fyneapp.TextTruncateEllipsis
			return label
		},
		func(id widget.ListItemID, obj fyneapp.CanvasObject) {
			if label, ok := obj.(*widget.Label); ok && id < len(w.rows) {
				label.SetText(w.rows[id])
			}
		},
	)
	addButton := widget.NewButtonWithIcon("Add", theme.ContentAddIcon(), w.handleOpenFile)
	w.removeButton = widget.NewButtonWithIcon("Remove", theme.ContentRemoveIcon(), nil)
	playlistTools := container.NewBorder(nil, nil, nil, container.NewHBox(addButton, w.removeButton), w.filterEntry)
	playlistPane := container.NewBorder(playlistTools, nil, nil, nil, w.playlist)

	// Status bar
	w.statusLabel = widget.NewLabel("")
	w.statusLabel.Truncation = fyneapp.TextTruncateEllipsis
	w.countLabel = widget.NewLabel("")
	statusBar := container.NewBorder(nil, nil, nil, w.countLabel, w.statusLabel)

	top := container.NewVBox(header, w.spectrum, sliderHolder, controls)
	content := container.NewBorder(top, statusBar, nil, nil, playlistPane)
	w.window.SetContent(container.NewPadded(content))

	// Menu
	w.window.SetMainMenu(fyneapp.NewMainMenu(w.createMenu()...))
	w.window.Resize(fyneapp.NewSize(w.config.CanvasWidth+40, w.config.CanvasHeight+420))
}

// wirePresenterHandlers connects UI events to presenter handlers.
func (w *MainWindow) wirePresenterHandlers() {
	if w.presenter == nil {
		return
	}

	// Button handlers
	w.playButton.OnTapped = w.presenter.OnPlayPause
	w.stopButton.OnTapped = w.presenter.OnStop
	w.nextButton.OnTapped = w.presenter.OnNext
	w.prevButton.OnTapped = w.presenter.OnPrevious
	w.removeButton.OnTapped = func() {
		w.presenter.OnRemoveTrack(w.selectedRow)
	}

	// Volume slider
	w.volumeSlider.OnChanged = w.presenter.OnVolumeChanged

	// Progress slider: dragging suspends progress updates until release
	w.progressSlider.OnChanged = func(float64) {
		if !w.scrubbing {
			w.scrubbing = true
			w.presenter.OnScrubStart()
		}
	}
	w.progressSlider.OnChangeEnded = func(value float64) {
		if !w.scrubbing {
			w.presenter.OnScrubStart()
		}
		w.scrubbing = false
		w.presenter.OnScrubEnd(value / progressSteps)
	}

	// Playlist
	w.playlist.OnSelected = func(id widget.ListItemID) {
		w.selectedRow = id
		if w.syncing {
			return
		}
		w.presenter.OnTrackSelected(id)
	}
	w.filterEntry.OnChanged = w.presenter.OnFilter
}

// createMenu creates the application menu.
func (w *MainWindow) createMenu() []*fyneapp.Menu {
	separator := fyneapp.NewMenuItemSeparator()

	openFile := fyneapp.NewMenuItem("Open File...", w.handleOpenFile)
	openFolder := fyneapp.NewMenuItem("Open Folder...", w.handleOpenFolder)
	openPlaylist := fyneapp.NewMenuItem("Import Playlist...", w.handleOpenPlaylist)
	exitMenu := fyneapp.NewMenuItem("Exit", func() {
		w.window.Close()
	})
	fileMenu := fyneapp.NewMenu("File", openFile, openFolder, openPlaylist, separator, exitMenu)

	about := fyneapp.NewMenuItem("About", func() {
		dialog.ShowCustom("About "+APPNAME, "Close", widget.NewRichTextFromMarkdown(res.AboutContent), w.window)
	})
	helpMenu := fyneapp.NewMenu("Help", about)

	return []*fyneapp.Menu{fileMenu, helpMenu}
}

// handleOpenFile handles the "Open File" menu action.
func (w *MainWindow) handleOpenFile() {
	if w.presenter == nil {
		return
	}
	w.picker.PickAudioFile(w.openPath)
}

// handleOpenPlaylist handles the "Import Playlist" menu action.
func (w *MainWindow) handleOpenPlaylist() {
	if w.presenter == nil {
		return
	}
	w.picker.PickPlaylist(w.openPath)
}

// handleOpenFolder handles the "Open Folder" menu action.
func (w *MainWindow) handleOpenFolder() {
	if w.presenter == nil {
		return
	}
	w.picker.PickFolder(w.presenter.OnFolderOpened)
}

func (w *MainWindow) openPath(path string) {
	w.presenter.OnFilesOpened([]string{path})
}

// addShortcuts adds keyboard shortcuts.
func (w *MainWindow) addShortcuts() {
	w.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyneapp.KeyUp,
		Modifier: desktop.AltModifier,
	}, func(fyneapp.Shortcut) {
		w.presenter.OnVolumeChanged(min(100, w.volumeSlider.Value+volumeStep))
	})

	w.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyneapp.KeyDown,
		Modifier: desktop.AltModifier,
	}, func(fyneapp.Shortcut) {
		w.presenter.OnVolumeChanged(max(0, w.volumeSlider.Value-volumeStep))
	})

	w.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyneapp.KeySpace,
		Modifier: desktop.AltModifier,
	}, func(fyneapp.Shortcut) {
		w.presenter.OnPlayPause()
	})
}

func (w *MainWindow) drawSpectrum(width, height int) image.Image {
	if w.presenter == nil {
		return image.NewRGBA(image.Rect(0, 0, width, height))
	}
	return w.presenter.DrawSpectrum(width, height)
}

// ShowAndRun shows the window, starts the spectrum frame clock and runs the application.
func (w *MainWindow) ShowAndRun() {
	w.spectrum.Start()
	w.window.ShowAndRun()
}

// Close stops the frame clock and closes the window.
// It's safe to call multiple times (idempotent).
func (w *MainWindow) Close() {
	w.closeOnce.Do(func() {
		w.spectrum.Stop()
		w.window.Close()
	})
}

// GetWindow returns the underlying Fyne window.
func (w *MainWindow) GetWindow() fyneapp.Window {
	return w.window
}

// UIView interface implementation

// SetPlayState updates the play/pause button state.
func (w *MainWindow) SetPlayState(playing bool) {
	if playing {
		w.playButton.SetIcon(theme.MediaPauseIcon())
	} else {
		w.playButton.SetIcon(theme.MediaPlayIcon())
	}
}

// SetVolume updates the volume slider and its percent label.
func (w *MainWindow) SetVolume(percent float64) {
	// Assign directly so OnChanged does not echo the value back
	w.volumeSlider.Value = percent
	w.volumeSlider.Refresh()
	w.volumeLabel.SetText(fmt.Sprintf("%d%%", int(percent+0.5)))
}

// SetTrackInfo updates the displayed track information.
func (w *MainWindow) SetTrackInfo(title, artist string) {
	if title == "" {
		title = "No track loaded"
	}
	w.titleLabel.SetText(title)
	w.artistLabel.SetText(artist)
}

// SetCurrentTime updates the current playback time display.
func (w *MainWindow) SetCurrentTime(text string) {
	w.currentTime.SetText(text)
}

// SetTotalTime updates the total track duration display.
func (w *MainWindow) SetTotalTime(text string) {
	w.endTime.SetText(text)
}

// SetProgress updates the progress slider position unless the user is dragging it.
func (w *MainWindow) SetProgress(fraction float64) {
	if w.scrubbing {
		return
	}
	w.progressSlider.Value = fraction * progressSteps
	w.progressSlider.Refresh()
}

// SetPlaylist replaces the visible playlist rows and highlights selected.
func (w *MainWindow) SetPlaylist(rows []string, selected int) {
	w.rows = rows
	w.playlist.Refresh()

	w.syncing = true
	defer func() { w.syncing = false }()

	if selected >= 0 && selected < len(rows) {
		w.playlist.Select(selected)
		w.selectedRow = selected
		return
	}
	w.playlist.UnselectAll()
	w.selectedRow = -1
}

// SetTrackCount updates the playlist size label.
func (w *MainWindow) SetTrackCount(count int) {
	w.countLabel.SetText(fmt.Sprintf("Tracks: %d", count))
}

// SetStatus updates the status line.
func (w *MainWindow) SetStatus(message string, isError bool) {
	if isError {
		w.statusLabel.Importance = widget.DangerImportance
	} else {
		w.statusLabel.Importance = widget.MediumImportance
	}
	w.statusLabel.SetText(message)
}

// Verify UIView implementation
var _ UIView = (*MainWindow)(nil)
