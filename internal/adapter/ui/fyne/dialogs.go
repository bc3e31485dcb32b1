package fyne

import (
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
)

// SourcePicker opens the file and folder dialogs used to add tracks. Every
// dialog starts in the directory of the previous pick.
type SourcePicker struct {
	window     fyne.Window
	extensions []string
	logger     *slog.Logger

	lastDir fyne.ListableURI
}

// NewSourcePicker creates a picker offering the given audio extensions.
func NewSourcePicker(window fyne.Window, extensions []string, logger *slog.Logger) *SourcePicker {
	return &SourcePicker{
		window:     window,
		extensions: extensions,
		logger:     logger,
	}
}

// PickAudioFile lets the user choose one audio file.
func (p *SourcePicker) PickAudioFile(onPicked func(path string)) {
	p.pickFile(p.extensions, onPicked)
}

// PickPlaylist lets the user choose an .m3u file.
func (p *SourcePicker) PickPlaylist(onPicked func(path string)) {
	p.pickFile([]string{".m3u"}, onPicked)
}

func (p *SourcePicker) pickFile(extensions []string, onPicked func(string)) {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			p.logger.Error("file dialog failed", slog.Any("error", err))
			return
		}
		if reader == nil {
			return
		}
		uri := reader.URI()
		_ = reader.Close()

		if parent, err := storage.Parent(uri); err == nil {
			p.remember(parent)
		}
		onPicked(uri.Path())
	}, p.window)

	if len(extensions) > 0 {
		fd.SetFilter(storage.NewExtensionFileFilter(extensions))
	}
	if p.lastDir != nil {
		fd.SetLocation(p.lastDir)
	}
	fd.Show()
}

// PickFolder lets the user choose a directory to scan.
func (p *SourcePicker) PickFolder(onPicked func(path string)) {
	fd := dialog.NewFolderOpen(func(dir fyne.ListableURI, err error) {
		if err != nil {
			p.logger.Error("folder dialog failed", slog.Any("error", err))
			return
		}
		if dir == nil {
			return
		}
		p.lastDir = dir
		onPicked(dir.Path())
	}, p.window)

	if p.lastDir != nil {
		fd.SetLocation(p.lastDir)
	}
	fd.Show()
}

func (p *SourcePicker) remember(dir fyne.URI) {
	lister, err := storage.ListerForURI(dir)
	if err != nil {
		p.logger.Debug("cannot list picked directory", slog.String("uri", dir.String()), slog.Any("error", err))
		return
	}
	p.lastDir = lister
}
