// Package res holds static text resources for the SpectraTune application.
package res

// AboutContent contains the Markdown content for the About dialog.
// This is maintained separately for easy updates.
const AboutContent = `A small audio player with a live frequency-spectrum visualizer, built with Go and Fyne.

**Features:**
- Play MP3, WAV, FLAC and OGG files
- Spectrum bars that follow the music, with an idle animation when nothing plays
- Playlist with fuzzy filter, folder scan and M3U import
- Remembers your volume between sessions
`
