package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/dzx-app/dzx/internal/services"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = menuItem{}
)

// playlistItem wraps [services.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist services.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d tracks", i.playlist.TrackCount)
	if i.playlist.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.playlist.Description)
	}
	return desc
}

// menuItem is one entry on the main menu.
type menuItem struct {
	id    ActionID
	title string
	desc  string
}

func (i menuItem) FilterValue() string { return i.title }
func (i menuItem) Title() string       { return i.title }
func (i menuItem) Description() string { return i.desc }
