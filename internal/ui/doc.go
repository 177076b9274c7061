// Package ui implements the interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI is menu-driven:
//  1. [MenuView] : Pick an action (browse, convert, authorize)
//  2. [PlaylistListView] : Browse Spotify playlists; select one to convert
//  3. [InputView] : Enter a playlist URL or a manual Deezer token
//  4. [ConvertView] : Monitor real-time conversion progress
//  5. [ResultView] : Display the conversion summary and unmatched tracks
//  6. [MessageView] : Show the outcome of one-shot actions
//
// The [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Conversion progress flows through a channel from the converter, providing
// non-blocking status reporting while a conversion runs.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui
