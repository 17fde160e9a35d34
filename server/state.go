package server

import (
	"deedles.dev/shoji/compositor"
	"deedles.dev/shoji/layershell"
	"deedles.dev/shoji/seat"
	"deedles.dev/shoji/shell"
	"deedles.dev/shoji/space"
)

// State bundles the compositor-side state that the protocol layer
// manipulates on behalf of clients. All of it is single-threaded:
// every mutation happens on the goroutine that flushes the server's
// event queue.
type State struct {
	Surfaces *compositor.State
	Space    *space.Space
	Layers   *layershell.Map
	Popups   *shell.PopupManager
	Seat     *seat.Seat
}

func NewState() *State {
	return &State{
		Surfaces: compositor.NewState(),
		Space:    space.New(),
		Layers:   layershell.NewMap(),
		Popups:   shell.NewPopupManager(),
		Seat:     seat.New("seat0"),
	}
}

// Handler is the policy side of the compositor: it decides where
// windows go. The protocol layer calls it when surfaces gain or lose
// content; the handler places them in the space, or doesn't.
type Handler interface {
	// MapWindow is called when a window first gets committed content.
	MapWindow(w *shell.Window)

	// UnmapWindow is called when a mapped window loses its content or
	// is destroyed.
	UnmapWindow(w *shell.Window)

	// MapLayerSurface is called when a layer surface first gets
	// committed content. The surface is already in the layer map.
	MapLayerSurface(ls *layershell.Surface)

	// UnmapLayerSurface is called when a mapped layer surface loses
	// its content or is destroyed.
	UnmapLayerSurface(ls *layershell.Surface)
}
