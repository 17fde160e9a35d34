// Package server implements the client-facing protocol layer: the
// listening socket, per-client connections and object stores, and the
// request dispatch that drives the compositor state in response to
// protocol messages.
package server

import (
	"errors"
	"image"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"deedles.dev/shoji/compositor"
	"deedles.dev/shoji/internal/ev"
	"deedles.dev/shoji/internal/set"
	"deedles.dev/shoji/seat"
	"deedles.dev/shoji/space"
	"deedles.dev/shoji/wire"
)

// global is one entry in the registry: a named interface that clients
// can bind to.
type global struct {
	name    uint32
	iface   string
	version uint32
	bind    func(client *Client, id uint32)
}

type Server struct {
	Log *logrus.Logger

	state   *State
	handler Handler

	done    chan struct{}
	close   sync.Once
	lis     *net.UnixListener
	clients set.Set[*Client]
	queue   *ev.Queue

	globals  []*global
	nextName uint32

	// surfaces indexes every client's surface resources by compositor
	// surface ID, for routing input events back to their owners.
	surfaces map[compositor.SurfaceID]*surfaceResource

	// Pointer state in layout coordinates, tracked so that enter
	// events can carry surface-local coordinates.
	pointerPos   image.Point
	pointerLocal image.Point
}

// ListenAndServe opens a socket at the first free wayland-<n> path
// and serves clients on it.
func ListenAndServe(state *State, handler Handler) (*Server, error) {
	lis, err := wire.Listen()
	if err != nil {
		return nil, err
	}
	return NewServer(lis, state, handler), nil
}

func NewServer(lis *net.UnixListener, state *State, handler Handler) *Server {
	server := &Server{
		Log:      logrus.StandardLogger(),
		state:    state,
		handler:  handler,
		done:     make(chan struct{}),
		lis:      lis,
		clients:  make(set.Set[*Client]),
		queue:    ev.NewQueue(),
		nextName: 1,
		surfaces: make(map[compositor.SurfaceID]*surfaceResource),
	}
	server.addGlobals()
	server.wireSeat()
	go server.listen()

	return server
}

// Addr returns the path of the listening socket, suitable for
// $WAYLAND_DISPLAY.
func (server *Server) Addr() string {
	return server.lis.Addr().String()
}

func (server *Server) listen() {
	for {
		c, err := server.lis.AcceptUnix()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}

			select {
			case <-server.done:
				return
			case server.queue.Add() <- func() error { return err }:
				continue
			}
		}

		select {
		case <-server.done:
			return
		case server.queue.Add() <- func() error { server.addClient(c); return nil }:
		}
	}
}

func (server *Server) addClient(c *net.UnixConn) {
	client := newClient(server, wire.NewConn(c))
	server.clients.Add(client)
	server.Log.WithField("addr", c.RemoteAddr()).Info("client connected")
}

func (server *Server) removeClient(client *Client) {
	if !server.clients.Has(client) {
		return
	}
	server.clients.Delete(client)
	client.destroy()
	server.state.Space.Refresh()
	server.Log.Info("client disconnected")
}

func (server *Server) addGlobal(iface string, version uint32, bind func(client *Client, id uint32)) {
	server.globals = append(server.globals, &global{
		name:    server.nextName,
		iface:   iface,
		version: version,
		bind:    bind,
	})
	server.nextName++
}

func (server *Server) findGlobal(name uint32) *global {
	for _, g := range server.globals {
		if g.name == name {
			return g
		}
	}
	return nil
}

func (server *Server) addGlobals() {
	server.addGlobal("wl_compositor", 4, func(client *Client, id uint32) {
		client.addWithID(id, &compositorResource{client: client})
	})
	server.addGlobal("wl_subcompositor", 1, func(client *Client, id uint32) {
		client.addWithID(id, &subcompositorResource{client: client})
	})
	server.addGlobal("wl_shm", 1, func(client *Client, id uint32) {
		r := &shmResource{client: client}
		client.addWithID(id, r)
		r.sendFormats()
	})
	server.addGlobal("wl_seat", 5, func(client *Client, id uint32) {
		r := &seatResource{client: client}
		client.addWithID(id, r)
		r.sendCapabilities()
	})
	server.addGlobal("xdg_wm_base", 2, func(client *Client, id uint32) {
		client.addWithID(id, &wmBaseResource{client: client})
	})
	server.addGlobal("zwlr_layer_shell_v1", 2, func(client *Client, id uint32) {
		client.addWithID(id, &layerShellResource{client: client})
	})

	for _, o := range server.state.Space.Outputs() {
		server.addOutputGlobal(o)
	}
}

func (server *Server) addOutputGlobal(o *space.Output) {
	server.addGlobal("wl_output", 3, func(client *Client, id uint32) {
		r := &outputResource{client: client, output: o}
		client.addWithID(id, r)
		r.sendGeometry()
	})
}

// wireSeat routes seat focus changes and input delivery to the wire
// resources of whichever client owns the focused surface.
func (server *Server) wireSeat() {
	st := server.state.Seat

	st.OnPointerFocus = func(old, new compositor.SurfaceID) {
		serial := st.NextSerial()
		if r := server.surfaces[old]; r != nil {
			r.client.pointerLeave(serial, r)
		}
		if r := server.surfaces[new]; r != nil {
			r.client.pointerEnter(serial, r, server.pointerLocal)
		}
	}

	st.OnKeyboardFocus = func(old, new compositor.SurfaceID) {
		serial := st.NextSerial()
		if r := server.surfaces[old]; r != nil {
			r.client.keyboardLeave(serial, r)
		}
		if r := server.surfaces[new]; r != nil {
			r.client.keyboardEnter(serial, r)
		}
	}

	st.OnButton = func(serial uint32, btn seat.Button, pressed bool, focus compositor.SurfaceID) {
		if r := server.surfaces[focus]; r != nil {
			r.client.pointerButton(serial, now(), btn, pressed)
		}
	}

	st.OnKey = func(serial uint32, key uint32, pressed bool, focus compositor.SurfaceID) {
		if r := server.surfaces[focus]; r != nil {
			r.client.keyboardKey(serial, now(), key, pressed)
		}
	}
}

// PointerMotion injects pointer motion in layout coordinates. It
// resolves the surface under the pointer, routes the event through
// the seat, and delivers motion to the focused surface's client.
func (server *Server) PointerMotion(pt image.Point) {
	server.pointerPos = pt

	var under compositor.SurfaceID
	local := pt
	if _, s, lpt, ok := server.state.Space.ElementUnder(pt); ok {
		under = s.ID()
		local = lpt
	}
	server.pointerLocal = local

	st := server.state.Seat
	st.PointerMotion(local, under)

	if r := server.surfaces[st.PointerFocus()]; r != nil {
		r.client.pointerMotion(now(), local)
	}
}

// PointerButton injects a pointer button event. On an ungrabbed
// press, pointer focus also becomes keyboard focus and the window
// under the pointer is raised.
func (server *Server) PointerButton(btn seat.Button, pressed bool) {
	st := server.state.Seat

	var under compositor.SurfaceID
	e, s, _, ok := server.state.Space.ElementUnder(server.pointerPos)
	if ok {
		under = s.ID()
	}

	if pressed && st.Grab() == nil && ok {
		server.state.Space.Raise(e.Window)
		st.FocusKeyboard(under)
	}

	st.PointerButton(btn, pressed, under)
}

// Key injects a keyboard key event.
func (server *Server) Key(key uint32, pressed bool) {
	server.state.Seat.Key(key, pressed)
}

// Flush processes everything queued since the last flush: new
// connections and errors on the server queue, then each client's
// incoming requests and outgoing events.
func (server *Server) Flush() error {
	var errs []error

	select {
	case queue := <-server.queue.Get():
		errs = append(errs, queue.Flush())
	default:
	}

	for client := range server.clients {
		err := client.Flush()
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Close shuts the listener down and disconnects every client.
func (server *Server) Close() error {
	var err error
	server.close.Do(func() {
		close(server.done)
		err = server.lis.Close()
		for client := range server.clients {
			client.disconnect()
		}
		server.clients = make(set.Set[*Client])
	})
	return err
}

func now() uint32 {
	return uint32(time.Now().UnixMilli())
}
