package server

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/sirupsen/logrus"

	"deedles.dev/shoji/compositor"
	"deedles.dev/shoji/internal/debug"
	"deedles.dev/shoji/internal/ev"
	"deedles.dev/shoji/internal/objstore"
	"deedles.dev/shoji/wire"
)

// Client is one connected client: its socket, its object store, and
// its event queue. Requests are read on a per-client goroutine and
// queued; all actual dispatch happens when the queue is flushed, on
// the server's loop goroutine.
type Client struct {
	server *Server
	log    *logrus.Entry
	done   chan struct{}
	close  sync.Once
	conn   *wire.Conn
	store  *objstore.Store
	queue  *ev.Queue

	pointers  []*pointerResource
	keyboards []*keyboardResource
}

func newClient(server *Server, conn *wire.Conn) *Client {
	client := &Client{
		server: server,
		log:    server.Log.WithField("addr", conn.LocalAddr()),
		done:   make(chan struct{}),
		conn:   conn,
		store:  objstore.New(1 << 24),
		queue:  ev.NewQueue(),
	}

	display := &displayResource{client: client}
	display.SetID(1)
	client.store.Add(display)

	go client.listen()

	return client
}

func (client *Client) listen() {
	defer func() {
		client.close.Do(func() { close(client.done) })
		client.conn.Close()

		select {
		case <-client.server.done:
		case client.server.queue.Add() <- func() error { client.server.removeClient(client); return nil }:
		}
	}()

	for {
		msg, err := wire.ReadMessage(client.conn)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return
			}

			select {
			case <-client.done:
				return
			case client.queue.Add() <- func() error { return err }:
				continue
			}
		}

		select {
		case <-client.done:
			return
		case client.queue.Add() <- func() error { return client.dispatch(msg) }:
		}
	}
}

func (client *Client) dispatch(msg *wire.MessageBuffer) error {
	obj := client.store.Get(msg.Sender())
	if obj == nil {
		client.post(msg.Sender(), uint32(compositor.ErrInvalidObject), fmt.Sprintf("unknown object %v", msg.Sender()))
		return wire.UnknownSenderIDError{Msg: msg}
	}

	err := obj.Dispatch(msg)
	debug.Printf("%v", msg.Debug(obj))
	if err == nil {
		err = msg.Err()
	}
	if err == nil {
		return nil
	}

	var perr *compositor.ProtocolError
	var operr wire.UnknownOpError
	switch {
	case errors.As(err, &perr):
		client.post(msg.Sender(), uint32(perr.Code), perr.Message)
	case errors.As(err, &operr):
		client.post(msg.Sender(), uint32(compositor.ErrInvalidMethod), operr.Error())
	default:
		client.post(msg.Sender(), uint32(compositor.ErrImplementation), err.Error())
	}
	return err
}

func (client *Client) Add(obj wire.Object) {
	client.store.Add(obj)
}

// addWithID registers a new object under a client-allocated ID.
func (client *Client) addWithID(id uint32, obj wire.Object) {
	obj.SetID(id)
	client.store.Add(obj)
}

func (client *Client) Get(id uint32) wire.Object {
	return client.store.Get(id)
}

func (client *Client) Delete(id uint32) {
	client.store.Delete(id)
}

// deleteID removes the object from the store and tells the client its
// ID can be reused.
func (client *Client) deleteID(id uint32) {
	client.store.Delete(id)
	client.display().deleteID(id)
}

func (client *Client) display() *displayResource {
	return client.Get(1).(*displayResource)
}

// post reports a fatal protocol error on the given object and
// disconnects the client once the error has been sent.
func (client *Client) post(id uint32, code uint32, message string) {
	client.log.WithFields(logrus.Fields{
		"object": id,
		"code":   code,
	}).Error(message)

	client.display().postError(id, code, message)
	client.queue.Add() <- func() error {
		client.disconnect()
		return nil
	}
}

func (client *Client) Enqueue(msg *wire.MessageBuilder) {
	client.queue.Add() <- func() error {
		debug.Printf(" -> %v", msg)
		return msg.Build(client.conn)
	}
}

// Flush sends all enqueued events and processes all requests received
// since the last flush.
func (client *Client) Flush() error {
	select {
	case queue := <-client.queue.Get():
		return queue.Flush()
	default:
		return nil
	}
}

// disconnect closes the connection. Cleanup of the client's
// compositor state happens when the server notices and calls destroy.
func (client *Client) disconnect() {
	client.close.Do(func() { close(client.done) })
	client.conn.Close()
}

// destroy tears down the compositor-side state behind every object
// the client still has. Runs on the server loop.
func (client *Client) destroy() {
	client.disconnect()
	for _, obj := range client.store.All() {
		if c, ok := obj.(cleaner); ok {
			c.cleanup()
		}
	}
}

// cleaner is implemented by resources that hold compositor state
// beyond their own allocation, torn down when their client goes away.
type cleaner interface {
	cleanup()
}
