// Package objstore implements the per-client protocol object store:
// a map from object ID to live object, with dispatch of incoming
// messages to their target.
package objstore

import "deedles.dev/shoji/wire"

type Store struct {
	objects map[uint32]wire.Object
	nextID  uint32
}

// New creates a store that assigns server-allocated IDs starting at
// start.
func New(start uint32) *Store {
	return &Store{
		objects: make(map[uint32]wire.Object),
		nextID:  start,
	}
}

func (s *Store) Add(obj wire.Object) {
	id := obj.ID()
	if id == 0 {
		id = s.nextID
		obj.SetID(id)
		s.nextID++
	}

	s.objects[id] = obj
}

func (s *Store) Get(id uint32) wire.Object {
	return s.objects[id]
}

func (s *Store) Delete(id uint32) {
	obj := s.objects[id]
	delete(s.objects, id)
	if obj != nil {
		obj.Delete()
	}
}

// All returns the live objects in unspecified order.
func (s *Store) All() []wire.Object {
	objs := make([]wire.Object, 0, len(s.objects))
	for _, obj := range s.objects {
		objs = append(objs, obj)
	}
	return objs
}

// Dispatch routes a message to the object it addresses.
func (s *Store) Dispatch(msg *wire.MessageBuffer) error {
	obj := s.Get(msg.Sender())
	if obj == nil {
		return wire.UnknownSenderIDError{Msg: msg}
	}
	return obj.Dispatch(msg)
}
