package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type testSender struct{ id uint32 }

func (s *testSender) ID() uint32                    { return s.id }
func (s *testSender) SetID(id uint32)               { s.id = id }
func (s *testSender) Dispatch(*MessageBuffer) error { return nil }
func (s *testSender) Delete()                       {}
func (s *testSender) MethodName(op uint16) string   { return "test" }

func TestBuilderPadsBlocks(t *testing.T) {
	mb := NewMessage(&testSender{id: 3}, 1)

	mb.WriteString("hi")
	assert.Equal(t, 8, mb.data.Len(), "length word, two bytes, NUL, one pad byte")

	mb.WriteArray([]byte{1, 2, 3, 4})
	assert.Equal(t, 16, mb.data.Len(), "a full word needs no padding")
}

func TestBuilderStopsAfterError(t *testing.T) {
	mb := NewMessage(&testSender{id: 3}, 1)
	mb.err = assert.AnError

	mb.WriteUint(7)
	mb.WriteString("dropped")
	assert.Empty(t, mb.Args)
	assert.Zero(t, mb.data.Len())
	assert.ErrorIs(t, mb.Build(nil), assert.AnError)
}
