package wire

import (
	"encoding/binary"
	"io"

	"github.com/Seintian/postoffice/internal/errors"
	"github.com/Seintian/postoffice/internal/shm"
)

// Record layout, little-endian:
//
//	off 0  type      uint8
//	off 1  flags     uint8
//	off 2  reserved  uint16
//	off 4  service   uint32
//	off 8  ticket    uint64
//	off 16 requester uint64
//	off 24 arrival   int64 (unix nanoseconds)

// Encode writes the record into a fixed frame
func Encode(m Message) [MessageSize]byte {
	var buf [MessageSize]byte
	buf[0] = byte(m.Type)
	buf[1] = byte(m.Flags)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(m.Service))
	binary.LittleEndian.PutUint64(buf[8:16], m.Ticket)
	binary.LittleEndian.PutUint64(buf[16:24], m.Requester)
	binary.LittleEndian.PutUint64(buf[24:32], uint64(m.Arrival))
	return buf
}

// Decode parses a fixed frame. An unrecognized type byte fails with
// ErrMalformedMessage.
func Decode(buf [MessageSize]byte) (Message, error) {
	m := Message{
		Type:      Type(buf[0]),
		Flags:     Flags(buf[1]),
		Service:   shm.Service(binary.LittleEndian.Uint32(buf[4:8])),
		Ticket:    binary.LittleEndian.Uint64(buf[8:16]),
		Requester: binary.LittleEndian.Uint64(buf[16:24]),
		Arrival:   int64(binary.LittleEndian.Uint64(buf[24:32])),
	}
	if !m.Type.valid() {
		return Message{}, errors.Wrapf(errors.ErrMalformedMessage, "unknown message type %d", buf[0])
	}
	return m, nil
}

// WriteMessage sends one record in a single write
func WriteMessage(w io.Writer, m Message) error {
	buf := Encode(m)
	if _, err := w.Write(buf[:]); err != nil {
		return errors.Wrap(err, "write wire message")
	}
	return nil
}

// ReadMessage reads exactly one record. io.EOF passes through untouched
// so callers can tell a closed peer from a torn frame.
func ReadMessage(r io.Reader) (Message, error) {
	var buf [MessageSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if err == io.EOF {
			return Message{}, io.EOF
		}
		return Message{}, errors.Wrapf(errors.ErrMalformedMessage, "torn frame: %v", err)
	}
	return Decode(buf)
}
