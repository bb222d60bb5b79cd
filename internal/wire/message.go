// Package wire defines the fixed-size record exchanged between peer
// mailboxes and its binary layout.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// OpKind identifies the kind of edit an UpdateMessage carries.
type OpKind uint8

const (
	OpInsert OpKind = 1
	OpDelete OpKind = 2
	OpReplace OpKind = 3
)

func (k OpKind) String() string {
	switch k {
	case OpInsert:
		return "insert"
	case OpDelete:
		return "delete"
	case OpReplace:
		return "replace"
	default:
		return "unknown"
	}
}

const (
	// UserIDMax is the maximum stored length of a participant id, including
	// the null terminator budget.
	UserIDMax = 32
	// QueueNameMax is the maximum stored length of a mailbox name.
	QueueNameMax = 64
	// TextSegMax is the maximum stored length of an old/new text segment.
	TextSegMax = 256
)

// Size is the exact on-the-wire size of UpdateMessage, matching the C
// struct it mirrors: sender[32] + ts(8) + line(4) + col_start(4) +
// col_end(4) + op(1, padded to 4) + old_text[256] + new_text[256].
const Size = UserIDMax + 8 + 4 + 4 + 4 + 4 + TextSegMax + TextSegMax

// UpdateMessage is the fixed-size record stored in a mailbox and sent
// between peers. Strings are length-bounded and null-terminated; excess is
// truncated on encode.
type UpdateMessage struct {
	Sender      [UserIDMax]byte
	TimestampNs uint64
	Line        uint32
	ColStart    int32
	ColEnd      int32
	Op          OpKind
	_           [3]byte // padding to keep the segment fields 4-byte aligned
	OldText     [TextSegMax]byte
	NewText     [TextSegMax]byte
}

// SetSender truncates and null-terminates s into Sender.
func (m *UpdateMessage) SetSender(s string) { putCString(m.Sender[:], s) }

// SetOldText truncates and null-terminates s into OldText.
func (m *UpdateMessage) SetOldText(s string) { putCString(m.OldText[:], s) }

// SetNewText truncates and null-terminates s into NewText.
func (m *UpdateMessage) SetNewText(s string) { putCString(m.NewText[:], s) }

// SenderStr returns Sender up to its first null byte.
func (m *UpdateMessage) SenderStr() string { return cString(m.Sender[:]) }

// OldTextStr returns OldText up to its first null byte.
func (m *UpdateMessage) OldTextStr() string { return cString(m.OldText[:]) }

// NewTextStr returns NewText up to its first null byte.
func (m *UpdateMessage) NewTextStr() string { return cString(m.NewText[:]) }

func putCString(dst []byte, s string) {
	for i := range dst {
		dst[i] = 0
	}
	n := len(s)
	if n > len(dst)-1 {
		n = len(dst) - 1
	}
	copy(dst, s[:n])
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}

// Encode marshals m into its fixed-size wire representation.
//
// A generic serialization library is deliberately not used here: the
// registry and mailbox are backed by real mmapped shared-memory segments,
// and readers depend on every record occupying exactly Size bytes at a
// fixed offset. encoding/binary over the raw field layout is the only
// encoding that preserves that invariant.
func Encode(m *UpdateMessage) []byte {
	buf := make([]byte, Size)
	w := bytes.NewBuffer(buf[:0])
	binary.Write(w, binary.LittleEndian, m.Sender)
	binary.Write(w, binary.LittleEndian, m.TimestampNs)
	binary.Write(w, binary.LittleEndian, m.Line)
	binary.Write(w, binary.LittleEndian, m.ColStart)
	binary.Write(w, binary.LittleEndian, m.ColEnd)
	binary.Write(w, binary.LittleEndian, uint32(m.Op))
	binary.Write(w, binary.LittleEndian, m.OldText)
	binary.Write(w, binary.LittleEndian, m.NewText)
	return w.Bytes()
}

// Decode unmarshals a Size-byte record into an UpdateMessage.
func Decode(b []byte) (UpdateMessage, error) {
	var m UpdateMessage
	if len(b) != Size {
		return m, fmt.Errorf("wire: record has %d bytes, want %d", len(b), Size)
	}
	r := bytes.NewReader(b)
	binary.Read(r, binary.LittleEndian, &m.Sender)
	binary.Read(r, binary.LittleEndian, &m.TimestampNs)
	binary.Read(r, binary.LittleEndian, &m.Line)
	binary.Read(r, binary.LittleEndian, &m.ColStart)
	binary.Read(r, binary.LittleEndian, &m.ColEnd)
	var op uint32
	binary.Read(r, binary.LittleEndian, &op)
	m.Op = OpKind(op)
	binary.Read(r, binary.LittleEndian, &m.OldText)
	binary.Read(r, binary.LittleEndian, &m.NewText)
	return m, nil
}
