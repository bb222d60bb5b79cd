// Package update holds the in-memory update record shared by the change
// detector, the merge engine, and the editor loop.
package update

import "github.com/abhinavnagar29/synctext/internal/wire"

// Ext is the in-memory counterpart of wire.UpdateMessage: same semantic
// fields, but with unbounded strings and an owned user id. It is produced
// either from a local file change or from an inbound mailbox message.
//
// ColEnd is inclusive when OldText is non-empty; for a pure insertion,
// ColStart == ColEnd marks the insertion point.
type Ext struct {
	TimestampNs uint64
	UID         string
	Line        uint32
	ColStart    int32
	ColEnd      int32
	Op          wire.OpKind
	OldText     string
	NewText     string
}

// FromMessage converts a decoded wire record into an Ext.
func FromMessage(m *wire.UpdateMessage) Ext {
	return Ext{
		TimestampNs: m.TimestampNs,
		UID:         m.SenderStr(),
		Line:        m.Line,
		ColStart:    m.ColStart,
		ColEnd:      m.ColEnd,
		Op:          m.Op,
		OldText:     m.OldTextStr(),
		NewText:     m.NewTextStr(),
	}
}

// ToMessage converts an Ext into a wire record ready for mailbox delivery.
func (e Ext) ToMessage() wire.UpdateMessage {
	var m wire.UpdateMessage
	m.SetSender(e.UID)
	m.TimestampNs = e.TimestampNs
	m.Line = e.Line
	m.ColStart = e.ColStart
	m.ColEnd = e.ColEnd
	m.Op = e.Op
	m.SetOldText(e.OldText)
	m.SetNewText(e.NewText)
	return m
}

// Change is the change detector's output: structurally equivalent to Ext,
// additionally tagged with the human-readable detection timestamp for
// render-snapshot purposes.
type Change struct {
	Ext
	TimestampStr string
}
