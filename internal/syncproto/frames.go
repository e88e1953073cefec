// Package syncproto defines the JSON frames exchanged over the sync
// websocket. Both the server hub and the client engine speak this format.
package syncproto

// Frame types. The client sends hello, push and pull; the server answers
// with update, ack and err. An update may also arrive unsolicited when
// another device of the same user pushes.
const (
	TypeHello  = "hello"
	TypePush   = "push"
	TypePull   = "pull"
	TypeUpdate = "update"
	TypeAck    = "ack"
	TypeError  = "err"
)

// Entry is the wire form of a journal entry. Payload and PayloadNonce are
// opaque to the server; base64 encoding is handled by encoding/json.
type Entry struct {
	ID           string `json:"id"`
	Payload      []byte `json:"payload"`
	PayloadNonce []byte `json:"payloadNonce,omitempty"`
	Deleted      bool   `json:"deleted,omitempty"`
	// Version is assigned by the server; clients send 0 on push.
	Version int64 `json:"version,omitempty"`
}

// Frame is a single sync message. Fields are populated per Type:
//
//	hello:  SinceVersion (client's high-water mark)
//	push:   Entries (versions unset)
//	pull:   SinceVersion
//	update: Entries, MaxVersion
//	ack:    MaxVersion
//	err:    Error
type Frame struct {
	Type         string  `json:"type"`
	SinceVersion int64   `json:"sinceVersion,omitempty"`
	Entries      []Entry `json:"entries,omitempty"`
	MaxVersion   int64   `json:"maxVersion,omitempty"`
	Error        string  `json:"error,omitempty"`
}
