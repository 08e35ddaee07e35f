package owl

import (
	"errors"
	"time"
	"unicode/utf8"

	"github.com/beevik/etree"
)

// MaxDatagramSize bounds a single read from the socket.
const MaxDatagramSize = 1024

// Parse turns one datagram into a Snapshot. Malformed payloads yield a
// *ParseError, well-formed documents of an unknown class an *UnknownClassError.
func Parse(payload []byte, receivedAt time.Time) (*Snapshot, error) {
	raw := make([]byte, len(payload))
	copy(raw, payload)

	if !utf8.Valid(raw) {
		return nil, &ParseError{Payload: raw, Err: errors.New("payload is not valid UTF-8")}
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, &ParseError{Payload: raw, Err: err}
	}
	root := doc.Root()
	if root == nil {
		return nil, &ParseError{Payload: raw, Err: errors.New("no root element")}
	}
	for _, tok := range doc.Child {
		switch t := tok.(type) {
		case *etree.Element:
			if t != root {
				return nil, &ParseError{Payload: raw, Err: errors.New("more than one root element")}
			}
		case *etree.CharData:
			if !t.IsWhitespace() {
				return nil, &ParseError{Payload: raw, Err: errors.New("text outside the root element")}
			}
		}
	}

	class, err := ParseDeviceClass(root.Tag)
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{
		class:      class,
		schema:     LegacySchema,
		receivedAt: receivedAt,
		raw:        raw,
		root:       root,
	}
	if ver := root.SelectAttr(versionAttr); ver != nil {
		snapshot.schema = VersionedSchema
		snapshot.version = ver.Value
	}
	return snapshot, nil
}
