package owl

import (
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"
)

// Schema tells which historical field layout a datagram follows. It is
// resolved once, when the datagram is parsed.
type Schema int

const (
	// LegacySchema documents carry no version attribute on the root element.
	LegacySchema Schema = iota
	// VersionedSchema documents carry a ver attribute on the root element.
	VersionedSchema
)

const versionAttr = "ver"

func (s Schema) String() string {
	switch s {
	case VersionedSchema:
		return "versioned"
	default:
		return "legacy"
	}
}

// Snapshot is one parsed datagram. It is never modified after Parse returns,
// so it can be shared between goroutines without locking.
type Snapshot struct {
	class      DeviceClass
	schema     Schema
	version    string
	receivedAt time.Time
	raw        []byte
	root       *etree.Element
}

func (s *Snapshot) Class() DeviceClass {
	return s.class
}

func (s *Snapshot) Schema() Schema {
	return s.schema
}

// Version is the raw value of the root ver attribute, empty for legacy documents.
func (s *Snapshot) Version() string {
	return s.version
}

func (s *Snapshot) ReceivedAt() time.Time {
	return s.receivedAt
}

// DeviceId is the gateway or sensor MAC reported in the root id attribute.
func (s *Snapshot) DeviceId() string {
	return s.root.SelectAttrValue("id", "")
}

// Raw returns a copy of the datagram the snapshot was parsed from.
func (s *Snapshot) Raw() []byte {
	raw := make([]byte, len(s.raw))
	copy(raw, s.raw)
	return raw
}

// Text returns the trimmed character data of the element at path, relative
// to the root element.
func (s *Snapshot) Text(path string) (string, error) {
	el, err := s.find(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(el.Text()), nil
}

// Attr returns the value of attribute name of the element at path. An empty
// path addresses the root element.
func (s *Snapshot) Attr(path, name string) (string, error) {
	el := s.root
	if path != "" {
		var err error
		el, err = s.find(path)
		if err != nil {
			return "", err
		}
	}
	attr := el.SelectAttr(name)
	if attr == nil {
		return "", &MissingFieldError{Class: s.class, Path: attrPath(path, name)}
	}
	return strings.TrimSpace(attr.Value), nil
}

// ChannelText returns the text of child of the n-th (1-based) channel element.
func (s *Snapshot) ChannelText(n int, child string) (string, error) {
	path := fmt.Sprintf("channels/chan[%d]/%s", n, child)
	chans := s.channels()
	if n < 1 || n > len(chans) {
		return "", &MissingFieldError{Class: s.class, Path: path}
	}
	el := chans[n-1].FindElement(child)
	if el == nil {
		return "", &MissingFieldError{Class: s.class, Path: path}
	}
	return strings.TrimSpace(el.Text()), nil
}

// channels lists the per-phase channel elements. Current firmware nests them
// under a channels element, older firmware places them under the root.
func (s *Snapshot) channels() []*etree.Element {
	chans := s.root.FindElements("channels/chan")
	if len(chans) == 0 {
		chans = s.root.FindElements("chan")
	}
	return chans
}

func (s *Snapshot) find(path string) (*etree.Element, error) {
	el := s.root.FindElement(path)
	if el == nil {
		return nil, &MissingFieldError{Class: s.class, Path: path}
	}
	return el, nil
}

func attrPath(path, name string) string {
	if path == "" {
		return "@" + name
	}
	return path + "@" + name
}
