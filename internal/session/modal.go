// Package session holds the state of one browsing session: the catalog,
// the filter, the selected listing and the single active modal.
package session

import (
	"errors"
	"fmt"
)

// ErrUnknownModal is returned by ParseModal for names it does not know.
var ErrUnknownModal = errors.New("unknown modal")

// Modal is the overlay currently shown. Exactly one value is active.
type Modal int

const (
	ModalNone Modal = iota
	ModalDetail
	ModalChat
	ModalMap
	ModalAPIKeySetting
)

var modalNames = map[Modal]string{
	ModalNone:          "none",
	ModalDetail:        "detail",
	ModalChat:          "chat",
	ModalMap:           "map",
	ModalAPIKeySetting: "api_key_setting",
}

func (m Modal) String() string {
	if s, ok := modalNames[m]; ok {
		return s
	}
	return fmt.Sprintf("modal(%d)", int(m))
}

// MarshalText encodes the modal by name.
func (m Modal) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// ParseModal returns the modal with the given name.
func ParseModal(s string) (Modal, error) {
	for m, name := range modalNames {
		if name == s {
			return m, nil
		}
	}
	return ModalNone, fmt.Errorf("%q: %w", s, ErrUnknownModal)
}

// UnmarshalText decodes a modal name.
func (m *Modal) UnmarshalText(b []byte) error {
	parsed, err := ParseModal(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
