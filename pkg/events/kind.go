package events

import "fmt"

// Kind is the type of an analytics event, as named on the wire.
type Kind string

const (
	AppOpen      Kind = "app_open"
	View         Kind = "view"
	Open         Kind = "open"
	Install      Kind = "install"
	Reinstall    Kind = "reinstall"
	TimeSpent    Kind = "time_spent"
	Reactivation Kind = "reactivation"
)

// Kinds lists every known kind.
var Kinds = []Kind{AppOpen, View, Open, Install, Reinstall, TimeSpent, Reactivation}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case AppOpen, View, Open, Install, Reinstall, TimeSpent, Reactivation:
		return true
	}
	return false
}

// ParseKind returns the kind named s.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

func (k Kind) String() string { return string(k) }
