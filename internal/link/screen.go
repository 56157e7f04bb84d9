package link

import (
	"fmt"
	"strconv"
)

// Kind identifies a screen variant
type Kind int

const (
	// KindUnresolved is the zero Kind: the token named no known screen
	KindUnresolved Kind = iota
	KindMine
	KindMineStarred
	KindChange
)

// String returns the name of the kind
func (k Kind) String() string {
	switch k {
	case KindMine:
		return "mine"
	case KindMineStarred:
		return "mine_starred"
	case KindChange:
		return "change"
	}
	return "unresolved"
}

// MarshalText encodes k as its name
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a name produced by MarshalText
func (k *Kind) UnmarshalText(text []byte) error {
	for _, c := range []Kind{KindUnresolved, KindMine, KindMineStarred, KindChange} {
		if c.String() == string(text) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown screen kind %q", text)
}

// Screen is the result of selecting a history token.
// ChangeID is only set for KindChange
type Screen struct {
	Kind     Kind `json:"kind"`
	ChangeID int  `json:"change_id,omitempty"`
}

// MineScreen returns the screen listing the user's own changes
func MineScreen() Screen { return Screen{Kind: KindMine} }

// MineStarredScreen returns the screen listing the user's starred changes
func MineStarredScreen() Screen { return Screen{Kind: KindMineStarred} }

// ChangeScreen returns the screen showing a single change
func ChangeScreen(id int) Screen { return Screen{Kind: KindChange, ChangeID: id} }

// Resolved reports whether s names a screen
func (s Screen) Resolved() bool {
	return s.Kind != KindUnresolved
}

// Token returns the canonical history token for s, or "" if s is unresolved
func (s Screen) Token() string {
	switch s.Kind {
	case KindMine:
		return Mine
	case KindMineStarred:
		return MineStarred
	case KindChange:
		return ToChange(s.ChangeID)
	}
	return ""
}

func (s Screen) String() string {
	if s.Kind == KindChange {
		return "change(" + strconv.Itoa(s.ChangeID) + ")"
	}
	return s.Kind.String()
}
