package link

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// History tokens understood by the review UI. Other components build links
// from these literals, so their values must not change
const (
	Mine          = "mine"
	MineUnclaimed = "mine,unclaimed"
	MineStarred   = "mine,starred"

	All          = "all"
	AllUnclaimed = "all,unclaimed"

	AdminPeople   = "admin,people"
	AdminGroups   = "admin,groups"
	AdminProjects = "admin,projects"

	// ChangePrefix precedes the numeric id in a change token
	ChangePrefix = "change,"
)

// ErrInvalidChangeID is returned when a change token carries an id that is
// not a run of digits or cannot be represented as an int
var ErrInvalidChangeID = errors.New("invalid change id")

var changeToken = regexp.MustCompile(`^change,\d+$`)

// ToChange returns the history token for the change with the given id
func ToChange(id int) string {
	return ChangePrefix + strconv.Itoa(id)
}

// Select maps a history token to the screen it identifies.
// Unknown and empty tokens yield an unresolved screen and a nil error.
// A token with the change prefix but no valid id is ErrInvalidChangeID
func Select(token string) (Screen, error) {
	switch {
	case token == "":
		return Screen{}, nil

	case token == Mine:
		return MineScreen(), nil

	case token == MineStarred:
		return MineStarredScreen(), nil

	case strings.HasPrefix(token, ChangePrefix):
		digits := token[len(ChangePrefix):]
		if !changeToken.MatchString(token) {
			return Screen{}, fmt.Errorf("%w: %q", ErrInvalidChangeID, digits)
		}
		id, err := strconv.Atoi(digits)
		if err != nil {
			return Screen{}, fmt.Errorf("%w: %q: %v", ErrInvalidChangeID, digits, err)
		}
		return ChangeScreen(id), nil
	}

	return Screen{}, nil
}
