// Package link defines the history token vocabulary of the review UI and
// maps tokens to screens.
//
// Tokens are matched in order, first match wins:
//
//	""               -> unresolved
//	"mine"           -> mine
//	"mine,starred"   -> mine_starred
//	"change,<digits>" -> change(<digits>)
//	anything else    -> unresolved
//
// A token starting with "change," whose suffix is not a run of digits, or
// whose id overflows int, is reported as ErrInvalidChangeID.
//
// Example usage:
//
//	screen, err := link.Select("change,42")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(screen) // change(42)
package link
