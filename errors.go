package cpn

import "fmt"

// CapacityError is returned when adding tokens to a place would push it past
// its declared capacity. The add is all-or-nothing: when this error is
// returned the place holds exactly the tokens it held before the call.
type CapacityError struct {
	Place    string
	Capacity int
	Held     int
	Adding   int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("place %s capacity exceeded: holds %d, adding %d, capacity %d", e.Place, e.Held, e.Adding, e.Capacity)
}

// TokenNotFoundError is returned when a removal references a token that is
// not resident in the place. A transition only ever removes tokens it
// selected from that exact place, so seeing this error means a selection or
// bookkeeping contract was broken by the caller.
type TokenNotFoundError struct {
	Place   string
	BatchID string
}

func (e *TokenNotFoundError) Error() string {
	return fmt.Sprintf("token %s not found in place %s", e.BatchID, e.Place)
}

// UnknownPlaceError is returned on lookups of an unregistered place name.
type UnknownPlaceError struct {
	Name string
}

func (e *UnknownPlaceError) Error() string {
	return fmt.Sprintf("unknown place %s", e.Name)
}

// UnknownTransitionError is returned on lookups of an unregistered
// transition name.
type UnknownTransitionError struct {
	Name string
}

func (e *UnknownTransitionError) Error() string {
	return fmt.Sprintf("unknown transition %s", e.Name)
}

// DupError is returned when registering a place or transition under a name
// that is already taken in its namespace.
type DupError struct {
	Kind string
	Name string
}

func (e *DupError) Error() string {
	return fmt.Sprintf("%s %s already exists", e.Kind, e.Name)
}
