package state

import "errors"

// ErrPassiveUpdate is returned when Update is called on a derived state.
// Derived values only change through their upstreams.
var ErrPassiveUpdate = errors.New("state: cannot update passive state")
