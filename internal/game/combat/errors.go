package combat

import "fmt"

// errSessionNotOver reports a summary request on a session that has not
// reached a terminal state.
func errSessionNotOver(state State) error {
	return fmt.Errorf("combat: session is %s, summary requires victory or defeat", state)
}
