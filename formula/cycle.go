package formula

import "strings"

// cycleGuard tracks the chain of cell addresses currently being
// evaluated, so that re-entering an address fails fast instead of
// recursing forever. One guard per engine. The stack is empty again
// whenever no Calculate call is in flight.
type cycleGuard struct {
	stack []string
}

// push adds an address to the active chain. It fails with a circular
// reference error when the address is already active; the error carries
// the full chain including the offending address.
func (g *cycleGuard) push(address string) error {
	for _, active := range g.stack {
		if active == address {
			chain := make([]string, len(g.stack), len(g.stack)+1)
			copy(chain, g.stack)
			chain = append(chain, address)
			return NewCycleError(chain)
		}
	}
	g.stack = append(g.stack, address)
	return nil
}

// pop removes the most recent address. Callers pair it with push via
// defer so the chain is restored on every exit path.
func (g *cycleGuard) pop() {
	if len(g.stack) > 0 {
		g.stack = g.stack[:len(g.stack)-1]
	}
}

// fingerprint serializes the active chain for cache keying: identical
// formula text evaluated under different chains must not share cached
// results.
func (g *cycleGuard) fingerprint() string {
	return strings.Join(g.stack, "|")
}
