package meter

import (
	"sync"

	"github.com/useful-toys/gometer/internal/goroutineid"
)

// instanceStacks holds, per goroutine id, the stack of currently-started
// Meter instances on that goroutine (spec section 4.3's "current instance"
// concept), read by CurrentInstance and by the mis-nesting check that
// IsNotCurrent performs at termination.
var instanceStacks sync.Map // uint64 -> *[]*Meter

// CurrentInstance returns the innermost started-but-not-terminated Meter on
// the calling goroutine, or the reserved UNKNOWN sentinel if there is none.
func CurrentInstance() *Meter {
	stack := loadStack(goroutineid.Current())
	if stack == nil || len(*stack) == 0 {
		return unknownMeter
	}
	return (*stack)[len(*stack)-1]
}

func loadStack(gid uint64) *[]*Meter {
	v, ok := instanceStacks.Load(gid)
	if !ok {
		return nil
	}
	return v.(*[]*Meter)
}

// pushCurrent pushes m onto the calling goroutine's instance stack. Called
// by Start.
func pushCurrent(m *Meter) {
	gid := goroutineid.Current()
	v, _ := instanceStacks.LoadOrStore(gid, new([]*Meter))
	stack := v.(*[]*Meter)
	*stack = append(*stack, m)
}

// popCurrent removes m from the calling goroutine's instance stack, if
// present. Called by the termination methods (Ok, Reject, Fail). It is
// safe to call even if m is not the top of the stack (e.g. a child meter
// outliving its parent due to caller error); it removes the first matching
// entry searching from the top.
func popCurrent(m *Meter) {
	gid := goroutineid.Current()
	stack := loadStack(gid)
	if stack == nil {
		return
	}
	for i := len(*stack) - 1; i >= 0; i-- {
		if (*stack)[i] == m {
			*stack = append((*stack)[:i], (*stack)[i+1:]...)
			return
		}
	}
}
