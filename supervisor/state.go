package supervisor

import "fmt"

// State is the lifecycle state of a supervised process.
type State int

const (
	StateNew State = iota
	StateStarting
	StateAbortStart
	StateRunning
	StateAbortRunning
	StateDisposed
)

var stateNames = map[State]string{
	StateNew:          "new",
	StateStarting:     "starting",
	StateAbortStart:   "abort start",
	StateRunning:      "running",
	StateAbortRunning: "abort running",
	StateDisposed:     "disposed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Aborting reports whether s is one of the abort states.
func (s State) Aborting() bool {
	return s == StateAbortStart || s == StateAbortRunning
}

var transitions = map[State][]State{
	StateNew:          {StateStarting, StateDisposed},
	StateStarting:     {StateRunning, StateAbortStart},
	StateRunning:      {StateAbortRunning},
	StateAbortStart:   {StateDisposed},
	StateAbortRunning: {StateDisposed},
}

// CanTransition reports whether the lifecycle allows moving from one state to another.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type inputKind int

const (
	inStart inputKind = iota
	inSpawnFailed
	inReady
	inExit
	inAbort
	inKilled
)

func (k inputKind) String() string {
	switch k {
	case inStart:
		return "start"
	case inSpawnFailed:
		return "spawn failed"
	case inReady:
		return "ready"
	case inExit:
		return "exit"
	case inAbort:
		return "abort"
	case inKilled:
		return "killed"
	}
	return fmt.Sprintf("input(%d)", int(k))
}

type input struct {
	kind    inputKind
	reason  error
	address string
}

// machine is the pure lifecycle reducer. It is only touched by the event loop.
type machine struct {
	state         State
	address       string
	reason        error
	exited        bool
	killRequested bool
	killDone      bool
}

func (m *machine) to(next State) {
	if !CanTransition(m.state, next) {
		panic(fmt.Sprintf("illegal state transition %s -> %s", m.state, next))
	}
	m.state = next
}

func (m *machine) abortWith(reason error) {
	if m.reason == nil {
		m.reason = reason
	}
	switch m.state {
	case StateStarting:
		m.to(StateAbortStart)
	case StateRunning:
		m.to(StateAbortRunning)
	}
}

// apply feeds one input to the machine. It returns the states entered, in order,
// and whether the process tree must be killed now.
func (m *machine) apply(in input) (entered []State, kill bool) {
	before := m.state
	track := func() {
		if m.state != before {
			entered = append(entered, m.state)
			before = m.state
		}
	}

	switch in.kind {
	case inStart:
		if m.state == StateNew {
			m.to(StateStarting)
		}
	case inSpawnFailed:
		if m.state == StateStarting {
			// nothing ran, so there is nothing to wait for or kill
			m.exited = true
			m.abortWith(in.reason)
		}
	case inReady:
		if m.state == StateStarting {
			m.address = in.address
			m.to(StateRunning)
		}
	case inExit:
		if m.exited {
			break
		}
		m.exited = true
		if m.state == StateStarting || m.state == StateRunning {
			m.abortWith(in.reason)
			// leftovers of the process group still get killed
			kill = m.requestKill()
		}
	case inAbort:
		switch m.state {
		case StateNew:
			m.reason = in.reason
			m.to(StateDisposed)
		case StateStarting, StateRunning:
			m.abortWith(in.reason)
			kill = m.requestKill()
		}
	case inKilled:
		if m.killRequested {
			m.killDone = true
		}
	}
	track()

	if m.state.Aborting() && m.exited && (!m.killRequested || m.killDone) {
		m.to(StateDisposed)
		track()
	}
	return entered, kill
}

func (m *machine) requestKill() bool {
	if m.killRequested {
		return false
	}
	m.killRequested = true
	return true
}
