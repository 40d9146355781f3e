package shop

// Phase is where a store sits in the authentication lifecycle.
type Phase string

const (
	PhaseGuest       Phase = "guest"
	PhaseSyncPending Phase = "sync_pending"
	PhaseSynced      Phase = "synced"
	PhaseLoggedOut   Phase = "logged_out"
)

// transition is the side effect an observation asks for.
type transition int

const (
	transitionNone transition = iota
	transitionSync
	transitionLogout
)

// authMachine tracks the authentication lifecycle. The previous
// authentication value is part of its state, so the first observation (a
// mount) is never mistaken for a logout. attempted marks that this login
// session has already started a reconciliation; a failed one is not rerun by
// later observations.
type authMachine struct {
	phase     Phase
	observed  bool
	prevAuth  bool
	attempted bool
}

func newAuthMachine() authMachine {
	return authMachine{phase: PhaseGuest}
}

// observe records the current authentication value and returns what the
// store must do. synced and inFlight come from the reconciliation state.
func (m *authMachine) observe(authenticated, synced, inFlight bool) transition {
	wasAuth, mounted := m.prevAuth, m.observed
	m.observed, m.prevAuth = true, authenticated

	switch {
	case mounted && wasAuth && !authenticated:
		m.phase = PhaseLoggedOut
		m.attempted = false
		return transitionLogout
	case !authenticated:
		m.phase = PhaseGuest
		m.attempted = false
		return transitionNone
	case synced:
		m.phase = PhaseSynced
		return transitionNone
	case inFlight, m.attempted:
		return transitionNone
	default:
		m.phase = PhaseSyncPending
		m.attempted = true
		return transitionSync
	}
}

// settle moves a wiped store back to Guest.
func (m *authMachine) settle() {
	m.phase = PhaseGuest
	m.attempted = false
}

// forceLogout is an explicit end of session. Later observations start from
// unauthenticated.
func (m *authMachine) forceLogout() {
	m.phase = PhaseLoggedOut
	m.prevAuth = false
	m.attempted = false
}
