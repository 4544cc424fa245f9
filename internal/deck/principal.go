package deck

// Principal identifies the user acting on the deck library.
// The zero value is the anonymous principal.
type Principal struct {
	UserID string
}

// Anonymous is the principal used when no user is signed in.
var Anonymous = Principal{}

// NewPrincipal returns the principal for a signed-in user.
func NewPrincipal(userID string) Principal {
	return Principal{UserID: userID}
}

// Authenticated reports whether the principal carries a user identity.
func (p Principal) Authenticated() bool {
	return p.UserID != ""
}

func (p Principal) String() string {
	if !p.Authenticated() {
		return "anonymous"
	}
	return p.UserID
}

// Mode selects how the service treats ownership.
type Mode int

const (
	// ModeLocal serves a single-user local collection: decks carry no owner,
	// ownership is never checked and anonymous callers may create decks.
	ModeLocal Mode = iota

	// ModeRemote serves a per-user document store: creating requires a
	// signed-in principal and every targeted operation checks ownership.
	ModeRemote
)

func (m Mode) String() string {
	switch m {
	case ModeLocal:
		return "local"
	case ModeRemote:
		return "remote"
	default:
		return "unknown"
	}
}
