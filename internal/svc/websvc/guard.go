package websvc

import (
	"github.com/teacherlink/webfront/internal/domain"
)

// GuardState is the outcome of checking a navigation against the auth state.
type GuardState int

const (
	GuardLoading GuardState = iota
	GuardUnauthenticated
	GuardAuthorized
	GuardWrongRole
)

func (s GuardState) String() string {
	switch s {
	case GuardLoading:
		return "LOADING"
	case GuardUnauthenticated:
		return "UNAUTHENTICATED"
	case GuardAuthorized:
		return "AUTHORIZED"
	case GuardWrongRole:
		return "WRONG_ROLE"
	default:
		return "UNKNOWN"
	}
}

// Decision is what the guard does with a navigation.
// Location is set for the redirecting states.
type Decision struct {
	State    GuardState
	Location string
}

// Evaluate decides a navigation to attempted, a route requiring category required.
// It has no side effects.
func Evaluate(state domain.AuthState, required domain.Category, attempted string) Decision {
	switch {
	case state.Loading:
		return Decision{State: GuardLoading}
	case state.User == nil:
		return Decision{State: GuardUnauthenticated, Location: LoginRedirect(attempted)}
	case required.Accepts(state.User.UserType):
		return Decision{State: GuardAuthorized}
	default:
		return Decision{State: GuardWrongRole, Location: Landing(state.User)}
	}
}
