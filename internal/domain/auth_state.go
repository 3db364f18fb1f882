package domain

// AuthState is the snapshot a session's auth context exposes to routing.
// Loading is true only while the session is being hydrated for the first time.
type AuthState struct {
	User    *User `json:"user"`
	Loading bool  `json:"loading"`
}

// Authenticated reports whether the state has settled with a user.
func (s AuthState) Authenticated() bool {
	return !s.Loading && s.User != nil
}
