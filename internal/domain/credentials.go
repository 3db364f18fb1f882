package domain

// Credentials are the fields the login form posts.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration are the fields the register form posts.
type Registration struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	UserType UserType `json:"user_type"`
}

// PasswordReset requests a reset mail for an email address.
type PasswordReset struct {
	Email string `json:"email"`
}
