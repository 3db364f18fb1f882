package domain

// Category is the access class a route requires.
type Category string

const (
	CategoryNone      Category = ""
	CategoryEmployer  Category = "Employer"
	CategoryCandidate Category = "Candidate"
)

// acceptedUserTypes maps a requested category to the stored user types that satisfy it.
// Teacher is a synonym of Candidate for access purposes only.
//
//nolint:gochecknoglobals
var acceptedUserTypes = map[Category][]UserType{
	CategoryEmployer:  {UserTypeEmployer},
	CategoryCandidate: {UserTypeCandidate, UserTypeTeacher},
}

// Accepts reports whether a user of type t may enter a route requiring c.
// CategoryNone accepts every user type.
func (c Category) Accepts(t UserType) bool {
	if c == CategoryNone {
		return true
	}

	for _, accepted := range acceptedUserTypes[c] {
		if accepted == t {
			return true
		}
	}

	return false
}

// CategoryOf returns the category a user type is routed as, and false for unknown types.
func CategoryOf(t UserType) (Category, bool) {
	for _, c := range []Category{CategoryEmployer, CategoryCandidate} {
		if c.Accepts(t) {
			return c, true
		}
	}

	return CategoryNone, false
}
