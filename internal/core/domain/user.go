package domain

import "time"

const (
	RoleAdmin       = "admin"
	RoleOperasional = "operasional"
)

// Site values. SiteAll is a user scope only; transactions are always tied
// to a concrete site.
const (
	SiteAll       = "ALL"
	SiteGenset    = "GENSET"
	SiteTugAssist = "TUG_ASSIST"
)

// User models an account in the identity store.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Site         string    `json:"site"`
	CreatedAt    time.Time `json:"created_at"`
}

// Principal is the authenticated identity extracted from a verified access
// token. It carries exactly the claims the authorization layer needs.
type Principal struct {
	ID       string
	Username string
	Role     string
	Site     string
}

// ValidRole reports whether role is one of the recognized role names.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleOperasional
}

// ValidSiteScope reports whether site is a valid user scope (ALL included).
func ValidSiteScope(site string) bool {
	return site == SiteAll || ValidCategory(site)
}

// ValidCategory reports whether category is a concrete transaction site.
func ValidCategory(category string) bool {
	return category == SiteGenset || category == SiteTugAssist
}

// CheckSiteInvariant enforces the rule that an operational user must be
// bound to a concrete site.
func CheckSiteInvariant(role, site string) error {
	if role == RoleOperasional && (site == "" || site == SiteAll) {
		return ErrSiteRequired
	}
	return nil
}
