package domain

// Authorize is the access policy gate: it allows an operation when no roles
// are required or when the principal's role is in the required set. Pure
// function, no I/O; it must be evaluated before any mutating ledger
// operation executes.
func Authorize(p Principal, requiredRoles ...string) bool {
	if len(requiredRoles) == 0 {
		return true
	}
	for _, r := range requiredRoles {
		if p.Role == r {
			return true
		}
	}
	return false
}
