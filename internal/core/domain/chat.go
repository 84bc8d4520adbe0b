package domain

import "errors"

// ErrEligibilityUndetermined wraps user directory failures during a chat
// eligibility check. Callers must not read it as a denial.
var ErrEligibilityUndetermined = errors.New("chat eligibility undetermined")

// AnyCreator reports whether at least one of roles is the creator role.
func AnyCreator(roles []string) bool {
	for _, r := range roles {
		if r == RoleCreator {
			return true
		}
	}
	return false
}
