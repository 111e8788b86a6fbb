package users

import "strings"

// Filter returns the users whose name or email contains search
// (case-insensitive) and, when role is non-empty, whose role equals it.
// Order is preserved and list is not modified.
func Filter(list []ViewUser, search string, role Role) []ViewUser {
	needle := strings.ToLower(search)
	out := make([]ViewUser, 0, len(list))
	for _, u := range list {
		if role != "" && u.Role != role {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(u.Name), needle) &&
			!strings.Contains(strings.ToLower(u.Email), needle) {
			continue
		}
		out = append(out, u)
	}
	return out
}
