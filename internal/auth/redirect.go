package auth

import "mindwell/internal/models"

// LoginPath is where callers without a session or with an unknown role land.
const LoginPath = "/login"

func RedirectPath(role models.Role) string {
	switch role {
	case models.RoleUser:
		return "/home"
	case models.RoleCounselor:
		return "/counselor/dashboard"
	case models.RoleEmployer:
		return "/employer/dashboard"
	}
	return LoginPath
}
