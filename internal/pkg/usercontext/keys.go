package usercontext

// Shared Locals/session keys used across controllers and middlewares
const (
	AuthKey          = "authenticated"
	KeyUserID        = "user_id"
	KeyUsername      = "username"
	KeyClubID        = "club_id"
	KeyIsAdmin       = "isAdmin"
	KeyFromProtected = "from_protected"
)
