package v1

import "net/http"

// Gateway identity headers. The directory's API gateway authenticates the
// user and stamps these on every proxied request; this service trusts them.
const (
	HeaderCallerID   = "X-Caller-Id"
	HeaderCallerRole = "X-Caller-Role"
)

// Roles known to the directory application.
const (
	RoleAdmin  = "admin"
	RoleVendor = "vendor"
	RoleMember = "member"
)

// Caller identifies the requesting user as asserted by the gateway.
type Caller struct {
	ID   string
	Role string
}

// IsAdmin reports whether the caller may use admin-only surfaces.
func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// CallerFromHeaders extracts the gateway identity from a request.
func CallerFromHeaders(h http.Header) Caller {
	return Caller{
		ID:   h.Get(HeaderCallerID),
		Role: h.Get(HeaderCallerRole),
	}
}
