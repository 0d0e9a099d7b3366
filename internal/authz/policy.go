// Package authz holds the single capability table consulted by every
// protected route. Role checks live here and nowhere else.
package authz

// Role is an authenticated principal's role.
type Role string

const (
	RoleStudent   Role = "student"
	RoleFaculty   Role = "faculty"
	RoleAdmin     Role = "admin"
	RolePlacement Role = "placement"
)

// Resource names a protected resource class.
type Resource string

const (
	ResourceAttendance    Resource = "attendance"
	ResourceOwnAttendance Resource = "own_attendance"
	ResourceAnnouncements Resource = "announcements"
)

// Action names an operation on a resource.
type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionExport Action = "export"
)

type rule struct {
	Resource Resource
	Action   Action
}

// policy maps (resource, action) to the roles allowed to perform it.
var policy = map[rule][]Role{
	{ResourceAttendance, ActionWrite}:    {RoleFaculty, RoleAdmin},
	{ResourceAttendance, ActionRead}:     {RoleFaculty, RoleAdmin},
	{ResourceAttendance, ActionExport}:   {RoleFaculty, RoleAdmin},
	{ResourceOwnAttendance, ActionRead}:  {RoleStudent},
	{ResourceAnnouncements, ActionRead}:  {RoleStudent, RoleFaculty, RoleAdmin, RolePlacement},
	{ResourceAnnouncements, ActionWrite}: {RoleFaculty, RoleAdmin},
}

// Allowed reports whether role may perform action on resource.
func Allowed(role Role, res Resource, act Action) bool {
	for _, r := range policy[rule{res, act}] {
		if r == role {
			return true
		}
	}
	return false
}

// AllowedRoles returns the roles permitted for a resource/action pair,
// used in 403 payloads for debuggability.
func AllowedRoles(res Resource, act Action) []Role {
	return policy[rule{res, act}]
}
