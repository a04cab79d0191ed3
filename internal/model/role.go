package model

// Role is the fixed account role stored on each user.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleTeacher Role = "TEACHER"
	RoleAdmin   Role = "ADMIN"
)

var rolePermissions = map[Role][]Permission{
	RoleStudent: {
		PermissionExamsTake,
		PermissionPapersRead,
		PermissionStatsRead,
	},
	RoleTeacher: {
		PermissionQuestionsRead,
		PermissionQuestionsWrite,
		PermissionPapersRead,
		PermissionPapersWrite,
		PermissionExamsTake,
		PermissionExamsRead,
		PermissionExamsGrade,
		PermissionStatsRead,
	},
	RoleAdmin: AllPermissions,
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := rolePermissions[r]
	return ok
}

// Permissions returns the permission codes granted to the role.
func (r Role) Permissions() []string {
	perms := rolePermissions[r]
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}
