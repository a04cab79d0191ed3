package model

// Permission represents a string code for a specific system action.
type Permission string

const (
	// PermissionQuestionsRead allows browsing the question bank.
	PermissionQuestionsRead Permission = "questions:read"

	// PermissionQuestionsWrite allows creating, editing, deleting and submitting questions for review.
	PermissionQuestionsWrite Permission = "questions:write"

	// PermissionQuestionsReview allows approving and rejecting submitted questions.
	PermissionQuestionsReview Permission = "questions:review"

	// PermissionPapersRead allows viewing papers.
	PermissionPapersRead Permission = "papers:read"

	// PermissionPapersWrite allows creating, generating and deleting papers.
	PermissionPapersWrite Permission = "papers:write"

	// PermissionExamsTake allows starting, viewing and submitting one's own exams.
	PermissionExamsTake Permission = "exams:take"

	// PermissionExamsRead allows viewing any exam session.
	PermissionExamsRead Permission = "exams:read"

	// PermissionExamsGrade allows manual regrading of submitted sessions.
	PermissionExamsGrade Permission = "exams:grade"

	// PermissionStatsRead allows viewing leaderboards and paper analytics.
	PermissionStatsRead Permission = "stats:read"

	// PermissionUsersWrite allows creating accounts.
	PermissionUsersWrite Permission = "users:write"
)

// AllPermissions is a slice of all available permissions.
var AllPermissions = []Permission{
	PermissionQuestionsRead,
	PermissionQuestionsWrite,
	PermissionQuestionsReview,
	PermissionPapersRead,
	PermissionPapersWrite,
	PermissionExamsTake,
	PermissionExamsRead,
	PermissionExamsGrade,
	PermissionStatsRead,
	PermissionUsersWrite,
}
