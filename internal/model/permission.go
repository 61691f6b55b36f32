package model

// Permission represents a string code for a specific system action.
type Permission string

const (
	// PermissionQuizTake allows starting, saving and submitting one's own quiz attempts.
	PermissionQuizTake Permission = "quiz:take"

	// PermissionSessionsManage allows creating cohorts and advancing their status.
	PermissionSessionsManage Permission = "sessions:manage"

	// PermissionSessionsRegister allows enrolling a candidate into a cohort.
	PermissionSessionsRegister Permission = "sessions:register"

	// PermissionCandidatesRead allows viewing cohort enrollments.
	PermissionCandidatesRead Permission = "candidates:read"

	// PermissionCandidatesValidate allows the optional staff validation step.
	PermissionCandidatesValidate Permission = "candidates:validate"

	// PermissionCandidatesFinalize allows recording the final PASSED/FAILED outcome.
	PermissionCandidatesFinalize Permission = "candidates:finalize"

	// PermissionInterviewsConduct allows scheduling, opening and deciding interviews.
	PermissionInterviewsConduct Permission = "interviews:conduct"

	// PermissionInterviewsOverride allows deciding an interview claimed by someone else.
	PermissionInterviewsOverride Permission = "interviews:override"

	// PermissionAttemptsRead allows reading any candidate's quiz progress.
	PermissionAttemptsRead Permission = "attempts:read"

	// PermissionAttemptsReset allows deleting an attempt regardless of completion.
	PermissionAttemptsReset Permission = "attempts:reset"

	// PermissionMonitorRead allows reading the live cohort projection.
	PermissionMonitorRead Permission = "monitor:read"
)

// AllPermissions is a slice of all available permissions.
var AllPermissions = []Permission{
	PermissionQuizTake,
	PermissionSessionsManage,
	PermissionSessionsRegister,
	PermissionCandidatesRead,
	PermissionCandidatesValidate,
	PermissionCandidatesFinalize,
	PermissionInterviewsConduct,
	PermissionInterviewsOverride,
	PermissionAttemptsRead,
	PermissionAttemptsReset,
	PermissionMonitorRead,
}

var staffBase = []Permission{
	PermissionCandidatesRead,
	PermissionInterviewsConduct,
	PermissionAttemptsRead,
	PermissionMonitorRead,
}

var supervision = append(append([]Permission{}, staffBase...),
	PermissionSessionsManage,
	PermissionSessionsRegister,
	PermissionCandidatesValidate,
	PermissionCandidatesFinalize,
	PermissionInterviewsOverride,
	PermissionAttemptsReset,
)

// RolePermissions maps each role to the permissions it grants.
// Directors hold the same rights as supervisors; quiz taking stays candidate-only.
var RolePermissions = map[Role][]Permission{
	RoleCandidate: {
		PermissionQuizTake,
		PermissionSessionsRegister,
	},
	RoleInstructor: staffBase,
	RoleSupervisor: supervision,
	RoleDirector:   supervision,
}
