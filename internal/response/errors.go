package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"
	ErrTokenExpired  ErrCode = "TOKEN_EXPIRED"
	ErrUnauthorized  ErrCode = "UNAUTHORIZED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden           ErrCode = "FORBIDDEN"
	ErrPermissionDenied    ErrCode = "PERMISSION_DENIED"
	ErrCandidateAccessOnly ErrCode = "CANDIDATE_ACCESS_ONLY"
	ErrStaffAccessOnly     ErrCode = "STAFF_ACCESS_ONLY"
	ErrGateDenied          ErrCode = "GATE_DENIED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation      ErrCode = "VALIDATION_ERROR"
	ErrInvalidID       ErrCode = "INVALID_ID"
	ErrInvalidPayload  ErrCode = "INVALID_PAYLOAD"
	ErrSessionRequired ErrCode = "SESSION_REQUIRED"
	ErrTimeLimit       ErrCode = "TIME_LIMIT_EXCEEDED"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound          ErrCode = "NOT_FOUND"
	ErrSessionNotFound   ErrCode = "SESSION_NOT_FOUND"
	ErrCandidateNotFound ErrCode = "CANDIDATE_NOT_FOUND"
	ErrInterviewNotFound ErrCode = "INTERVIEW_NOT_FOUND"
	ErrQuizNotFound      ErrCode = "QUIZ_NOT_FOUND"
	ErrNoProgress        ErrCode = "NO_PROGRESS"
	ErrConflict          ErrCode = "CONFLICT"

	// ─── Admission pipeline ────────────────────────────────────────────
	ErrAlreadyCompleted     ErrCode = "ALREADY_COMPLETED"
	ErrStaleProgress        ErrCode = "STALE_PROGRESS"
	ErrAlreadyRegistered    ErrCode = "ALREADY_REGISTERED"
	ErrInterviewAlreadyOpen ErrCode = "INTERVIEW_ALREADY_OPEN"
	ErrInterviewDecided     ErrCode = "INTERVIEW_DECIDED"
	ErrInterviewNotStarted  ErrCode = "INTERVIEW_NOT_STARTED"
	ErrQuizNotCompleted     ErrCode = "QUIZ_NOT_COMPLETED"
	ErrSessionClosed        ErrCode = "SESSION_CLOSED"
	ErrSessionNotPlanned    ErrCode = "SESSION_NOT_PLANNED"
	ErrInvalidTransition    ErrCode = "INVALID_TRANSITION"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "Un jeton d'authentification est requis."
	case ErrTokenInvalid:
		return "Le jeton d'authentification est invalide."
	case ErrTokenExpired:
		return "Le jeton d'authentification a expiré."
	case ErrUnauthorized:
		return "Authentification requise."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "Vous n'avez pas accès à cette ressource."
	case ErrPermissionDenied:
		return "Permission refusée."
	case ErrCandidateAccessOnly:
		return "Cette ressource est réservée aux candidats."
	case ErrStaffAccessOnly:
		return "Cette ressource est réservée au personnel de l'académie."
	case ErrGateDenied:
		return "L'accès au quiz n'est pas autorisé à ce stade."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "La validation a échoué. Vérifiez les champs saisis."
	case ErrInvalidID:
		return "Format d'identifiant invalide."
	case ErrInvalidPayload:
		return "Le contenu de la requête est invalide."
	case ErrSessionRequired:
		return "L'identifiant de session est requis pour ce quiz."
	case ErrTimeLimit:
		return "Le temps imparti est dépassé."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Ressource introuvable."
	case ErrSessionNotFound:
		return "Session introuvable."
	case ErrCandidateNotFound:
		return "Le candidat n'est pas inscrit à cette session."
	case ErrInterviewNotFound:
		return "Entretien introuvable."
	case ErrQuizNotFound:
		return "Quiz introuvable."
	case ErrNoProgress:
		return "Aucune progression en cours pour ce quiz."
	case ErrConflict:
		return "La ressource a été modifiée entre-temps."

	// ─── Admission pipeline ────────────────────────────────────────────
	case ErrAlreadyCompleted:
		return "Ce quiz a déjà été terminé."
	case ErrStaleProgress:
		return "Une sauvegarde plus récente existe déjà."
	case ErrAlreadyRegistered:
		return "Le candidat est déjà inscrit à cette session."
	case ErrInterviewAlreadyOpen:
		return "Un entretien est déjà ouvert pour ce candidat."
	case ErrInterviewDecided:
		return "Cet entretien a déjà reçu une décision."
	case ErrInterviewNotStarted:
		return "Cet entretien n'a pas encore commencé."
	case ErrQuizNotCompleted:
		return "Le quiz n'est pas encore terminé."
	case ErrSessionClosed:
		return "Cette session est clôturée."
	case ErrSessionNotPlanned:
		return "L'inscription ne peut être retirée qu'avant l'ouverture de la session."
	case ErrInvalidTransition:
		return "Cette étape n'est pas possible dans l'état actuel du candidat."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Trop de requêtes. Réessayez plus tard."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Erreur interne du serveur."
	default:
		return "Une erreur inattendue est survenue."
	}
}
