package model

// Reason tags a non-success outcome so callers can branch without reading error text.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonGuest           Reason = "guest"
	ReasonFailedCriteria  Reason = "failed_criteria"
	ReasonDBError         Reason = "db_error"
	ReasonNotEligible     Reason = "not_eligible"
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonInvalidTask     Reason = "invalid_task"
)

// Message returns a short user-facing description of the reason.
func (r Reason) Message() string {
	switch r {
	case ReasonNone:
		return ""
	case ReasonGuest:
		return "not logged in; result was not saved"
	case ReasonFailedCriteria:
		return "pass criteria not met"
	case ReasonDBError:
		return "could not save to the database; try again"
	case ReasonNotEligible:
		return "not eligible for a certificate yet"
	case ReasonUnauthenticated:
		return "log in to request a certificate"
	case ReasonInvalidTask:
		return "unknown lesson or task"
	default:
		return string(r)
	}
}
