package submission

import "fmt"

// Rejection reasons shown to the submitter.
const (
	ReasonUnrecognized     = "unrecognized schema"
	ReasonUnknownCommunity = "unknown community"
	ReasonNotModerator     = "not a moderator"
	ReasonBotNotInstalled  = "bot not installed"
	ReasonUnknownUser      = "unknown user"
	ReasonDuplicate        = "rule already exists"
	ReasonStorage          = "storage failure"
	ReasonPlatform         = "platform error"
)

// AuthorizationError rejects an item because the community or the people
// involved do not allow it.
type AuthorizationError struct {
	Reason    string
	Community string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Community)
}
