package ledgerauth

// Response messages returned by the auth endpoints. These are part of
// the API contract and must stay stable.
const (
	MsgCheckEmail            = "User successfully created. Check your email for confirmation."
	MsgEmailConfirmed        = "Email confirmed"
	MsgEmailAlreadyConfirmed = "Your email is already confirmed"
	MsgCheckEmailNextStep    = "Check your email for further instructions"
	MsgPasswordUpdated       = "Password successfully updated"
)
