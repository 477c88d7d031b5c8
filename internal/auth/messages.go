package auth

// User-facing auth messages. Handlers and middleware use these so the same
// failure always reads the same way.
const (
	MsgInvalidCredentials = "Incorrect email or password"
	MsgAccountDeactivated = "Account is deactivated"
	MsgEmailTaken         = "An account with this email already exists"
	MsgNotAuthenticated   = "Not authenticated"
	MsgForbidden          = "You do not have access to this page"
)
