package flows

// Deps groups flow dependency sets. The engine builds this once and hands the
// matching set to each flow.
type Deps struct {
	Login         LoginDeps
	PasswordReset PasswordResetDeps
}
