package common

// Credentials holds what is needed to reach a host and escalate on it.
type Credentials struct {
	User          string
	Password      string
	KeyPassphrase string
	SudoPassword  string
}
