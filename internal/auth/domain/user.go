package domain

// User is a credential-store row. Passwords are stored and compared in
// plaintext; the store is seeded out of band and predates this service.
// Known security gap, left as-is.
//
// LoggedOut is the server-side revocation flag: a session token is only
// valid while it is false for its subject.
type User struct {
	Username  string
	Password  string
	LoggedOut bool
}
