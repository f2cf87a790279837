// Package cli provides the administrative command-line tool of the user
// authentication service.
//
// Commands:
//   - migrate: apply the embedded schema migrations
//   - seed: migrate, then insert the demo accounts that are missing
//   - create-user: create an account with a given role; the password is
//     read from the terminal without echo
//
// The tool shares its configuration (DSN, bcrypt cost) with the server.
package cli
