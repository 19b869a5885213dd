// Package auth holds gatekeeper's users, their permission codes, and the
// authorization check that guards privileged API handlers.
//
// Permissions are open string codes. The registry in permissions.go lists
// the codes the UI knows about, but the store accepts any code and the
// check only tests set membership.
//
// Authentication and authorization are kept apart:
//   - the page gate (api package) only asks whether a session exists
//   - Authorizer.Check re-reads the user from the store on every call and
//     compares the live permission set, never the snapshot in the cookie
//
// Passwords are hashed with Argon2id. Hashes in bcrypt format are still
// accepted by VerifyPassword so accounts imported from older systems can
// log in.
//
// User id 1 is the root account created on first boot. It cannot be
// updated or deleted through the API.
package auth
