// Package session carries the authenticated principal in an encrypted
// cookie.
//
// A Session is sealed with PASETO v4.local: XChaCha20 encryption plus a
// keyed BLAKE2b tag, under a 32-byte key derived from the configured secret
// with HKDF-SHA256. The expiry is part of the sealed claims, so a cookie
// whose Max-Age was tampered with still stops decoding on time.
//
// Decoding never fails outward. Any value that was not produced by Encode
// under the current secret, or that has expired, decodes as "no session".
//
// The server keeps no session table. Permissions inside the cookie are a
// snapshot taken at login or refresh and must not be used for authorization
// decisions; see auth.Authorizer for the live check.
package session
