// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth verifies caller identity and generates record IDs.

# Bearer Tokens

Identity is issued elsewhere (the campus login service) and arrives as a
bearer token of the form base64url(claims) "." base64url(hmac):

	id, err := auth.ParseToken(token, secret)

The claims carry the user ID, the account role (admin, student,
professor) and the institute. The signature is HMAC-SHA256 over the
encoded claims, so verification needs no database round trip.

Tokens can be minted for tests and local development:

	token, err := auth.IssueToken(auth.Identity{UserID: "u1", Role: auth.RoleStudent}, secret)

# ID Generation

Random UUIDs for database records:

	id := auth.GenerateID()
*/
package auth
