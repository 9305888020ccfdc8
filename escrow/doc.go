// Package escrow builds and validates the JSON document used to initialise an
// escrow engagement: the participating roles, the escrowed amount, the
// platform fee, the milestone list and the token trustline.
//
// Every invariant is checked once in Build. A Payload returned by Build or
// DecodePayload always satisfies them.
package escrow
