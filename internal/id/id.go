// Package id generates time-sortable identifiers for runs and requests.
package id

import "github.com/oklog/ulid/v2"

// New returns a ULID string. ULIDs sort lexicographically by generation time,
// which keeps run records naturally ordered in logs and listings.
func New() string {
	return ulid.Make().String()
}
