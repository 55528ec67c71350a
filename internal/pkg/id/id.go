// Package id generates identifiers for all persisted records.
package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New returns a fresh ULID string. ULIDs sort lexicographically by creation
// time, which keeps verification histories and message threads naturally
// ordered and makes them safe DynamoDB partition keys. Server IDs handed
// back for client temp IDs during sync come from here too.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
