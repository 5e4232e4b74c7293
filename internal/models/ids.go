package models

import (
	"strings"

	"github.com/google/uuid"
)

// idNamespace scopes content-derived ids so they never collide with random ones
var idNamespace = uuid.MustParse("6f1c2a8e-4b7d-5e90-9a3c-2d8e7f601b44")

// ContentID derives a stable id from a kind and the content that defines the
// entity. Identical input always yields the same id, which keeps reprocessing
// idempotent.
func ContentID(kind string, parts ...string) string {
	return uuid.NewSHA1(idNamespace, []byte(kind+":"+strings.Join(parts, "|"))).String()
}

// NewID returns a random id
func NewID() string {
	return uuid.NewString()
}
