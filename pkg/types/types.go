// Package types holds the wire and domain types shared by the chatd packages.
// The JSON shapes here are the public HTTP contract.
package types
