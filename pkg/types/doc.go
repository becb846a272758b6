// Package types defines the entities, lifecycle states, repository interfaces,
// and standard errors shared by the upkeep maintenance tracker.
//
// Entities are plain structs. Persistence is reached only through the
// repository interfaces declared in store.go; every read path in a
// repository returns active rows unless the method is an explicit audit read.
package types
