// Package qerr defines the broker's error taxonomy.
//
// Every error crossing a service boundary carries a Kind; the HTTP layer maps
// kinds to status codes and never collapses them into a generic failure.
package qerr
