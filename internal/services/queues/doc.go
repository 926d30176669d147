// Package queuesvc implements the queue lifecycle manager.
//
// The created/updated distinction of an upsert is part of the public contract
// and is preserved end to end; absence conditions surface as NoSuchQueue or
// NotFound kinds rather than generic failures.
package queuesvc
