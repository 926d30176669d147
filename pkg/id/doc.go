// Package id generates request correlation identifiers.
//
// Job identifiers are not minted here; they are assigned by the queue store's
// persistent counter at commit time. This package only covers log correlation.
package id
