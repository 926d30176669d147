// Package staging is the durable write-ahead area for job submissions.
//
// A record is written before any queue store call and deleted only after a
// confirmed commit. A record left behind marks an unresolved submission and
// can be replayed through the reattempt operation.
package staging
