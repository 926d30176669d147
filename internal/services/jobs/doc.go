// Package jobsvc implements two-phase job submission and job retrieval.
//
// A submission is written to the staging area before the queue store sees it,
// so a crash between the two steps leaves a replayable record instead of a
// lost job. Retrieval supports a configurable delay on empty responses to
// keep idle workers from hot-polling.
package jobsvc
