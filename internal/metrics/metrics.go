// Package metrics exposes runtime counters via expvar.
package metrics

import "expvar"

var (
	PollsTotal          = expvar.NewInt("polls_total")
	PollRetries         = expvar.NewInt("poll_retries")
	RedirectsPresented  = expvar.NewInt("redirects_presented")
	RedirectsDismissed  = expvar.NewInt("redirects_dismissed")
	ChallengesRun       = expvar.NewInt("challenges_run")
	ChallengesFailed    = expvar.NewInt("challenges_failed")
	DecisionLoops       = expvar.NewInt("decision_loops")
	ResumeCalls         = expvar.NewInt("resume_calls")
	AttemptsSucceeded   = expvar.NewInt("attempts_succeeded")
	AttemptsFailed      = expvar.NewInt("attempts_failed")
	AttemptsCancelled   = expvar.NewInt("attempts_cancelled")
	BreakerShortCircuit = expvar.NewInt("breaker_short_circuits")
)
