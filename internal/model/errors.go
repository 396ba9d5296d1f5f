package model

import "github.com/rotisserie/eris"

// Only ErrEngineUnavailable aborts a run. The rest are absorbed where they
// occur and surface as log lines and degraded fields.
var (
	ErrEngineUnavailable  = eris.New("no rendering engine available")
	ErrListingIncomplete  = eris.New("listing did not stabilize")
	ErrCandidateRejected  = eris.New("candidate rejected")
	ErrDetailFetchFailed  = eris.New("detail fetch failed")
	ErrProfileFetchFailed = eris.New("profile fetch failed")
	ErrInterrupted        = eris.New("run interrupted")
)
