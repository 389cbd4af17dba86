// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import "errors"

// Sentinel errors for the pipeline service.
//
// Stage code wraps these with fmt.Errorf("...: %w", Err...) so the original
// diagnostic message survives as context while handlers classify with
// errors.Is. ErrUpstreamWrite is never surfaced to callers; the training
// handler downgrades it to a logged warning.
var (
	// ErrSessionNotFound indicates an unknown session id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidArgument indicates a bad strategy/method name, a missing
	// required column, or insufficient samples for a balancing method.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupportedModel indicates an unknown model key.
	ErrUnsupportedModel = errors.New("unsupported model")

	// ErrExplanationUnavailable indicates attribution could not be computed
	// (degenerate model, empty feature set, or no prior explain step).
	ErrExplanationUnavailable = errors.New("explanation unavailable")

	// ErrAssistantUnavailable indicates a missing credential or an upstream
	// LLM failure. Never treated as a pipeline failure.
	ErrAssistantUnavailable = errors.New("assistant unavailable")

	// ErrUpstreamWrite indicates the external job-record store rejected a
	// write. Logged and dropped, by contract.
	ErrUpstreamWrite = errors.New("upstream write failed")
)
