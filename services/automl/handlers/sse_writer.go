// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// sseEvent is the wire shape of one streamed suggestion event.
type sseEvent struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// sseWriter serializes events in SSE format (event: type\ndata: json\n\n)
// and flushes after every write.
//
// # Assumptions
//
//   - Caller set Content-Type: text/event-stream before the first write.
//   - The ResponseWriter supports http.Flusher.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}
	return &sseWriter{w: w, flusher: flusher}, nil
}

func (s *sseWriter) writeEvent(event sseEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal sse event: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event.Type, payload); err != nil {
		return fmt.Errorf("write sse event: %w", err)
	}
	s.flusher.Flush()
	return nil
}

func (s *sseWriter) writeToken(content string) error {
	return s.writeEvent(sseEvent{Type: "token", Content: content})
}

func (s *sseWriter) writeDone() error {
	return s.writeEvent(sseEvent{Type: "done"})
}

func (s *sseWriter) writeError(message string) error {
	return s.writeEvent(sseEvent{Type: "error", Error: message})
}
