// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import "strings"

// recallLimit is how many past prompts up-arrow can reach.
const recallLimit = 100

// =============================================================================
// PROMPT RECALL
// =============================================================================

// recall walks previous prompts, newest first. While browsing, the draft
// that was in the composer when browsing began is kept so down-arrow past
// the newest entry brings it back.
type recall struct {
	entries []string
	pos     int // -1 when not browsing
	draft   string
}

func newRecall() *recall {
	return &recall{pos: -1}
}

// load replaces the entries with prompts from history, keeping any pushed
// during this session in front.
func (r *recall) load(prompts []string) {
	merged := append([]string(nil), r.entries...)
	for _, p := range prompts {
		if !contains(merged, p) {
			merged = append(merged, p)
		}
	}
	if len(merged) > recallLimit {
		merged = merged[:recallLimit]
	}
	r.entries = merged
	r.pos = -1
}

// push records a committed prompt as the newest entry.
func (r *recall) push(prompt string) {
	if strings.TrimSpace(prompt) == "" {
		return
	}
	entries := []string{prompt}
	for _, e := range r.entries {
		if e != prompt {
			entries = append(entries, e)
		}
	}
	if len(entries) > recallLimit {
		entries = entries[:recallLimit]
	}
	r.entries = entries
	r.pos = -1
}

// browsing reports whether the current draft came from recall and is
// unchanged.
func (r *recall) browsing(current string) bool {
	return r.pos >= 0 && r.pos < len(r.entries) && r.entries[r.pos] == current
}

// prev returns the next older prompt.
func (r *recall) prev(current string) (string, bool) {
	if r.pos+1 >= len(r.entries) {
		return "", false
	}
	if r.pos < 0 {
		r.draft = current
	}
	r.pos++
	return r.entries[r.pos], true
}

// next returns the next newer prompt, or the saved draft past the newest.
func (r *recall) next() (string, bool) {
	if r.pos < 0 {
		return "", false
	}
	r.pos--
	if r.pos < 0 {
		return r.draft, true
	}
	return r.entries[r.pos], true
}

// reset leaves browsing mode.
func (r *recall) reset() {
	r.pos = -1
	r.draft = ""
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}
