// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package summarizer provides the HTTP client for the local summarization
// backend.
//
// The backend exposes a small JSON API:
//
//	POST /summarize           {text, min_length, max_length} -> {summary}
//	POST /summarize-marathi   same shape, Marathi model
//	GET  /ready               -> {loaded}
//	POST /load?blocking=bool  -> {status}
//	GET  /diagnose            -> free-form diagnostics
//
// # Key Types
//
//   - Client: HTTP client for the backend
//   - Request: text, model, tone, length and attached images
//   - Result: summary text plus the endpoint and timing
//   - ClientError: typed transport error
//
// # Usage
//
//	client := summarizer.NewClientWithConfig(&summarizer.ClientConfig{BaseURL: cfg.Backend.URL})
//	if !client.Ready(ctx) {
//	    _, _ = client.WarmUp(ctx, false)
//	}
//	res, err := client.Summarize(ctx, summarizer.Request{Text: text, Model: summarizer.ModelPegasus})
//
// Text that is mostly Devanagari is routed to /summarize-marathi; everything
// else goes to /summarize. Input is NFC-normalized before it is sent.
package summarizer
