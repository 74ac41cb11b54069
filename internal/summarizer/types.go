// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package summarizer

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// =============================================================================
// MODELS
// =============================================================================

// Model names a summarization model offered by the backend.
type Model string

const (
	ModelMT5       Model = "mT5-Marathi"
	ModelIndicBART Model = "IndicBART"
	ModelPegasus   Model = "Pegasus-Marathi"
)

// Models lists the selectable models in display order.
var Models = []Model{ModelMT5, ModelIndicBART, ModelPegasus}

// ParseModel resolves a model name case-insensitively.
func ParseModel(s string) (Model, error) {
	for _, m := range Models {
		if strings.EqualFold(string(m), strings.TrimSpace(s)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown model %q (available: %s)", s, joinModels())
}

// Next returns the model after m, wrapping around.
func (m Model) Next() Model {
	for i, v := range Models {
		if v == m {
			return Models[(i+1)%len(Models)]
		}
	}
	return Models[0]
}

// Tunable reports whether the model honours tone and length.
func (m Model) Tunable() bool { return m == ModelPegasus }

func joinModels() string {
	names := make([]string, len(Models))
	for i, m := range Models {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

// =============================================================================
// TONE AND LENGTH
// =============================================================================

// Tone is the requested register of the summary.
type Tone string

const (
	ToneFormal  Tone = "formal"
	ToneCasual  Tone = "casual"
	ToneNeutral Tone = "neutral"
)

// Tones lists the selectable tones.
var Tones = []Tone{ToneFormal, ToneCasual, ToneNeutral}

// ParseTone resolves a tone name.
func ParseTone(s string) (Tone, error) {
	for _, t := range Tones {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tone %q (formal, casual, neutral)", s)
}

// Length is the requested summary length.
type Length string

const (
	LengthShort  Length = "short"
	LengthMedium Length = "medium"
	LengthLong   Length = "long"
)

// Lengths lists the selectable lengths.
var Lengths = []Length{LengthShort, LengthMedium, LengthLong}

// ParseLength resolves a length name.
func ParseLength(s string) (Length, error) {
	for _, l := range Lengths {
		if strings.EqualFold(string(l), strings.TrimSpace(s)) {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown length %q (short, medium, long)", s)
}

// Bounds returns the min and max token counts for l.
func (l Length) Bounds() (min, max int) {
	switch l {
	case LengthShort:
		return 20, 60
	case LengthLong:
		return 60, 200
	default:
		return 30, 100
	}
}

// Params are the effective generation settings for a request.
type Params struct {
	Tone      Tone
	Length    Length
	MinLength int
	MaxLength int
}

// ResolveParams applies the model's constraints. Only Pegasus-Marathi honours
// tone and length; other models always run neutral/medium.
func ResolveParams(m Model, tone Tone, length Length) Params {
	if !m.Tunable() || tone == "" {
		tone = ToneNeutral
	}
	if !m.Tunable() || length == "" {
		length = LengthMedium
	}
	min, max := length.Bounds()
	return Params{Tone: tone, Length: length, MinLength: min, MaxLength: max}
}

// =============================================================================
// REQUEST / RESPONSE
// =============================================================================

// Request is one summarization turn.
type Request struct {
	Text   string
	Model  Model
	Tone   Tone
	Length Length
	// Images are data URIs attached to the turn.
	Images []string
}

// summarizeBody is the JSON body of /summarize and /summarize-marathi.
type summarizeBody struct {
	Text      string   `json:"text"`
	MinLength int      `json:"min_length"`
	MaxLength int      `json:"max_length"`
	Model     string   `json:"model,omitempty"`
	Tone      string   `json:"tone,omitempty"`
	Images    []string `json:"images,omitempty"`
}

type summarizeResponse struct {
	Summary string `json:"summary"`
}

type readyResponse struct {
	Loaded bool `json:"loaded"`
}

type loadResponse struct {
	Status string `json:"status"`
}

// serverError is FastAPI's error envelope.
type serverError struct {
	Detail any `json:"detail"`
}

// Result is a completed summary.
type Result struct {
	Summary  string        `json:"summary"`
	Model    Model         `json:"model"`
	Endpoint string        `json:"endpoint"`
	Params   Params        `json:"-"`
	Duration time.Duration `json:"duration_ns"`
}

// LoadStatus is the backend's answer to a warm-up request.
type LoadStatus string

const (
	StatusLoading       LoadStatus = "loading"
	StatusLoaded        LoadStatus = "loaded"
	StatusAlreadyLoaded LoadStatus = "already_loaded"
)

// Diagnostics is the free-form /diagnose payload.
type Diagnostics map[string]any

// Keys returns the diagnostic keys sorted.
func (d Diagnostics) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ModelLoaded reports the model_loaded flag.
func (d Diagnostics) ModelLoaded() bool {
	v, _ := d["model_loaded"].(bool)
	return v
}
