// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"

	"github.com/jeranaias/saransh-tui/internal/summarizer"
)

// ModelInfo describes a backend model for selectors and help text.
type ModelInfo struct {
	Model       summarizer.Model
	ShortName   string
	Description string
	Languages   []string
}

// Models is the registry of backend models in selector order.
var Models = []ModelInfo{
	{
		Model:       summarizer.ModelMT5,
		ShortName:   "mt5",
		Description: "multilingual T5 fine-tuned for Marathi news",
		Languages:   []string{"mr", "en"},
	},
	{
		Model:       summarizer.ModelIndicBART,
		ShortName:   "indicbart",
		Description: "IndicBART, fast and compact",
		Languages:   []string{"mr", "hi", "en"},
	},
	{
		Model:       summarizer.ModelPegasus,
		ShortName:   "pegasus",
		Description: "Pegasus with tone and length control",
		Languages:   []string{"mr", "en"},
	},
}

// Lookup resolves a model by full or short name.
func Lookup(name string) (ModelInfo, bool) {
	name = strings.TrimSpace(name)
	for _, info := range Models {
		if strings.EqualFold(info.ShortName, name) || strings.EqualFold(string(info.Model), name) {
			return info, true
		}
	}
	return ModelInfo{}, false
}

// Info returns the registry entry for m.
func Info(m summarizer.Model) ModelInfo {
	for _, info := range Models {
		if info.Model == m {
			return info
		}
	}
	return ModelInfo{Model: m, ShortName: strings.ToLower(string(m))}
}

// Label is the status bar text for the selection; tone and length are only
// shown for models that honour them.
func Label(m summarizer.Model, tone summarizer.Tone, length summarizer.Length) string {
	if !m.Tunable() {
		return string(m)
	}
	p := summarizer.ResolveParams(m, tone, length)
	return string(m) + " · " + string(p.Tone) + "/" + string(p.Length)
}

// ShortNames returns the short names for completion.
func ShortNames() []string {
	names := make([]string, len(Models))
	for i, info := range Models {
		names[i] = info.ShortName
	}
	return names
}
