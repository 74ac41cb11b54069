// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package composer

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// LIMITS
// =============================================================================

// CharsPerRow is the nominal row width used by the paste length threshold.
const CharsPerRow = 80

// ImagePolicy controls whether images may be attached.
type ImagePolicy string

const (
	ImagesAllowed  ImagePolicy = "yes"
	ImagesDisabled ImagePolicy = "no"
	ImagesWarn     ImagePolicy = "warn" // accepted, but the host shows a notice
)

// SnippetMarkers is the delimiter pair placed around large pasted blocks.
type SnippetMarkers struct {
	Begin string `toml:"begin" json:"begin"`
	End   string `toml:"end" json:"end"`
}

// Contains reports whether text contains either marker literally.
func (m SnippetMarkers) Contains(text string) bool {
	return strings.Contains(text, m.Begin) || strings.Contains(text, m.End)
}

// Limits holds the composer tunables.
type Limits struct {
	// MaxRows is the visible row budget before the surface scrolls, and the
	// newline threshold for snippet wrapping.
	MaxRows int

	// Markers wrap large pastes and inlined text files.
	Markers SnippetMarkers

	// MaxImages caps staged image attachments per message.
	MaxImages int

	// ImageMIMETypes and TextMIMETypes are the accepted upload types.
	ImageMIMETypes []string
	TextMIMETypes  []string

	// ResizeDelay is the debounce delay for height recalculation.
	ResizeDelay time.Duration

	// ImagePolicy gates image attachments.
	ImagePolicy ImagePolicy

	// MaxTextFileBytes bounds inlined text files.
	MaxTextFileBytes int64

	// MaxImageDimension bounds the longest side after preprocessing.
	MaxImageDimension int
}

// DefaultLimits returns the stock composer limits.
func DefaultLimits() Limits {
	return Limits{
		MaxRows: 6,
		Markers: SnippetMarkers{
			Begin: "~~~ BEGIN SNIPPET ~~~",
			End:   "~~~ END SNIPPET ~~~",
		},
		MaxImages:         3,
		ImageMIMETypes:    []string{"image/png", "image/jpeg", "image/gif", "image/webp"},
		TextMIMETypes:     []string{"text/plain", "text/markdown", "text/csv", "text/html", "application/json"},
		ResizeDelay:       100 * time.Millisecond,
		ImagePolicy:       ImagesAllowed,
		MaxTextFileBytes:  1 << 20,
		MaxImageDimension: 1568,
	}
}

// CharThreshold is the paste length above which a paste is wrapped.
func (l Limits) CharThreshold() int {
	return CharsPerRow * l.MaxRows
}

// AcceptsImage reports whether mimeType is an accepted image type.
func (l Limits) AcceptsImage(mimeType string) bool {
	return containsFold(l.ImageMIMETypes, mimeType)
}

// AcceptsText reports whether mimeType is an accepted text type. Any text/*
// type is accepted when the list contains "text/plain".
func (l Limits) AcceptsText(mimeType string) bool {
	if containsFold(l.TextMIMETypes, mimeType) {
		return true
	}
	return strings.HasPrefix(mimeType, "text/") && containsFold(l.TextMIMETypes, "text/plain")
}

// Validate checks that the limits are usable.
func (l Limits) Validate() error {
	var errs []error
	if l.MaxRows < 1 {
		errs = append(errs, fmt.Errorf("max rows must be at least 1, got %d", l.MaxRows))
	}
	if l.MaxImages < 0 {
		errs = append(errs, fmt.Errorf("max images must not be negative, got %d", l.MaxImages))
	}
	if l.Markers.Begin == "" || l.Markers.End == "" {
		errs = append(errs, errors.New("snippet markers must not be empty"))
	} else if l.Markers.Begin == l.Markers.End {
		errs = append(errs, errors.New("snippet begin and end markers must differ"))
	}
	if l.ResizeDelay < 0 {
		errs = append(errs, fmt.Errorf("resize delay must not be negative, got %s", l.ResizeDelay))
	}
	switch l.ImagePolicy {
	case ImagesAllowed, ImagesDisabled, ImagesWarn:
	default:
		errs = append(errs, fmt.Errorf("image policy must be yes, no or warn, got %q", l.ImagePolicy))
	}
	return errors.Join(errs...)
}

func containsFold(list []string, s string) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
