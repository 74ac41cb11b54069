// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package clipboard

import (
	"errors"
	"fmt"
	"sync"

	atotto "github.com/atotto/clipboard"
	"golang.design/x/clipboard"

	"github.com/jeranaias/saransh-tui/internal/composer"
	"github.com/jeranaias/saransh-tui/internal/logging"
)

// ErrNoImage is returned when the clipboard holds no image.
var ErrNoImage = errors.New("clipboard does not contain an image")

// ErrUnavailable is returned when no system clipboard could be reached.
var ErrUnavailable = errors.New("system clipboard unavailable")

// Clipboard is the clipboard access the chat view needs.
type Clipboard interface {
	// ReadImage returns the clipboard image as a composer file.
	ReadImage() (composer.File, error)
	// ReadText returns the clipboard text.
	ReadText() (string, error)
	// WriteText replaces the clipboard text.
	WriteText(text string) error
}

// =============================================================================
// SYSTEM CLIPBOARD
// =============================================================================

// System reads images through golang.design/x/clipboard and writes text
// through atotto/clipboard, which shells out to xclip, xsel, wl-copy or
// pbcopy and works without cgo.
type System struct {
	once    sync.Once
	initErr error
}

// NewSystem returns the system clipboard. Initialization is deferred to the
// first image read.
func NewSystem() *System {
	return &System{}
}

func (s *System) init() error {
	s.once.Do(func() {
		if err := clipboard.Init(); err != nil {
			s.initErr = fmt.Errorf("%w: %v", ErrUnavailable, err)
			logging.Component("clipboard").Warn("image clipboard init failed", "error", err)
		}
	})
	return s.initErr
}

// ReadImage reads an image from the clipboard.
func (s *System) ReadImage() (composer.File, error) {
	if err := s.init(); err != nil {
		return composer.File{}, err
	}
	data := clipboard.Read(clipboard.FmtImage)
	if len(data) == 0 {
		return composer.File{}, ErrNoImage
	}
	logging.Component("clipboard").Debug("read clipboard image", "bytes", len(data))
	return ImageFile(data)
}

// ReadText reads plain text from the clipboard.
func (s *System) ReadText() (string, error) {
	if atotto.Unsupported {
		return "", ErrUnavailable
	}
	text, err := atotto.ReadAll()
	if err != nil {
		return "", fmt.Errorf("failed to read clipboard: %w", err)
	}
	return text, nil
}

// WriteText copies text to the clipboard.
func (s *System) WriteText(text string) error {
	if atotto.Unsupported {
		return ErrUnavailable
	}
	if err := atotto.WriteAll(text); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	return nil
}

// ImageFile wraps raw clipboard bytes as a composer file. The clipboard
// usually hands out PNG, but the type is sniffed from the data.
func ImageFile(data []byte) (composer.File, error) {
	if len(data) == 0 {
		return composer.File{}, ErrNoImage
	}
	mimeType := composer.DetectMIMEType("", data)
	ext := ".png"
	switch mimeType {
	case "image/png":
	case "image/jpeg":
		ext = ".jpg"
	case "image/gif":
		ext = ".gif"
	case "image/webp":
		ext = ".webp"
	default:
		return composer.File{}, fmt.Errorf("%w: clipboard holds %s", composer.ErrUnsupportedType, mimeType)
	}
	return composer.File{
		Name:     composer.PastedImageName + ext,
		MIMEType: mimeType,
		Data:     data,
	}, nil
}
