// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package composer

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	"image/png"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// FILES
// =============================================================================

// File is a raw file handed to the composer.
type File struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Size returns the file size in bytes.
func (f File) Size() int64 { return int64(len(f.Data)) }

// ErrFileTooLarge is returned when a file exceeds the configured size.
var ErrFileTooLarge = errors.New("file too large")

// LoadFile reads path and detects its MIME type. maxBytes <= 0 disables the
// size check.
func LoadFile(path string, maxBytes int64) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return File{}, fmt.Errorf("%w: %s is %d bytes (max %d)", ErrFileTooLarge, path, info.Size(), maxBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", path, err)
	}
	name := filepath.Base(path)
	return File{Name: name, MIMEType: DetectMIMEType(name, data), Data: data}, nil
}

// DetectMIMEType guesses a MIME type from the file extension, falling back
// to content sniffing. Parameters such as charset are stripped.
func DetectMIMEType(name string, data []byte) string {
	if ext := strings.ToLower(filepath.Ext(name)); ext != "" {
		switch ext {
		case ".md", ".markdown":
			return "text/markdown"
		case ".jpg", ".jpeg":
			return "image/jpeg"
		case ".webp":
			return "image/webp"
		}
		if t := mime.TypeByExtension(ext); t != "" {
			return baseMIME(t)
		}
	}
	if len(data) == 0 {
		return "application/octet-stream"
	}
	return baseMIME(http.DetectContentType(data))
}

func baseMIME(t string) string {
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}
	return strings.ToLower(strings.TrimSpace(t))
}

// =============================================================================
// IMAGE PREPROCESSING
// =============================================================================

// PreprocessResult is a normalized image ready to stage.
type PreprocessResult struct {
	// DataURI is the encoded image as data:<mime>;base64,<payload>.
	DataURI string
	// File is the normalized descriptor (possibly renamed and re-typed).
	File   File
	Width  int
	Height int
}

// Preprocessor normalizes raw images before they are staged.
type Preprocessor interface {
	Preprocess(ctx context.Context, f File) (PreprocessResult, error)
}

// PreprocessorFunc adapts a function to Preprocessor.
type PreprocessorFunc func(ctx context.Context, f File) (PreprocessResult, error)

func (fn PreprocessorFunc) Preprocess(ctx context.Context, f File) (PreprocessResult, error) {
	return fn(ctx, f)
}

// ImagePreprocessor decodes, downsizes and re-encodes images.
type ImagePreprocessor struct {
	// MaxDimension bounds the longest side. Zero disables scaling.
	MaxDimension int
	// JPEGQuality is used for opaque images.
	JPEGQuality int
}

// NewImagePreprocessor returns a preprocessor for the given bound.
func NewImagePreprocessor(maxDimension int) *ImagePreprocessor {
	return &ImagePreprocessor{MaxDimension: maxDimension, JPEGQuality: 85}
}

// Preprocess implements Preprocessor. Opaque images are re-encoded as JPEG,
// images with transparency as PNG.
func (p *ImagePreprocessor) Preprocess(ctx context.Context, f File) (PreprocessResult, error) {
	if err := ctx.Err(); err != nil {
		return PreprocessResult{}, err
	}
	src, _, err := image.Decode(bytes.NewReader(f.Data))
	if err != nil {
		return PreprocessResult{}, fmt.Errorf("decode %s: %w", f.Name, err)
	}

	img := p.scale(src)
	if err := ctx.Err(); err != nil {
		return PreprocessResult{}, err
	}

	var buf bytes.Buffer
	mimeType := "image/jpeg"
	if !isOpaque(img) {
		mimeType = "image/png"
		err = png.Encode(&buf, img)
	} else {
		quality := p.JPEGQuality
		if quality <= 0 {
			quality = 85
		}
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	}
	if err != nil {
		return PreprocessResult{}, fmt.Errorf("encode %s: %w", f.Name, err)
	}

	out := File{
		Name:     renameExt(f.Name, mimeType),
		MIMEType: mimeType,
		Data:     buf.Bytes(),
	}
	b := img.Bounds()
	return PreprocessResult{
		DataURI: DataURI(mimeType, out.Data),
		File:    out,
		Width:   b.Dx(),
		Height:  b.Dy(),
	}, nil
}

func (p *ImagePreprocessor) scale(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := w
	if h > longest {
		longest = h
	}
	if p.MaxDimension <= 0 || longest <= p.MaxDimension {
		return src
	}
	nw := w * p.MaxDimension / longest
	nh := h * p.MaxDimension / longest
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}

func renameExt(name, mimeType string) string {
	ext := ".jpg"
	if mimeType == "image/png" {
		ext = ".png"
	}
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if base == "" {
		base = "image"
	}
	return base + ext
}

// DataURI encodes data as a base64 data URI.
func DataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// PreprocessAll runs p over files with at most limit in flight. done is
// called once per file, serialized, in completion order. Per-file errors are
// passed to done; only context cancellation aborts the batch.
func PreprocessAll(ctx context.Context, p Preprocessor, files []File, limit int, done func(i int, res PreprocessResult, err error)) error {
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	var mu sync.Mutex
	for i, f := range files {
		g.Go(func() error {
			res, err := p.Preprocess(gctx, f)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			done(i, res, err)
			return nil
		})
	}
	return g.Wait()
}
