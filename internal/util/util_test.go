// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// =============================================================================
// ATOMIC WRITE TESTS
// =============================================================================

func TestAtomicWriteFile_Basic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.txt")
	data := []byte("hello, world!")

	if err := AtomicWriteFile(path, data, 0600); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(content) != string(data) {
		t.Errorf("Content mismatch: got %q, want %q", content, data)
	}
	info, _ := os.Stat(path)
	if info.Mode().Perm() != 0600 {
		t.Errorf("perm = %o, want 600", info.Mode().Perm())
	}
}

func TestAtomicWriteFile_CreatesPrivateParentDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "subdir", "deep")
	path := filepath.Join(dir, "test.txt")

	if err := AtomicWriteFile(path, []byte("x"), 0600); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("parent not created: %v", err)
	}
	if info.Mode().Perm() != 0700 {
		t.Errorf("dir perm = %o, want 700", info.Mode().Perm())
	}
}

func TestAtomicWriteFile_OverwritesWithoutLeftovers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	for _, content := range []string{"first", "second"} {
		if err := AtomicWriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("AtomicWriteFile failed: %v", err)
		}
	}
	got, _ := os.ReadFile(path)
	if string(got) != "second" {
		t.Errorf("got %q, want second", got)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the target file, found %d entries", len(entries))
	}
}

// =============================================================================
// STRING TESTS
// =============================================================================

func TestTruncateRunes(t *testing.T) {
	testCases := []struct {
		input    string
		max      int
		expected string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"नमस्कार मंडळी", 5, "नम..."},
		{"abc", 2, "ab"},
		{"abc", 0, ""},
	}
	for _, tc := range testCases {
		if got := TruncateRunes(tc.input, tc.max); got != tc.expected {
			t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tc.input, tc.max, got, tc.expected)
		}
	}
}

func TestTruncateWidth(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		maxWidth int
	}{
		{"ascii short", "hello", 10},
		{"ascii truncate", "hello world", 8},
		{"cjk truncate", "日本語テキスト", 7},
		{"narrow", "hello", 2},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := TruncateWidth(tc.input, tc.maxWidth)
			if w := StringWidth(got); w > tc.maxWidth {
				t.Errorf("TruncateWidth(%q, %d) = %q (width %d)", tc.input, tc.maxWidth, got, w)
			}
			if StringWidth(tc.input) > tc.maxWidth && tc.maxWidth > 3 && !strings.HasSuffix(got, "...") {
				t.Errorf("TruncateWidth(%q, %d) = %q, want ellipsis", tc.input, tc.maxWidth, got)
			}
		})
	}
	if TruncateWidth("hello", 0) != "" {
		t.Error("zero width should yield empty string")
	}
}

func TestStringWidth(t *testing.T) {
	if got := StringWidth("hello世界"); got != 9 {
		t.Errorf("StringWidth = %d, want 9", got)
	}
	if got := RuneLen("hello 👋"); got != 7 {
		t.Errorf("RuneLen = %d, want 7", got)
	}
}

func TestFirstLine(t *testing.T) {
	if got := FirstLine("\n\n  पहिली ओळ  \nदुसरी"); got != "पहिली ओळ" {
		t.Errorf("FirstLine = %q", got)
	}
	if got := FirstLine("   "); got != "" {
		t.Errorf("FirstLine of blank = %q", got)
	}
}
