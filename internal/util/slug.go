// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides general-purpose utility functions including
// URL slug generation with Unicode normalization support.
package util

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxGeneratedSlugLength bounds slugs derived from titles.
const MaxGeneratedSlugLength = 100

// FallbackSlug is used when a title has no alphanumeric characters.
const FallbackSlug = "untitled"

// nonAlphanumeric matches runs of characters that are not lowercase ASCII letters or digits.
var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify converts a title to a URL-friendly slug.
// Accents are stripped, remaining non-Latin scripts are transliterated to
// ASCII, the result is lowercased, every run of other
// characters becomes a single hyphen and the slug is capped at
// MaxGeneratedSlugLength without ending on a hyphen. Titles with nothing
// alphanumeric produce FallbackSlug.
func Slugify(title string) string {
	// Normalize unicode characters (decompose accents)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, title)
	if err != nil {
		result = title
	}
	result = unidecode.Unidecode(result)

	result = strings.ToLower(strings.TrimSpace(result))
	result = nonAlphanumeric.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")

	if result == "" {
		return FallbackSlug
	}

	if len(result) > MaxGeneratedSlugLength {
		result = strings.TrimRight(result[:MaxGeneratedSlugLength], "-")
	}

	return result
}

// WithSuffix returns base with a numeric collision suffix, e.g. "about-us-2".
func WithSuffix(base string, n int) string {
	return base + "-" + strconv.Itoa(n)
}
