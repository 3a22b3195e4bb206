// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Component types
const (
	ComponentText     = "text"
	ComponentMarkdown = "markdown"
	ComponentHTML     = "html"
	ComponentCode     = "code"
	ComponentImage    = "image"
	ComponentCustom   = "custom"
)

// ComponentTypes lists every accepted component type.
var ComponentTypes = []string{
	ComponentText,
	ComponentMarkdown,
	ComponentHTML,
	ComponentCode,
	ComponentImage,
	ComponentCustom,
}

// IsValidComponentType returns true if t is a known component type.
func IsValidComponentType(t string) bool {
	for _, v := range ComponentTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Component limits
const (
	MaxComponentTypeLength  = 50
	MaxComponentContentSize = 1 << 20 // 1 MiB serialized
)

// ComponentPosition assigns a position to a component during reordering.
type ComponentPosition struct {
	ID       int64 `json:"id"`
	Position int64 `json:"position"`
}
