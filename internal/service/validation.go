// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"encoding/json"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/olegiv/ocms-pagetree/internal/model"
)

// htmlSanitizer strips scripts and event handlers from html component content.
var htmlSanitizer = bluemonday.UGCPolicy()

func validateTitle(title string) error {
	if title == "" {
		return invalid("title", "title cannot be empty")
	}
	if len(title) > model.MaxTitleLength {
		return invalid("title", "title cannot exceed %d characters", model.MaxTitleLength)
	}
	if strings.TrimSpace(title) == "" {
		return invalid("title", "title cannot be only whitespace")
	}
	return nil
}

// validateSlug checks a non-root page slug.
func validateSlug(slug string) error {
	if slug == "" {
		return invalid("slug", "slug cannot be empty for non-root pages")
	}
	if len(slug) > model.MaxSlugLength {
		return invalid("slug", "slug cannot exceed %d characters", model.MaxSlugLength)
	}
	if strings.Contains(slug, " ") {
		return invalid("slug", "slug cannot contain spaces")
	}
	for _, r := range slug {
		ok := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
			r == '-' || r == '_' || r == '.' || r == '/'
		if !ok {
			return invalid("slug", "slug can only contain letters, numbers, hyphens, underscores, dots, and slashes")
		}
	}
	if strings.HasPrefix(slug, "/") || strings.HasSuffix(slug, "/") {
		return invalid("slug", "slug cannot start or end with a slash")
	}
	if strings.Contains(slug, "//") {
		return invalid("slug", "slug cannot contain consecutive slashes")
	}
	return nil
}

func validateDescription(desc string) error {
	if len(desc) > model.MaxDescriptionLength {
		return invalid("description", "description cannot exceed %d characters", model.MaxDescriptionLength)
	}
	return nil
}

func validateTemplate(template string) error {
	if strings.TrimSpace(template) == "" {
		return invalid("template", "template cannot be empty")
	}
	if len(template) > model.MaxTemplateLength {
		return invalid("template", "template cannot exceed %d characters", model.MaxTemplateLength)
	}
	return nil
}

func validateSortMode(mode string) error {
	if !model.SortMode(mode).IsValid() {
		return invalid("sort_mode", "invalid sort mode '%s'", mode)
	}
	return nil
}

func validatePosition(pos int64) error {
	if pos < 0 {
		return invalid("position", "position must be non-negative")
	}
	return nil
}

// normalizeComponentContent validates content for componentType and returns
// the JSON to store. HTML content is sanitized.
func normalizeComponentContent(componentType string, content json.RawMessage) (string, error) {
	if len(content) == 0 || string(content) == "null" {
		return "", invalid("content", "component content cannot be null")
	}
	if len(content) > model.MaxComponentContentSize {
		return "", invalid("content", "component content cannot exceed 1MB when serialized")
	}

	var fields map[string]any
	if err := json.Unmarshal(content, &fields); err != nil {
		return "", invalid("content", "component content must be a JSON object")
	}

	requireString := func(names ...string) error {
		for _, name := range names {
			if _, ok := fields[name].(string); !ok {
				return invalid("content", "%s component must have a '%s' field", componentType, name)
			}
		}
		return nil
	}

	switch componentType {
	case model.ComponentText, model.ComponentMarkdown:
		if err := requireString("text"); err != nil {
			return "", err
		}
	case model.ComponentCode:
		if err := requireString("code"); err != nil {
			return "", err
		}
	case model.ComponentImage:
		if err := requireString("slug", "format", "file_path"); err != nil {
			return "", err
		}
		slug := fields["slug"].(string)
		if slug == "" {
			return "", invalid("content", "image slug cannot be empty")
		}
		for _, r := range slug {
			if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_') {
				return "", invalid("content", "image slug can only contain letters, numbers, hyphens, and underscores")
			}
		}
		filePath := fields["file_path"].(string)
		if strings.HasPrefix(filePath, "//") || strings.Contains(filePath, ":") || strings.Contains(filePath, "\\") {
			return "", invalid("content", "image file_path must be a local path")
		}
	case model.ComponentHTML:
		if err := requireString("html"); err != nil {
			return "", err
		}
		fields["html"] = htmlSanitizer.Sanitize(fields["html"].(string))
		out, err := json.Marshal(fields)
		if err != nil {
			return "", invalid("content", "component content cannot be encoded")
		}
		return string(out), nil
	}

	return string(content), nil
}

func validateComponentMeta(componentType, template string, title *string) error {
	if componentType == "" {
		return invalid("component_type", "component type cannot be empty")
	}
	if len(componentType) > model.MaxComponentTypeLength {
		return invalid("component_type", "component type cannot exceed %d characters", model.MaxComponentTypeLength)
	}
	if !model.IsValidComponentType(componentType) {
		return invalid("component_type", "invalid component type '%s'. Must be one of: %s",
			componentType, strings.Join(model.ComponentTypes, ", "))
	}
	if err := validateTemplate(template); err != nil {
		return err
	}
	if title != nil && len(*title) > model.MaxTitleLength {
		return invalid("title", "title cannot exceed %d characters", model.MaxTitleLength)
	}
	return nil
}
