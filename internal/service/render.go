// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/olegiv/ocms-pagetree/internal/model"
	"github.com/olegiv/ocms-pagetree/internal/store"
)

// RenderedPage is the HTML body of a page's published version.
type RenderedPage struct {
	PageID        int64
	VersionID     int64
	VersionNumber int64
	HTML          string
}

// Renderer turns the components of a page version into HTML.
type Renderer struct {
	queries  *store.Queries
	markdown goldmark.Markdown
}

// NewRenderer creates a new Renderer.
func NewRenderer(queries *store.Queries) *Renderer {
	return &Renderer{
		queries:  queries,
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// RenderPublished renders the latest published version of pageID. It returns
// a NotFoundError when the page does not exist or has nothing published.
func (r *Renderer) RenderPublished(ctx context.Context, pageID int64) (RenderedPage, error) {
	if _, err := r.queries.GetPageByID(ctx, pageID); errors.Is(err, sql.ErrNoRows) {
		return RenderedPage{}, &NotFoundError{Entity: EntityPage, ID: pageID}
	} else if err != nil {
		return RenderedPage{}, ioErr("finding page by id", err)
	}
	version, err := optionalVersion(r.queries.GetPublishedVersion(ctx, pageID))
	if err != nil {
		return RenderedPage{}, err
	}
	if version == nil {
		return RenderedPage{}, &NotFoundError{Entity: EntityVersion, Key: "published"}
	}

	out, err := r.RenderVersion(ctx, version.ID)
	if err != nil {
		return RenderedPage{}, err
	}
	return RenderedPage{
		PageID:        pageID,
		VersionID:     version.ID,
		VersionNumber: version.VersionNumber,
		HTML:          out,
	}, nil
}

// RenderVersion renders every component of versionID in position order.
func (r *Renderer) RenderVersion(ctx context.Context, versionID int64) (string, error) {
	components, err := r.queries.ListComponentsByVersion(ctx, versionID)
	if err != nil {
		return "", ioErr("list components", err)
	}

	var buf bytes.Buffer
	for _, c := range components {
		if err := r.renderComponent(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func (r *Renderer) renderComponent(buf *bytes.Buffer, c store.Component) error {
	var fields map[string]any
	if err := json.Unmarshal([]byte(c.Content), &fields); err != nil {
		return &IOError{Op: fmt.Sprintf("decode component %d", c.ID), Err: err}
	}
	str := func(name string) string {
		s, _ := fields[name].(string)
		return s
	}

	fmt.Fprintf(buf, `<section class="component component-%s" data-template="%s">`,
		html.EscapeString(c.ComponentType), html.EscapeString(c.Template))
	if c.Title.Valid && c.Title.String != "" {
		fmt.Fprintf(buf, "<h2>%s</h2>", html.EscapeString(c.Title.String))
	}

	switch c.ComponentType {
	case model.ComponentText:
		for _, para := range strings.Split(strings.ReplaceAll(str("text"), "\r\n", "\n"), "\n\n") {
			if para = strings.TrimSpace(para); para != "" {
				fmt.Fprintf(buf, "<p>%s</p>", html.EscapeString(para))
			}
		}
	case model.ComponentMarkdown:
		var md bytes.Buffer
		if err := r.markdown.Convert([]byte(str("text")), &md); err != nil {
			return &IOError{Op: fmt.Sprintf("render component %d", c.ID), Err: err}
		}
		buf.WriteString(htmlSanitizer.Sanitize(md.String()))
	case model.ComponentHTML:
		buf.WriteString(htmlSanitizer.Sanitize(str("html")))
	case model.ComponentCode:
		if lang := str("language"); lang != "" {
			fmt.Fprintf(buf, `<pre><code class="language-%s">`, html.EscapeString(lang))
		} else {
			buf.WriteString("<pre><code>")
		}
		buf.WriteString(html.EscapeString(str("code")))
		buf.WriteString("</code></pre>")
	case model.ComponentImage:
		alt := str("alt")
		if alt == "" && c.Title.Valid {
			alt = c.Title.String
		}
		fmt.Fprintf(buf, `<img src="/%s" alt="%s">`,
			html.EscapeString(strings.TrimLeft(str("file_path"), "/")), html.EscapeString(alt))
	}

	buf.WriteString("</section>\n")
	return nil
}
