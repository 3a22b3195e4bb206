// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUniqueSlug(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	slugs := env.svc.Slugs

	for _, want := range []string{"about-us", "about-us-2", "about-us-3"} {
		got, err := slugs.GenerateUniqueSlug(ctx, env.site.ID, &env.root.ID, "about-us")
		require.NoError(t, err)
		assert.Equal(t, want, got)
		env.createPage(t, env.root.ID, got, "About Us")
	}
}

func TestGenerateUniqueSlug_ScopedToParent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.createPage(t, env.root.ID, "team", "Team")

	got, err := env.svc.Slugs.GenerateUniqueSlug(ctx, env.site.ID, &a.ID, "team")
	require.NoError(t, err)
	assert.Equal(t, "team", got)

	got, err = env.svc.Slugs.GenerateUniqueSlug(ctx, env.site.ID+1, &env.root.ID, "team")
	require.NoError(t, err)
	assert.Equal(t, "team", got)
}

func TestGenerateUniqueSlug_RootLevel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.createPage(t, env.root.ID, "home", "Home")

	// a child slug does not collide among parentless pages
	got, err := env.svc.Slugs.GenerateUniqueSlug(ctx, env.site.ID, nil, "home")
	require.NoError(t, err)
	assert.Equal(t, "home", got)

	got, err = env.svc.Slugs.GenerateUniqueSlug(ctx, env.site.ID, &env.root.ID, "home")
	require.NoError(t, err)
	assert.Equal(t, "home-2", got)
}

func TestSlugFromTitle(t *testing.T) {
	slugs := &SlugAllocator{}

	assert.Equal(t, "hello-world", slugs.SlugFromTitle("Hello, World!"))
	assert.Equal(t, "untitled", slugs.SlugFromTitle("!!!"))
}
