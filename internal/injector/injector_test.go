package injector

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/scenegraph/internal/core/hierarchy"
	"github.com/zeusync/scenegraph/internal/core/world"
	"github.com/zeusync/scenegraph/internal/engine"
)

func TestInitializeApp(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.LogLevel = "silent"

	app, err := InitializeApp(cfg)
	require.NoError(t, err)
	require.NotNil(t, app.Hierarchy)

	again, err := hierarchy.Init(app.Engine)
	require.NoError(t, err)
	assert.Same(t, app.Hierarchy, again)

	w, err := app.Engine.LoadScene(context.Background(), strings.NewReader(`
entities:
  - parent_id: {name: root}
  - parent: {parent: root}
`))
	require.NoError(t, err)
	assert.Equal(t, 1, world.Count[hierarchy.Parent](w))
}

func TestInitializeAppRejectsBadConfig(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.Hierarchy.DuplicateNames = "last"
	_, err := InitializeApp(cfg)
	assert.ErrorIs(t, err, engine.ErrInvalidConfig)
}
