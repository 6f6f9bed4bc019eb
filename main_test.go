package main

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"roster-server-go/logger"
)

func TestBuildApp(t *testing.T) {
	app := buildApp()
	var names []string
	for _, cmd := range app.Commands {
		names = append(names, cmd.Name)
	}
	assert.ElementsMatch(t, []string{"serve", "import"}, names)
}

func TestImportCommand(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("LOG_LEVEL", "error")
	logger.SetOutput(io.Discard)

	path := filepath.Join(t.TempDir(), "roster.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow(f.GetSheetName(0), "A1", &[]interface{}{"name"}))
	require.NoError(t, f.SetSheetRow(f.GetSheetName(0), "A2", &[]interface{}{"Alice"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	require.NoError(t, buildApp().Run([]string{"roster-server", "import", "--file", path}))

	err := buildApp().Run([]string{"roster-server", "import"})
	assert.Error(t, err)

	err = buildApp().Run([]string{"roster-server", "import", "--file", filepath.Join(t.TempDir(), "missing.xlsx")})
	assert.Error(t, err)
}
