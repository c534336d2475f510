package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"peaktrail/internal/config"
	"peaktrail/internal/shared/testutil"
)

// newFixturePaths writes the Everest fixture into a fresh base directory and
// resolves the default paths against it.
func newFixturePaths(t *testing.T) *config.Paths {
	t.Helper()

	cfg := config.Default().Paths
	cfg.BaseDir = t.TempDir()

	paths, err := cfg.Resolve()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(paths.InputDir, 0755))
	require.NoError(t, paths.EnsureDirectories())

	testutil.WriteExpeditionCSV(t, paths.InputDir, filepath.Base(paths.ExpeditionsFile), testutil.EverestFixture())
	testutil.WritePeakCSV(t, paths.InputDir, filepath.Base(paths.PeaksFile), testutil.EverestPeaks())
	return paths
}
