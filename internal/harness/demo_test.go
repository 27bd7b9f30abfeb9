package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioDir = "../../testdata/scenarios"

// TestDemoScenarios runs every scenario under testdata/scenarios and
// compares its trace with the golden file of the same name.
//
// To regenerate golden files:
//
//	go test ./internal/harness -run TestDemoScenarios -update
func TestDemoScenarios(t *testing.T) {
	paths, err := DiscoverScenarios(scenarioDir, "")
	require.NoError(t, err)
	require.Len(t, paths, 5)

	for _, path := range paths {
		scenario, err := LoadScenario(path)
		require.NoError(t, err, "failed to load scenario from %s", path)

		t.Run(scenario.Name, func(t *testing.T) {
			base := filepath.Base(path)
			assert.Equal(t, base[:len(base)-len(filepath.Ext(base))], scenario.Name,
				"scenario name must match its file name")

			run, err := RunScenario(context.Background(), scenario, Config{})
			require.NoError(t, err)
			assert.True(t, run.Pass(), "scenario should pass: errors=%v", run.Errors)

			AssertGolden(t, filepath.Join(scenarioDir, "golden"), run)
		})
	}
}
