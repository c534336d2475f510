// Package shared holds code used by more than one internal package that
// does not belong to a domain layer.
//
// The testutil subpackage provides:
//
//   - BufferedSlogHandler and NewTestLogger for asserting on slog output
//   - expedition and peak CSV fixtures written into t.TempDir()
//
// Example usage:
//
//	func TestLoader(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    dir := t.TempDir()
//	    path := testutil.WriteExpeditionCSV(t, dir, "exped.csv", testutil.EverestFixture())
//	    ...
//	    testutil.AssertNoErrors(t, logs)
//	}
package shared
