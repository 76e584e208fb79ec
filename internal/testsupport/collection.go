package testsupport

import (
	"encoding/json"
	"os"
	"testing"
)

// WriteCollection writes a collection file containing the given album ids.
func WriteCollection(t testing.TB, path string, ids []string) {
	t.Helper()
	data, err := json.Marshal(ids)
	if err != nil {
		t.Fatalf("marshal collection: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write collection: %v", err)
	}
}
