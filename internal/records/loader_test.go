package records

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for record loading:
// - A well-formed record file loads with all sections populated
// - Records missing required attributes are rejected as a whole
// - Malformed JSON surfaces the file path in the error

const validRecord = `{
	"path": "src/app.py",
	"language": "python",
	"module": {"name": "app", "qualified_name": "app"},
	"classes": [{
		"name": "Handler",
		"qualified_name": "app.Handler",
		"start_line": 10,
		"end_line": 40,
		"bases": ["Base"],
		"methods": [{
			"name": "handle",
			"qualified_name": "app.Handler.handle",
			"start_line": 12,
			"end_line": 20,
			"complexity": 4,
			"calls": [{"target": "helper", "line": 15}]
		}]
	}],
	"functions": [{
		"name": "helper",
		"qualified_name": "app.helper",
		"start_line": 42,
		"end_line": 50,
		"complexity": 2
	}],
	"imports": [{"target": "os", "line": 1}]
}`

func writeRecord(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.py.graph.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ValidRecord(t *testing.T) {
	t.Parallel()

	record, err := Load(writeRecord(t, validRecord))
	require.NoError(t, err)

	assert.Equal(t, "src/app.py", record.Path)
	assert.Equal(t, "python", record.Language)
	require.NotNil(t, record.Module)
	assert.Equal(t, "app", record.Module.Name)
	require.Len(t, record.Classes, 1)
	require.Len(t, record.Classes[0].Methods, 1)
	assert.Equal(t, []string{"Base"}, record.Classes[0].Bases)
	require.Len(t, record.Classes[0].Methods[0].Calls, 1)
	assert.Equal(t, "helper", record.Classes[0].Methods[0].Calls[0].Target)
	require.Len(t, record.Functions, 1)
	require.Len(t, record.Imports, 1)
}

func TestLoad_RejectsInvalidRecords(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"missing path":          `{"language": "python"}`,
		"missing language":      `{"path": "a.py"}`,
		"class without name":    `{"path": "a.py", "language": "python", "classes": [{"qualified_name": "a.C"}]}`,
		"function without name": `{"path": "a.py", "language": "python", "functions": [{"qualified_name": "a.f"}]}`,
		"import without target": `{"path": "a.py", "language": "python", "imports": [{"line": 1}]}`,
		"negative complexity":   `{"path": "a.py", "language": "python", "functions": [{"name": "f", "qualified_name": "a.f", "complexity": -1}]}`,
		"method without name":   `{"path": "a.py", "language": "python", "classes": [{"name": "C", "qualified_name": "a.C", "methods": [{"qualified_name": "a.C.m"}]}]}`,
	}
	for name, content := range cases {
		content := content
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(writeRecord(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MalformedJSON(t *testing.T) {
	t.Parallel()

	path := writeRecord(t, "{not json")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.graph.json"))
	assert.Error(t, err)
}
