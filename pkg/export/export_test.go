package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRoundTrip(t *testing.T) {
	exporter := NewCSVExporter()
	data := Dataset{
		Headers: []string{"name", "type", "description"},
		Rows: []map[string]string{
			{"name": "1.1.1 Non-text content", "type": "manual", "description": "Images, \"alt\" text"},
			{"name": "colour-contrast", "type": "axe"},
		},
	}

	raw, err := exporter.Render(data)
	require.NoError(t, err)

	parsed, err := exporter.Parse(bytes.NewReader(raw), "name", "type")
	require.NoError(t, err)
	assert.Equal(t, data.Headers, parsed.Headers)
	require.Len(t, parsed.Rows, 2)
	assert.Equal(t, data.Rows[0], parsed.Rows[0])
	assert.Equal(t, "", parsed.Rows[1]["description"])
}

func TestCSVParseRequiresColumns(t *testing.T) {
	_, err := NewCSVExporter().Parse(strings.NewReader("name\nfoo\n"), "name", "type")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"type"`)

	_, err = NewCSVExporter().Parse(strings.NewReader(""))
	require.Error(t, err)
}

func TestPDFRender(t *testing.T) {
	doc := Document{
		Title:   "Export batch",
		Summary: []string{"Cutoff: 2024-03-31"},
		Data: Dataset{
			Headers: []string{"case", "organisation"},
			Rows:    []map[string]string{{"case": "1", "organisation": strings.Repeat("Council ", 40)}},
		},
	}
	raw, err := NewPDFExporter().Render(doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))

	_, err = NewPDFExporter().Render(Document{})
	require.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 40))
	assert.Equal(t, "abcdefg...", truncate(strings.Repeat("abcdefghij", 3), 20))
}
