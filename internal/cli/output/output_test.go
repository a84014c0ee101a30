package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{name: "table", input: "table", want: FormatTable},
		{name: "empty defaults to table", input: "", want: FormatTable},
		{name: "json", input: "json", want: FormatJSON},
		{name: "JSON uppercase", input: "JSON", want: FormatJSON},
		{name: "yaml", input: "yaml", want: FormatYAML},
		{name: "yml alias", input: "yml", want: FormatYAML},
		{name: "whitespace trimmed", input: "  table  ", want: FormatTable},
		{name: "invalid format", input: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrinterJSON(t *testing.T) {
	var buf bytes.Buffer
	printer := NewPrinter(&buf, FormatJSON, false)

	err := printer.Print(map[string]string{"email": "admin@example.com"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"email": "admin@example.com"`)
}

func TestPrinterYAML(t *testing.T) {
	var buf bytes.Buffer
	printer := NewPrinter(&buf, FormatYAML, false)

	err := printer.Print(map[string]string{"email": "admin@example.com"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "email: admin@example.com")
}

func TestPrinterTableFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	printer := NewPrinter(&buf, FormatTable, false)

	// Non-TableRenderer values render as JSON.
	err := printer.Print(map[string]int{"count": 3})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"count": 3`)
}

func TestPrinterMessages(t *testing.T) {
	var buf bytes.Buffer
	printer := NewPrinter(&buf, FormatTable, false)

	printer.Success("done")
	printer.Error("failed")
	printer.Printf("count: %d\n", 2)

	out := buf.String()
	assert.Contains(t, out, "done")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "count: 2")
	assert.NotContains(t, out, "\033[")
}
