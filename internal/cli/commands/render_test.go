package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatValue(t *testing.T) {
	n := 3
	s := "day"
	f := 12.345

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"nil int pointer", (*int)(nil), ""},
		{"int pointer", &n, "3"},
		{"nil string pointer", (*string)(nil), ""},
		{"string pointer", &s, "day"},
		{"float pointer", &f, "12.3"},
		{"float", 2.5, "2.50"},
		{"bool true", true, "yes"},
		{"bool false", false, "no"},
		{"string", "orders", "orders"},
		{"int64", int64(42), "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatValue(tt.in))
		})
	}
}

func TestEscapeCSV(t *testing.T) {
	assert.Equal(t, "plain", escapeCSV("plain"))
	assert.Equal(t, `"a,b"`, escapeCSV("a,b"))
	assert.Equal(t, `"say ""hi"""`, escapeCSV(`say "hi"`))
}

func TestReportRender_CSV(t *testing.T) {
	rep := &report{
		columns: []string{"ID", "STATUS"},
		rows:    [][]any{{int64(1), "success"}, {int64(2), "error,fatal"}},
	}

	var buf bytes.Buffer
	require.NoError(t, rep.render(&buf, "csv"))

	assert.Equal(t, "ID,STATUS\n1,success\n2,\"error,fatal\"\n", buf.String())
}

func TestReportRender_JSON(t *testing.T) {
	rep := &report{
		columns: []string{"ID"},
		rows:    [][]any{{int64(1)}},
		value:   map[string]int{"total": 1},
	}

	var buf bytes.Buffer
	require.NoError(t, rep.render(&buf, "json"))
	assert.JSONEq(t, `{"total": 1}`, buf.String())
}

func TestReportRender_TableEmpty(t *testing.T) {
	rep := &report{columns: []string{"ID"}}

	var buf bytes.Buffer
	require.NoError(t, rep.render(&buf, "table"))
	assert.Contains(t, buf.String(), "(0 rows)")
}

func TestReportRender_Table(t *testing.T) {
	rep := &report{
		columns: []string{"ID", "STATUS"},
		rows:    [][]any{{int64(1), "success"}},
	}

	var buf bytes.Buffer
	require.NoError(t, rep.render(&buf, "table"))

	out := buf.String()
	assert.Contains(t, out, "STATUS")
	assert.Contains(t, out, "success")
	assert.Contains(t, out, "(1 rows)")
}
