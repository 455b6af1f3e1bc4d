package web

import (
	"bytes"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplates_Parse(t *testing.T) {
	tmpl, err := Templates()
	require.NoError(t, err)

	for _, name := range []string{"booking.html", "order.html", "error.html"} {
		assert.NotNil(t, tmpl.Lookup(name), name)
	}

	var buf bytes.Buffer
	require.NoError(t, tmpl.ExecuteTemplate(&buf, "error.html", map[string]any{"Message": "booking not found"}))
	assert.Contains(t, buf.String(), "booking not found")
}

func TestStatic(t *testing.T) {
	_, err := fs.Stat(Static(), "booking.js")
	assert.NoError(t, err)
}

func TestBaht(t *testing.T) {
	assert.Equal(t, "0 THB", Baht(0))
	assert.Equal(t, "900 THB", Baht(900))
	assert.Equal(t, "4,500 THB", Baht(4500))
	assert.Equal(t, "1,234,567 THB", Baht(1234567))
	assert.Equal(t, "-1,350 THB", Baht(-1350))
}
