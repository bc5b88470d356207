package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rosterTable() Table {
	return Table{
		Title:   "Office Party 2024",
		Columns: []string{"First Name", "Last Name", "Email"},
		Rows: [][]string{
			{"Ada", "Lovelace", "ada@example.com"},
			{"Alan", "Turing", "alan@example.com"},
		},
	}
}

func TestRenderCSV(t *testing.T) {
	out, err := Render(FormatCSV, rosterTable())
	require.NoError(t, err)
	assert.Equal(t, "First Name,Last Name,Email\nAda,Lovelace,ada@example.com\nAlan,Turing,alan@example.com\n", string(out))
}

func TestRenderPDF(t *testing.T) {
	out, err := Render(FormatPDF, rosterTable())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderRejectsEmptyColumns(t *testing.T) {
	_, err := Render(FormatCSV, Table{})
	assert.Error(t, err)

	_, err = Render(FormatPDF, Table{})
	assert.Error(t, err)
}

func TestRenderUnknownFormat(t *testing.T) {
	_, err := Render(Format("xml"), rosterTable())
	assert.Error(t, err)
}
