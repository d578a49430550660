package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFunding(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected model.FundingSource
		wantErr  bool
	}{
		{
			name:     "account",
			input:    "account:checking",
			expected: model.FundingSource{Kind: model.FundingAccount, ID: "checking"},
		},
		{
			name:     "card shorthand",
			input:    "card:visa",
			expected: model.FundingSource{Kind: model.FundingCreditCard, ID: "visa"},
		},
		{
			name:     "card long form",
			input:    "credit_card:visa",
			expected: model.FundingSource{Kind: model.FundingCreditCard, ID: "visa"},
		},
		{name: "missing id", input: "account:", wantErr: true},
		{name: "no separator", input: "checking", wantErr: true},
		{name: "unknown kind", input: "wallet:cash", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFunding(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseDates(t *testing.T) {
	d, err := parseDay("2024-02-29", "start")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), d)

	_, err = parseDay("29/02/2024", "start")
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	m, err := parseMonth("2024-06")
	require.NoError(t, err)
	assert.Equal(t, time.June, m.Month())

	_, err = parseMonth("June")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestParseAmount(t *testing.T) {
	amt, err := parseAmount("1500.5")
	require.NoError(t, err)
	assert.Equal(t, "1500.50", amt.StringFixed(2))

	_, err = parseAmount("lots")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestOptional(t *testing.T) {
	assert.Nil(t, optional(""))
	require.NotNil(t, optional("food"))
	assert.Equal(t, "food", *optional("food"))
}

func TestExpandFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"jan.qfx", "feb.qfx", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}

	files, err := expandFiles([]string{filepath.Join(dir, "*.qfx")})
	require.NoError(t, err)
	assert.Len(t, files, 2)

	files, err = expandFiles([]string{filepath.Join(dir, "notes.txt")})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "notes.txt")}, files)

	_, err = expandFiles([]string{filepath.Join(dir, "*.ofx")})
	assert.Error(t, err)
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	tbl, err := newTable(&buf, "ID", "Name")
	require.NoError(t, err)
	require.NoError(t, tbl.row("visa", "Visa Gold"))
	assert.Error(t, tbl.row("only-one"))
	require.NoError(t, tbl.flush())

	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "Visa Gold")
}
