package csvparse_test

import (
	"strings"
	"testing"

	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/csvparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParse_Simple verifies plain comma-separated rows.
func TestParse_Simple(t *testing.T) {
	got := csvparse.Parse("a,b\n1,2\n3,4")

	require.Len(t, got, 2)
	assert.Equal(t, csvparse.Record{"a": "1", "b": "2"}, got[0])
	assert.Equal(t, csvparse.Record{"a": "3", "b": "4"}, got[1])
}

// TestParse_QuotedAndEscaped verifies quoted commas and backslash-escaped quotes.
func TestParse_QuotedAndEscaped(t *testing.T) {
	got := csvparse.Parse("name,note\n\"Jo, Ann\",\"said \\\"hi\\\"\"")

	require.Len(t, got, 1)
	assert.Equal(t, "Jo, Ann", got[0]["name"])
	assert.Equal(t, `said "hi"`, got[0]["note"])
}

func TestParse_EmptyInput(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"only newlines", "\n\n\r\n"},
		{"only whitespace", "   \n\t\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := csvparse.Parse(tt.text)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

// TestParse_HeaderOnly verifies a header without data yields no records.
func TestParse_HeaderOnly(t *testing.T) {
	table := csvparse.ParseTable("user,email\n")

	assert.Equal(t, []string{"user", "email"}, table.Header)
	assert.Equal(t, 0, table.Len())
}

// TestParse_ShortRowsPadded verifies missing trailing columns become empty strings.
func TestParse_ShortRowsPadded(t *testing.T) {
	got := csvparse.Parse("a,b,c\n1\n1,2,3,4")

	require.Len(t, got, 2)
	assert.Equal(t, csvparse.Record{"a": "1", "b": "", "c": ""}, got[0])
	assert.Equal(t, csvparse.Record{"a": "1", "b": "2", "c": "3"}, got[1])
}

// TestParse_BlankLinesAndCarriageReturns verifies CRLF input and blank lines are tolerated.
func TestParse_BlankLinesAndCarriageReturns(t *testing.T) {
	got := csvparse.Parse("\r\nid,name\r\n\r\n7, Bo \r\n\n8,Al\r\n")

	require.Len(t, got, 2)
	assert.Equal(t, csvparse.Record{"id": "7", "name": "Bo"}, got[0])
	assert.Equal(t, csvparse.Record{"id": "8", "name": "Al"}, got[1])
}

func TestSplitLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"plain", "a,b,c", []string{"a", "b", "c"}},
		{"trimmed", " a , b ", []string{"a", "b"}},
		{"quoted comma", `"x,y",z`, []string{"x,y", "z"}},
		{"empty fields", ",,", []string{"", "", ""}},
		{"escaped quotes unwrap", `\"wrapped\"`, []string{"wrapped"}},
		{"escaped quote inside", `a\"b`, []string{`a"b`}},
		{"unterminated quote swallows commas", `"a,b`, []string{"a,b"}},
		{"utf8 preserved", `"Zoë, Ü",ok`, []string{"Zoë, Ü", "ok"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, csvparse.SplitLine(tt.line))
		})
	}
}

// TestParseTable_DuplicateHeaders verifies the later column wins and the header is reported once.
func TestParseTable_DuplicateHeaders(t *testing.T) {
	table := csvparse.ParseTable("a,b,a\n1,2,3")

	assert.Equal(t, []string{"a", "b"}, table.Header)
	assert.Equal(t, csvparse.Record{"a": "3", "b": "2"}, table.Records[0])
}

// TestParse_EveryRowHasEveryHeader verifies the per-row shape for well-formed input.
func TestParse_EveryRowHasEveryHeader(t *testing.T) {
	text := strings.Join([]string{
		"user,manager,email",
		"a,,a@x.io",
		"b,a,b@x.io",
		`c,"null","c@x.io"`,
	}, "\n")

	table := csvparse.ParseTable(text)
	require.Equal(t, 3, table.Len())
	for _, rec := range table.Records {
		assert.Len(t, rec, len(table.Header))
		for _, h := range table.Header {
			_, ok := rec[h]
			assert.True(t, ok, "missing %s", h)
		}
	}
}
