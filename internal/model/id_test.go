package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDRoundTrip(t *testing.T) {
	for i := 0; i < 100; i++ {
		id := NewID()

		for _, text := range []string{
			id.String(),
			id.Compact(),
			strings.ToUpper(id.String()),
			strings.ToUpper(id.Compact()),
		} {
			parsed, err := ParseID(text)
			require.NoError(t, err, text)
			assert.Equal(t, id, parsed)
		}
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ID
		wantErr bool
	}{
		{name: "empty is the zero id", input: "", want: ZeroID},
		{name: "dashed", input: "00000000-0000-0000-0000-000000000001", want: ID{15: 1}},
		{name: "compact", input: "000000000000000000000000000000ff", want: ID{15: 0xff}},
		{name: "too short", input: "abc", wantErr: true},
		{name: "bad hex compact", input: "zz000000000000000000000000000000", wantErr: true},
		{name: "misplaced dashes", input: "0000000-00000-0000-0000-000000000001", wantErr: true},
		{name: "braces are not accepted", input: "{00000000-0000-0000-0000-000000000001}", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseID(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestZeroID(t *testing.T) {
	assert.True(t, ZeroID.IsZero())
	assert.False(t, NewID().IsZero())
	assert.Equal(t, "00000000-0000-0000-0000-000000000000", ZeroID.String())
}

func TestExtractIDs(t *testing.T) {
	a := NewID()
	b := NewID()

	text := "see @" + a.String() + "@ and @not-an-id@ or @@ then @" + b.Compact() + "@ @dangling"
	assert.Equal(t, []ID{a, b}, ExtractIDs(text))

	assert.Empty(t, ExtractIDs("no markers here"))
	assert.Empty(t, ExtractIDs("@"+a.String()))
}

func TestExtractIDsReusesClosingMarker(t *testing.T) {
	a := NewID()

	// "@junk@<id>@": the second marker closes the junk candidate and opens the id.
	text := "@junk@" + a.String() + "@"
	assert.Equal(t, []ID{a}, ExtractIDs(text))
}

func TestIDText(t *testing.T) {
	id := NewID()
	b, err := id.MarshalText()
	require.NoError(t, err)

	var decoded ID
	require.NoError(t, decoded.UnmarshalText(b))
	assert.Equal(t, id, decoded)
}
