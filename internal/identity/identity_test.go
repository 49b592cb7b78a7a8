package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{"lower case", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", nil},
		{"upper case", "0x5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", nil},
		{"valid checksum", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", nil},
		{"surrounding spaces", "  0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359 ", "0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359", nil},
		{"broken checksum", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAeD", "", ErrBadChecksum},
		{"too short", "0x1234", "", ErrMalformed},
		{"missing prefix", "5aaeb6053f3e94c9b9a09f33669435e7ef1beaed00", "", ErrMalformed},
		{"not hex", "0xzzaeb6053f3e94c9b9a09f33669435e7ef1beaed", "", ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChecksum(t *testing.T) {
	// Reference vectors from EIP-55.
	for _, want := range []string{
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
		"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
		"0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb",
	} {
		norm, err := Normalize(want)
		require.NoError(t, err)
		assert.Equal(t, want, Checksum(norm))
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"))
	assert.False(t, Equal("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", "0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359"))
	assert.False(t, Equal("nope", "nope"))
}
