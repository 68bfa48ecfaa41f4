package urlenc

import (
	"bytes"
	"compress/flate"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncode64(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		in   []byte
		exp  string
	}{
		{
			name: "empty",
			in:   nil,
			exp:  "",
		},
		{
			name: "one_byte",
			in:   []byte{0xff},
			exp:  "_m00",
		},
		{
			name: "two_bytes",
			in:   []byte{0x00, 0x01},
			exp:  "0040",
		},
		{
			name: "full_group",
			in:   []byte("Man"),
			exp:  "JM5k",
		},
		{
			name: "all_ones",
			in:   []byte{0xff, 0xff, 0xff},
			exp:  "____",
		},
		{
			name: "alphabet_edges",
			in:   []byte{0x00, 0x92, 0xa3, 0x93, 0xdf, 0xbf},
			exp:  "09AZaz-_",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.exp, Encode64(tc.in))
		})
	}
}

func TestEncode64Length(t *testing.T) {
	t.Parallel()

	for n := 0; n < 64; n++ {
		in := bytes.Repeat([]byte{0xa5}, n)
		out := Encode64(in)
		assert.Equal(t, (n+2)/3*4, len(out), "input length %d", n)
		for _, c := range []byte(out) {
			ok := ('0' <= c && c <= '9') || ('A' <= c && c <= 'Z') || ('a' <= c && c <= 'z') || c == '-' || c == '_'
			assert.True(t, ok, "unexpected character %q", c)
		}
	}
}

func TestEncode6bitPanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		encode6bit(64)
	})
}

func TestEncode(t *testing.T) {
	t.Parallel()

	const src = "@startuml\nA->B\n@enduml"

	encoded, err := Encode(src)
	assert.Nil(t, err)
	assert.NotEmpty(t, encoded)
	assert.Equal(t, 0, len(encoded)%4)

	again, err := Encode(src)
	assert.Nil(t, err)
	assert.Equal(t, encoded, again)

	raw := decode64(t, encoded)
	zr := flate.NewReader(bytes.NewReader(raw))
	// Zero fill may add up to two trailing bytes after the deflate stream.
	got, err := io.ReadAll(zr)
	assert.Nil(t, err)
	assert.Equal(t, src, string(got))
}

func TestEncodeEmpty(t *testing.T) {
	t.Parallel()

	encoded, err := Encode("")
	assert.Nil(t, err)
	assert.NotEmpty(t, encoded)
}

// decode64 reverses Encode64, returning the zero filled tail as well.
func decode64(t *testing.T, s string) []byte {
	t.Helper()

	val := func(c byte) byte {
		switch {
		case '0' <= c && c <= '9':
			return c - '0'
		case 'A' <= c && c <= 'Z':
			return c - 'A' + 10
		case 'a' <= c && c <= 'z':
			return c - 'a' + 36
		case c == '-':
			return 62
		case c == '_':
			return 63
		}
		t.Fatalf("invalid character %q", c)
		return 0
	}

	var out []byte
	for i := 0; i+3 < len(s); i += 4 {
		c0, c1, c2, c3 := val(s[i]), val(s[i+1]), val(s[i+2]), val(s[i+3])
		out = append(out, c0<<2|c1>>4, c1<<4|c2>>2, c2<<6|c3)
	}
	return out
}
