// Package urlenc encodes PlantUML sources into the compressed form the PlantUML server
// accepts in its URL path.
package urlenc

import (
	"bytes"
	"compress/flate"
	"fmt"
	"io"
	"strings"

	"oss.terrastruct.com/xdefer"
)

// Encode takes a PlantUML source and encodes it as a deflated, PlantUML-base64 string for
// embedding in URLs.
func Encode(raw string) (_ string, err error) {
	defer xdefer.Errorf(&err, "failed to encode plantuml source")

	b := &bytes.Buffer{}

	zw, err := flate.NewWriter(b, flate.BestCompression)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(zw, strings.NewReader(raw)); err != nil {
		return "", err
	}
	if err := zw.Close(); err != nil {
		return "", err
	}

	return Encode64(b.Bytes()), nil
}

// Encode64 is PlantUML's base64 variant. It differs from RFC 4648 in two ways: the
// alphabet is 0-9A-Za-z-_ and a short trailing group is zero filled instead of being
// padded with '='. Every 3 input bytes become 4 output characters.
func Encode64(b []byte) string {
	var sb strings.Builder
	sb.Grow((len(b) + 2) / 3 * 4)

	for i := 0; i < len(b); i += 3 {
		var b1, b2 byte
		b0 := b[i]
		if i+1 < len(b) {
			b1 = b[i+1]
		}
		if i+2 < len(b) {
			b2 = b[i+2]
		}
		append3bytes(&sb, b0, b1, b2)
	}
	return sb.String()
}

func append3bytes(sb *strings.Builder, b0, b1, b2 byte) {
	c0 := b0 >> 2
	c1 := (b0&0x3)<<4 | b1>>4
	c2 := (b1&0xf)<<2 | b2>>6
	c3 := b2

	sb.WriteByte(encode6bit(c0 & 0x3f))
	sb.WriteByte(encode6bit(c1 & 0x3f))
	sb.WriteByte(encode6bit(c2 & 0x3f))
	sb.WriteByte(encode6bit(c3 & 0x3f))
}

func encode6bit(c byte) byte {
	switch {
	case c < 10:
		return '0' + c
	case c < 36:
		return 'A' + c - 10
	case c < 62:
		return 'a' + c - 36
	case c == 62:
		return '-'
	case c == 63:
		return '_'
	}
	panic(fmt.Sprintf("urlenc: %d does not fit in 6 bits", c))
}
