package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{
			name: "plain ascii passes through",
			in:   []byte("Receipt #: 5001"),
			want: "Receipt #: 5001",
		},
		{
			name: "control bytes dropped not replaced",
			in:   []byte{0x1b, 'H', 0x00, 'i', 0x07},
			want: "Hi",
		},
		{
			name: "newlines tabs and returns kept",
			in:   []byte("a\tb\r\nc"),
			want: "a\tb\r\nc",
		},
		{
			name: "high bytes dropped",
			in:   []byte{0xff, 0xfe, 'o', 'k', 0x80},
			want: "ok",
		},
		{
			name: "result trimmed",
			in:   []byte("  \n total: $5 \r\n "),
			want: "total: $5",
		},
		{
			name: "empty input",
			in:   nil,
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.in))
		})
	}
}

func TestText_PureBinaryExtractsEmpty(t *testing.T) {
	// 30 raw bytes with nothing printable: scrapes to the empty string,
	// which the parser's length precondition then rejects.
	buf := make([]byte, 30)
	for i := range buf {
		buf[i] = byte(i % 31) // control range only
	}
	assert.Equal(t, "", Text(buf))
}
