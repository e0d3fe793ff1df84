package diag

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLineTracksNewlines(t *testing.T) {
	d := NewFor("asreti", &bytes.Buffer{})
	require.Equal(t, uint64(1), d.Line())
	for _, r := range "LOAD ACC\n" {
		d.TrackRune(r)
	}
	require.Equal(t, uint64(1), d.Line(), "error right after the newline still blames the line that just ended")
	d.TrackRune('N')
	require.Equal(t, uint64(2), d.Line())
}

func TestParseErrorfFormat(t *testing.T) {
	d := NewFor("asreti", &bytes.Buffer{})
	d.File = "prog.reti"
	err := d.ParseErrorf("unknown mnemonic %q", "FOO")
	require.EqualError(t, err, `asreti: parse error: at line 1 in 'prog.reti': unknown mnemonic "FOO"`)
}

func TestWarnfWritesToOutput(t *testing.T) {
	var buf bytes.Buffer
	d := NewFor("enchex", &buf)
	d.Warnf("gap filled with zeros at 0x%04x", 0x10)
	require.Contains(t, buf.String(), "enchex: warning: gap filled with zeros at 0x0010")
}
