package stats

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPrint(t *testing.T) {
	c := Conversion{
		Input:       "in.docx",
		Output:      "out.md",
		InputBytes:  2048,
		OutputBytes: 512,
		Duration:    42 * time.Millisecond,
	}

	var buf bytes.Buffer
	c.Print(&buf)
	out := buf.String()

	assert.Contains(t, out, "in.docx")
	assert.Contains(t, out, "out.md")
	assert.Contains(t, out, "2.0 KiB")
	assert.Contains(t, out, "512 B")
	assert.Contains(t, out, "42ms")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.0 KiB", formatBytes(1024))
	assert.Equal(t, "1.5 MiB", formatBytes(3*1024*1024/2))
}
