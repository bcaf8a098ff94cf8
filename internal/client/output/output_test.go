package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T) (stdout, stderr *bytes.Buffer) {
	t.Helper()
	oldStdout, oldStderr, oldNoColor := Stdout, Stderr, color.NoColor
	t.Cleanup(func() {
		Stdout, Stderr, color.NoColor = oldStdout, oldStderr, oldNoColor
	})

	stdout, stderr = &bytes.Buffer{}, &bytes.Buffer{}
	Stdout, Stderr = stdout, stderr
	color.NoColor = true
	return stdout, stderr
}

func TestMessagesGoToStderr(t *testing.T) {
	stdout, stderr := capture(t)

	Successf("stack %s updated", "shop")
	Infof("uploading %d packages", 2)
	Warningf("health check disabled")
	Errorf("deploy failed")
	Header("funcstack deploy")

	assert.Empty(t, stdout.String())
	out := stderr.String()
	assert.Contains(t, out, "✓ stack shop updated")
	assert.Contains(t, out, "→ uploading 2 packages")
	assert.Contains(t, out, "⚠ health check disabled")
	assert.Contains(t, out, "✗ deploy failed")
	assert.Contains(t, out, "funcstack deploy\n"+strings.Repeat("━", headerSeparatorLength))
}

func TestKeyValueAndWrite(t *testing.T) {
	stdout, _ := capture(t)

	KeyValue("Stack", "shop")
	Write([]byte("Resources: {}\n"))

	assert.Equal(t, "  Stack: shop\nResources: {}\n", stdout.String())
}

func TestTable(t *testing.T) {
	stdout, _ := capture(t)

	Table([]string{"Output", "Value"}, [][]string{
		{"ApiEndpoint", "https://abc.execute-api.eu-west-1.amazonaws.com/prod"},
		{"X", "y"},
	})

	lines := strings.Split(strings.TrimRight(stdout.String(), "\n"), "\n")
	assert.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "Output       Value"))
	assert.True(t, strings.HasPrefix(lines[1], "───────────  ─────"))
	assert.True(t, strings.HasPrefix(lines[3], "X            y"))
}

func TestTableWithoutHeaders(t *testing.T) {
	stdout, _ := capture(t)
	Table(nil, [][]string{{"a"}})
	assert.Empty(t, stdout.String())
}

func TestVisibleWidthIgnoresColors(t *testing.T) {
	assert.Equal(t, 5, visibleWidth("\x1b[32mhello\x1b[0m"))
}

func TestStateBadge(t *testing.T) {
	capture(t)
	assert.Equal(t, "PINGED", StateBadge("PINGED"))
	assert.Equal(t, "UPLOAD_FAILED", StateBadge("UPLOAD_FAILED"))
}

func TestDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{42 * time.Second, "42s"},
		{2*time.Minute + 35*time.Second, "2m 35s"},
		{61 * time.Minute, "1h 1m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Duration(tt.in))
	}
}
