package inspect

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/livestate/state"
)

func graph() []state.Info {
	count := state.Of(1, state.WithLabel("count"))
	double := state.Map(count, func(x int) int { return x * 2 }, state.WithLabel("倍数"))
	both := state.Combine(count, double, func(a, b int) string {
		return strings.Repeat("|", a+b)
	}, state.WithLabel("bars"))
	both.Watch(func(string) {})
	return Collect(count, double, both, nil)
}

func TestCollect(t *testing.T) {
	infos := graph()
	require.Len(t, infos, 3)
	assert.Equal(t, "count", infos[0].Name())
	assert.Equal(t, state.KindDerived, infos[2].Kind)
	assert.Len(t, infos[2].Upstream, 2)
}

func TestWriteText_AlignsWideLabels(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, graph()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "STATE"))

	kindCol := func(line string) int {
		idx := strings.Index(line, "root")
		if idx < 0 {
			idx = strings.Index(line, "derived")
		}
		if idx < 0 {
			idx = strings.Index(line, "KIND")
		}
		return runewidth.StringWidth(line[:idx])
	}
	want := kindCol(lines[0])
	for _, line := range lines[1:] {
		assert.Equal(t, want, kindCol(line), "misaligned line %q", line)
	}
	assert.Contains(t, lines[3], "count, 倍数")
	assert.Contains(t, lines[3], `"|||"`)
}

func TestWriteText_TornDown(t *testing.T) {
	s := state.Of("x", state.WithLabel("gone"))
	s.Teardown()

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, Collect(s)))
	assert.Contains(t, buf.String(), "torn-down")
}

func TestWriteMarkdown_EscapesPipes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, graph()))

	out := buf.String()
	assert.Contains(t, out, "| STATE | KIND |")
	assert.Contains(t, out, `"\|\|\|"`)
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, graph()))

	out := buf.String()
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<th>STATE</th>")
	assert.Contains(t, out, "<td>bars</td>")
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "<nil>", FormatValue(nil))
	assert.Equal(t, `"a"`, FormatValue("a"))
	assert.Equal(t, "[1 2]", FormatValue([]int{1, 2}))
}
