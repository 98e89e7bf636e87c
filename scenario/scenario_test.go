package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "no states",
			yaml:    `name: empty`,
			wantErr: "no states declared",
		},
		{
			name:    "missing name",
			yaml:    `states: [{root: 1}]`,
			wantErr: "missing name",
		},
		{
			name:    "duplicate",
			yaml:    `states: [{name: a, root: 1}, {name: a, root: 2}]`,
			wantErr: `duplicate state "a"`,
		},
		{
			name:    "no kind",
			yaml:    `states: [{name: a}]`,
			wantErr: "exactly one of root, map, combine",
		},
		{
			name:    "two kinds",
			yaml:    `states: [{name: a, root: 1}, {name: b, root: 1, map: {from: a, op: identity}}]`,
			wantErr: "exactly one of root, map, combine",
		},
		{
			name:    "forward reference",
			yaml:    `states: [{name: b, map: {from: a, op: identity}}, {name: a, root: 1}]`,
			wantErr: `unknown upstream "a"`,
		},
		{
			name:    "unknown map op",
			yaml:    `states: [{name: a, root: 1}, {name: b, map: {from: a, op: nope}}]`,
			wantErr: `unknown map op "nope"`,
		},
		{
			name:    "unknown combine op",
			yaml:    `states: [{name: a, root: 1}, {name: b, combine: {a: a, b: a, op: nope}}]`,
			wantErr: `unknown combine op "nope"`,
		},
		{
			name:    "missing combine upstream",
			yaml:    `states: [{name: a, root: 1}, {name: b, combine: {a: a, op: pair}}]`,
			wantErr: "missing upstream",
		},
		{
			name:    "step update and teardown",
			yaml:    `{states: [{name: a, root: 1}], steps: [{update: a, teardown: a}]}`,
			wantErr: "mutually exclusive",
		},
		{
			name:    "step unknown state",
			yaml:    `{states: [{name: a, root: 1}], steps: [{update: b, value: 1}]}`,
			wantErr: `unknown state "b"`,
		},
		{
			name:    "expect unknown state",
			yaml:    `{states: [{name: a, root: 1}], steps: [{expect: {b: 1}}]}`,
			wantErr: `unknown state "b" in expect`,
		},
		{
			name:    "expect_error without update",
			yaml:    `{states: [{name: a, root: 1}], steps: [{teardown: a, expect_error: passive}]}`,
			wantErr: "expect_error requires update",
		},
		{
			name:    "unknown expect_error",
			yaml:    `{states: [{name: a, root: 1}], steps: [{update: a, value: 2, expect_error: boom}]}`,
			wantErr: `unknown expect_error "boom"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParse_DecodeError(t *testing.T) {
	_, err := Parse([]byte("states: [unterminated"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode scenario")
}

func TestLoad_DefaultsNameFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "toggle.yaml")
	require.NoError(t, os.WriteFile(path, []byte("states: [{name: on, root: false}]\n"), 0o644))

	sc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "toggle", sc.Name)
	assert.Equal(t, false, sc.States[0].Root)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read scenario")
}
