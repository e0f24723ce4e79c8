package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	fn := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(fn, []byte(data), 0o644))
	return fn
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.yaml", "name: focus\nsteps: [{run: 1}]")
	b := writeFile(t, dir, "b.yaml", "steps: [{run: 1}]")
	c := writeFile(t, dir, "c.lua", "run(1)")
	dup := writeFile(t, dir, "focus.lua", "run(1)")

	scs, err := loadAll([]string{a, b, c})
	require.NoError(t, err)
	require.Len(t, scs, 3)
	require.Equal(t, "focus", scs[0].Name)
	require.Equal(t, "b", scs[1].Name)

	_, err = loadAll([]string{a, b, dup})
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), `"focus"`), err.Error())

	_, err = loadAll([]string{a, filepath.Join(dir, "missing.yaml")})
	require.Error(t, err)
}

func TestWriteResult(t *testing.T) {
	dir := t.TempDir()
	scs, err := loadAll([]string{writeFile(t, dir, "one.yaml", "device: {channels: 1, max_buf_size: 8}\nsteps: [{run: 8, probe: {name: p, channels: [0], window: 4}}]")})
	require.NoError(t, err)
	res, err := scs[0].Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, writeResult(dir, res))
	data, err := os.ReadFile(filepath.Join(dir, "one.csv"))
	require.NoError(t, err)
	require.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 5)
}
