//go:build integration

package integration

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// fakeDemucs mimics demucs --two-stems: it prints tqdm-style progress to
// stderr and writes both stems into <out>/htdemucs/<track>/
const fakeDemucs = `#!/bin/sh
for a in "$@"; do
  case "$a" in --two-stems=*) stem="${a#--two-stems=}";; esac
done
while [ $# -gt 0 ]; do
  case "$1" in
    --out) out="$2"; shift 2;;
    *) input="$1"; shift;;
  esac
done
name=$(basename "$input")
name="${name%.*}"
dir="$out/htdemucs/$name"
mkdir -p "$dir"
printf ' 25%%|##      | 1/4\r' >&2
printf ' 75%%|######  | 3/4\r' >&2
printf '100%%|########| 4/4\n' >&2
echo stem > "$dir/$stem.wav"
echo rest > "$dir/no_$stem.wav"
`

// FakeDemucs writes the fake separation tool and returns its path
func FakeDemucs(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tool is a shell script")
	}
	path := filepath.Join(t.TempDir(), "demucs")
	if err := os.WriteFile(path, []byte(fakeDemucs), 0755); err != nil {
		t.Fatalf("Failed to write fake tool: %v", err)
	}
	return path
}

// TempConfigPath creates a temporary config file path for testing
func TempConfigPath(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "config.toml")
}

// TempTrack creates an input audio file in its own folder
func TempTrack(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("RIFF"), 0644); err != nil {
		t.Fatalf("Failed to write track: %v", err)
	}
	return path
}
