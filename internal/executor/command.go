package executor

import (
	"github.com/hochfrequenz/stem-splitter/internal/domain"
)

// DefaultBinary is the separation tool invoked when nothing else is configured
const DefaultBinary = "demucs"

// Tool describes how to invoke the separation tool. Args are placed before
// the separation flags, which allows e.g. Binary "python" with Args ["-m", "demucs"].
type Tool struct {
	Binary string
	Args   []string
}

// BuildCommand returns the argv for a two-stems separation of req
func BuildCommand(tool Tool, req domain.RunRequest) []string {
	binary := tool.Binary
	if binary == "" {
		binary = DefaultBinary
	}

	argv := make([]string, 0, len(tool.Args)+5)
	argv = append(argv, binary)
	argv = append(argv, tool.Args...)
	argv = append(argv,
		"--two-stems="+string(req.Stem),
		"--out", req.OutputDir,
		req.InputPath,
	)
	return argv
}
