// Package normalize flattens the separation tool's nested output so the
// produced stems sit directly in the chosen output directory.
package normalize

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"

	"github.com/hochfrequenz/stem-splitter/internal/domain"
)

// DefaultModelDir is the folder demucs nests its results under
const DefaultModelDir = "htdemucs"

// Report describes what a normalization pass did
type Report struct {
	Moves           []domain.Move
	ModelDirRemoved bool
}

// Normalizer relocates result files and removes the leftover model folder
type Normalizer struct {
	ModelDir string
	Logger   log.Interface
}

// New creates a normalizer for the given model folder name
func New(modelDir string) *Normalizer {
	if modelDir == "" {
		modelDir = DefaultModelDir
	}
	return &Normalizer{ModelDir: modelDir, Logger: log.Log}
}

// Normalize moves <stem>.wav and no_<stem>.wav from the model folder, or
// failing that from anywhere below outDir, to its top level, then removes the model folder if nothing but empty
// directories remain in it. Failures are recorded in the report and never
// returned: the separation itself already succeeded.
func (n *Normalizer) Normalize(outDir string, stem domain.Stem) Report {
	logger := n.logger().WithFields(log.Fields{
		"output_dir": outDir,
		"stem":       stem,
	})

	var report Report
	for _, name := range stem.OutputFiles() {
		src, ok := n.locate(outDir, name)
		if !ok {
			logger.WithField("file", name).Debug("No nested result to relocate")
			continue
		}

		dst := filepath.Join(outDir, name)
		move := domain.Move{From: src, To: dst}
		if err := moveFile(src, dst); err != nil {
			move.Err = errors.Wrapf(err, "moving %s", name)
			logger.WithError(err).WithField("from", src).Warn("Could not relocate result file")
		} else {
			logger.WithFields(log.Fields{"from": src, "to": dst}).Info("Relocated result file")
		}
		report.Moves = append(report.Moves, move)
	}

	modelDir := filepath.Join(outDir, n.ModelDir)
	if info, err := os.Stat(modelDir); err == nil && info.IsDir() {
		if holdsFiles(modelDir) {
			logger.WithField("model_dir", modelDir).Warn("Model folder still holds files, keeping it")
		} else if err := os.RemoveAll(modelDir); err != nil {
			logger.WithError(err).Warn("Could not remove model folder")
		} else {
			report.ModelDirRemoved = true
		}
	}

	return report
}

// locate finds the fresh result for name. The model folder is searched first
// so an unrelated file of the same name elsewhere in outDir, such as an older
// <track>/vocals.wav, is never picked over it.
func (n *Normalizer) locate(outDir, name string) (string, bool) {
	if path, ok := firstMatch(filepath.Join(outDir, n.ModelDir), name, ""); ok {
		return path, true
	}
	return firstMatch(outDir, name, outDir)
}

// firstMatch returns the first file called name below root, in lexical walk
// order. Files directly in skipDir are already where they belong and ignored.
func firstMatch(root, name, skipDir string) (string, bool) {
	var found string
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || d.Name() != name {
			return nil
		}
		if skipDir != "" && filepath.Dir(path) == filepath.Clean(skipDir) {
			return nil
		}
		found = path
		return fs.SkipAll
	})
	return found, found != ""
}

// moveFile renames src to dst, falling back to copy and delete when a rename
// is not possible, e.g. across devices
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	in.Close()
	return os.Remove(src)
}

// holdsFiles reports whether anything other than directories exists below dir
func holdsFiles(dir string) bool {
	hasFile := false
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			hasFile = true
			return fs.SkipAll
		}
		return nil
	})
	return hasFile
}

func (n *Normalizer) logger() log.Interface {
	if n.Logger == nil {
		return log.Log
	}
	return n.Logger
}
