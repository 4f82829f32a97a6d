package domain

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Stem identifies the source the separation tool isolates in two-stems mode
type Stem string

const (
	StemDrums  Stem = "drums"
	StemBass   Stem = "bass"
	StemVocals Stem = "vocals"
	StemOther  Stem = "other"
)

// stemLabels lists the user-facing labels in display order
var stemLabels = []struct {
	Label string
	Stem  Stem
}{
	{"Drums", StemDrums},
	{"Bass", StemBass},
	{"Vocals", StemVocals},
	{"Guitars & other", StemOther},
}

// StemLabels returns the selectable labels in display order
func StemLabels() []string {
	labels := make([]string, len(stemLabels))
	for i, s := range stemLabels {
		labels[i] = s.Label
	}
	return labels
}

// DefaultStemLabel is the label selected when nothing else is configured
func DefaultStemLabel() string {
	return stemLabels[0].Label
}

// ParseStemLabel maps a dropdown label to its stem. The match is exact.
func ParseStemLabel(label string) (Stem, error) {
	for _, s := range stemLabels {
		if s.Label == label {
			return s.Stem, nil
		}
	}
	return "", unknownStem(label)
}

// ParseStem accepts either a label or a stem identifier, ignoring case
func ParseStem(s string) (Stem, error) {
	needle := strings.TrimSpace(s)
	for _, l := range stemLabels {
		if strings.EqualFold(l.Label, needle) || strings.EqualFold(string(l.Stem), needle) {
			return l.Stem, nil
		}
	}
	return "", errors.WithHint(unknownStem(s), "valid choices: "+strings.Join(StemLabels(), ", "))
}

func unknownStem(s string) error {
	return errors.Mark(errors.Newf("Unknown instrument: %s", s), ErrUnknownStem)
}

// Label returns the user-facing label for the stem
func (s Stem) Label() string {
	for _, l := range stemLabels {
		if l.Stem == s {
			return l.Label
		}
	}
	return string(s)
}

// Valid reports whether the stem is one the tool understands
func (s Stem) Valid() bool {
	for _, l := range stemLabels {
		if l.Stem == s {
			return true
		}
	}
	return false
}

// ResultFile is the name of the isolated stem file, e.g. vocals.wav
func (s Stem) ResultFile() string {
	return string(s) + ".wav"
}

// ResidualFile is the name of the everything-else file, e.g. no_vocals.wav
func (s Stem) ResidualFile() string {
	return "no_" + string(s) + ".wav"
}

// OutputFiles returns the two files a two-stems run produces
func (s Stem) OutputFiles() []string {
	return []string{s.ResultFile(), s.ResidualFile()}
}

// RunStatus represents the state of the split orchestrator
type RunStatus string

const (
	RunIdle    RunStatus = "idle"
	RunRunning RunStatus = "running"
)

// AudioExtensions are the file extensions offered by the input picker
var AudioExtensions = []string{".wav", ".mp3", ".flac"}

// IsAudioFile reports whether the path has one of the accepted audio extensions
func IsAudioFile(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range AudioExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
