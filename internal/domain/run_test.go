package domain

import (
	"testing"

	"github.com/cockroachdb/errors"
)

func TestNewRunRequest(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		output  string
		label   string
		wantErr error
		want    Stem
	}{
		{"vocals", "/music/song.mp3", "/music/out", "Vocals", nil, StemVocals},
		{"guitars map to other", "/music/song.mp3", "/music/out", "Guitars & other", nil, StemOther},
		{"empty input", "", "/music/out", "Vocals", ErrMissingInput, ""},
		{"whitespace input", "   ", "/music/out", "Vocals", ErrMissingInput, ""},
		{"empty output", "/music/song.mp3", "", "Vocals", ErrMissingOutput, ""},
		{"both empty reports input", "", "", "Piano", ErrMissingInput, ""},
		{"unknown label", "/music/song.mp3", "/music/out", "Piano", ErrUnknownStem, ""},
		{"identifier is not a label", "/music/song.mp3", "/music/out", "vocals", ErrUnknownStem, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := NewRunRequest(tt.input, tt.output, tt.label)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				if !IsValidationError(err) {
					t.Errorf("IsValidationError(%v) = false, want true", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if req.Stem != tt.want {
				t.Errorf("Stem = %q, want %q", req.Stem, tt.want)
			}
		})
	}
}

func TestNewRunRequest_TrimsPaths(t *testing.T) {
	req, err := NewRunRequest("  /music/song.wav ", "\t/music/out\n", "Drums")
	if err != nil {
		t.Fatal(err)
	}
	if req.InputPath != "/music/song.wav" {
		t.Errorf("InputPath = %q", req.InputPath)
	}
	if req.OutputDir != "/music/out" {
		t.Errorf("OutputDir = %q", req.OutputDir)
	}
}

func TestRunRequest_MissingPathCarriesHint(t *testing.T) {
	_, err := NewRunRequest("", "/out", "Bass")
	hints := errors.GetAllHints(err)
	if len(hints) == 0 {
		t.Fatal("expected a user-facing hint")
	}
	if hints[0] != "Please select both input file and output directory." {
		t.Errorf("hint = %q", hints[0])
	}
}

func TestRunRequest_Validate(t *testing.T) {
	req := RunRequest{InputPath: "a.wav", OutputDir: "out", Stem: "piano"}
	if err := req.Validate(); !errors.Is(err, ErrUnknownStem) {
		t.Errorf("Validate() = %v, want ErrUnknownStem", err)
	}

	req.Stem = StemBass
	if err := req.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestDefaultOutputDir(t *testing.T) {
	if got := DefaultOutputDir("/music/album/song.flac"); got != "/music/album" {
		t.Errorf("DefaultOutputDir = %q, want /music/album", got)
	}
	if got := DefaultOutputDir(""); got != "" {
		t.Errorf("DefaultOutputDir(\"\") = %q, want empty", got)
	}
}

func TestRunResult_FailedMoves(t *testing.T) {
	res := RunResult{Moves: []Move{
		{From: "a", To: "b"},
		{From: "c", To: "d", Err: errors.New("permission denied")},
	}}

	failed := res.FailedMoves()
	if len(failed) != 1 || failed[0].From != "c" {
		t.Errorf("FailedMoves() = %+v, want the move from c", failed)
	}
}
