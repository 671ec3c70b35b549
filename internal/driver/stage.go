package driver

import "fmt"

// Stage определяет, после какой фазы остановиться.
type Stage string

const (
	StageSyntax Stage = "syntax"
	StageSem    Stage = "sem"
	StageInfer  Stage = "infer"
	StageSSA    Stage = "ssa"
)

func (s Stage) rank() int {
	switch s {
	case StageSyntax:
		return 1
	case StageSem:
		return 2
	case StageInfer:
		return 3
	default:
		return 4
	}
}

// Reaches reports whether a pipeline stopping after s runs stage other.
func (s Stage) Reaches(other Stage) bool { return other.rank() <= s.rank() }

func ParseStage(s string) (Stage, error) {
	switch Stage(s) {
	case StageSyntax, StageSem, StageInfer, StageSSA:
		return Stage(s), nil
	case "", "all":
		return StageSSA, nil
	}
	return "", fmt.Errorf("invalid stage: %q (expected: syntax|sem|infer|ssa)", s)
}
