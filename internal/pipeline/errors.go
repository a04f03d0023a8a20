package pipeline

import (
	"errors"
	"fmt"
	"os/exec"
)

// Kind classifies a pipeline failure so operators know whether to fix
// the network, install packages, fix flags, or look at the build
// output. No kind is recoverable mid-run; re-running from a clean
// working directory is the only recovery.
type Kind int

const (
	// KindPipeline covers failures of the pipeline's own filesystem work.
	KindPipeline Kind = iota
	// KindFetch is a source acquisition failure (network, auth, missing ref).
	KindFetch
	// KindToolchain is a missing or failing external tool (compiler,
	// interpreter, library, header).
	KindToolchain
	// KindConfigure is a build-configuration failure, including a
	// rejected or dropped codec flag.
	KindConfigure
	// KindArtifact means expected build output was not found.
	KindArtifact
)

func (k Kind) String() string {
	switch k {
	case KindFetch:
		return "acquisition"
	case KindToolchain:
		return "toolchain"
	case KindConfigure:
		return "build configuration"
	case KindArtifact:
		return "artifact discovery"
	default:
		return "pipeline"
	}
}

// Error is a stage failure. The underlying tool's diagnostic is
// carried verbatim through Unwrap.
type Error struct {
	Stage string
	Kind  Kind
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("stage %s: %s error: %v", e.Stage, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// stageErr wraps err for a stage. A missing executable is always a
// toolchain problem, whatever the stage would otherwise report.
func stageErr(stage string, kind Kind, err error) error {
	if errors.Is(err, exec.ErrNotFound) {
		kind = KindToolchain
	}
	return &Error{Stage: stage, Kind: kind, Err: err}
}
