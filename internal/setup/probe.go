package setup

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
)

var modulePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// ErrInvalidPackage is returned for names that are not Python module paths.
var ErrInvalidPackage = errors.New("invalid python package name")

// PackageProber checks whether a Python package can be imported.
type PackageProber interface {
	Probe(ctx context.Context, python, pkg string) error
}

// PythonProber imports the package in a child interpreter.
type PythonProber struct{}

// NewPythonProber creates a PythonProber.
func NewPythonProber() *PythonProber {
	return &PythonProber{}
}

// Probe runs `python -c "import pkg"`.
func (p *PythonProber) Probe(ctx context.Context, python, pkg string) error {
	if !modulePattern.MatchString(pkg) {
		return fmt.Errorf("%w: %q", ErrInvalidPackage, pkg)
	}

	// #nosec G204 -- pkg is restricted to a dotted identifier
	cmd := exec.CommandContext(ctx, python, "-c", "import "+pkg)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("import %s failed: %w - output: %s", pkg, err, string(output))
	}

	return nil
}
