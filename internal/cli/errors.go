package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/oascompose/internal/emitter/catalogemitter"
	"github.com/mark3labs/oascompose/internal/spec"
)

var ErrUsage = errors.New("cli usage error")

type usageError struct {
	msg string
}

func newUsageError(msg string) error {
	return usageError{msg: msg}
}

func (e usageError) Error() string {
	return e.msg
}

func (e usageError) Is(target error) bool {
	return target == ErrUsage
}

// specUsageError turns a *spec.SpecError into a usage error listing the
// code and whatever context it carries. Other errors pass through.
func specUsageError(command string, err error) error {
	var se *spec.SpecError
	if !errors.As(err, &se) {
		return err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s: %s", command, se.Code, se.Message)
	if se.Reference != "" {
		fmt.Fprintf(&b, "\nReference: %s", se.Reference)
	}
	if se.Location != "" {
		fmt.Fprintf(&b, "\nLocation: %s", se.Location)
	}
	if se.JSONPointer != "" {
		fmt.Fprintf(&b, "\nPointer: %s", se.JSONPointer)
	}
	return newUsageError(b.String())
}

func wrapOutputError(err error, outDir string) error {
	if errors.Is(err, os.ErrPermission) {
		return newUsageError(fmt.Sprintf("cannot write to %s: %v\nHint: choose a different --out or check directory permissions.", outDir, err))
	}
	if errors.Is(err, catalogemitter.ErrOutDirNotEmpty) {
		return newUsageError(err.Error())
	}
	return err
}
