package seeds

import (
	"fmt"
	"strings"
)

// InputError is a fatal problem with the seed file. It is reported before
// any network activity.
type InputError struct {
	Path    string
	Msg     string
	Details []string
	Err     error
}

func (e *InputError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "seeds: %s: %s", e.Path, e.Msg)
	if len(e.Details) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(e.Details, "; "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *InputError) Unwrap() error {
	return e.Err
}
