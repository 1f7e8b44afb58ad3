package errs

import (
	"fmt"
	"strings"

	cr "github.com/cockroachdb/errors"
)

func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return cr.Wrap(err, msg)
}

func New(msg string) error {
	return cr.New(msg)
}

// marked attaches a sentinel to an error. The sentinel is reported through
// the standard Is protocol, so errors.Is sees it anywhere in the chain while
// the message and cause chain stay those of the underlying error.
type marked struct {
	cause error
	mark  error
}

func (m *marked) Error() string        { return m.cause.Error() }
func (m *marked) Unwrap() error        { return m.cause }
func (m *marked) Is(target error) bool { return target == m.mark }

func (m *marked) Format(f fmt.State, verb rune) {
	if verb == 'v' && f.Flag('+') {
		fmt.Fprintf(f, "%+v", m.cause)
		return
	}
	fmt.Fprint(f, m.Error())
}

func Mark(err error, markErr error) error {
	if err == nil {
		return markErr
	}
	return &marked{cause: err, mark: markErr}
}

func ExtractStackLines(err error, maxLines int) []string {
	if err == nil {
		return nil
	}
	s := fmt.Sprintf("%+v", err)
	lines := strings.Split(s, "\n")
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return lines
}
