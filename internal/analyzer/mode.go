package analyzer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/vsmkit/internal/loop"
)

// ResolveMode picks the analysis axis from the --easy/--hard flags. When
// exactly one is set it wins; otherwise the user is asked on in/out and any
// answer containing "h" selects the hard axis.
func ResolveMode(easy, hard bool, in io.Reader, out io.Writer) (loop.Axis, error) {
	if easy != hard {
		if easy {
			return loop.Easy, nil
		}
		return loop.Hard, nil
	}

	fmt.Fprint(out, "Easy or hard axis data? (E/h) ")
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return loop.Easy, err
	}
	if strings.Contains(strings.ToLower(answer), "h") {
		return loop.Hard, nil
	}
	return loop.Easy, nil
}

// ParseMode maps a configured mode onto the flag pair ResolveMode takes.
// An empty mode sets neither flag, so the user is asked.
func ParseMode(mode string) (easy, hard bool, err error) {
	if strings.TrimSpace(mode) == "" {
		return false, false, nil
	}
	axis, err := loop.ParseAxis(mode)
	if err != nil {
		return false, false, err
	}
	return axis == loop.Easy, axis == loop.Hard, nil
}
