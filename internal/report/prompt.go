// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pdiddy/publish-or-not/pkg/types"
)

// ErrOverwriteChoice is returned when the answer to the overwrite prompt is
// neither yes nor no.
var ErrOverwriteChoice = fmt.Errorf("%w: unexpected overwrite answer", types.ErrConfig)

// ResolveOutput returns the path the report should be written to. When
// path exists and force is false, the user is asked on out whether to
// overwrite it: y or Y keeps path, n or N reads a replacement name from in.
func ResolveOutput(path string, force bool, in io.Reader, out io.Writer) (string, error) {
	if force {
		return path, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path, nil
	}

	reader := bufio.NewReader(in)
	fmt.Fprintf(out, "Output file %s exists. Overwrite (y/n)? ", path)
	answer, err := readLine(reader)
	if err != nil {
		return "", fmt.Errorf("reading overwrite answer: %w", err)
	}
	switch answer {
	case "y", "Y":
		return path, nil
	case "n", "N":
		fmt.Fprint(out, "New output file name: ")
		name, err := readLine(reader)
		if err != nil {
			return "", fmt.Errorf("reading output file name: %w", err)
		}
		if name == "" {
			return "", fmt.Errorf("%w: empty output file name", types.ErrConfig)
		}
		return name, nil
	default:
		return "", fmt.Errorf("%w %q", ErrOverwriteChoice, answer)
	}
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
