package diff

//go:generate mockgen -source=prompt.go -package=diff -destination=prompt_mock.go

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// UpdatePrompt is what the update flow asks before overwriting a snapshot.
const UpdatePrompt = "\nUpdate snapshot? [y/N]: "

// Prompter asks the operator a yes/no question.
type Prompter interface {
	// Confirm blocks until the operator answers. y/yes is true; n/no or an empty
	// answer is false. Anything else asks again. Closing input without an answer is a no.
	Confirm(prompt string) (bool, error)
}

type linePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPrompter(in io.Reader, out io.Writer) Prompter {
	return &linePrompter{in: bufio.NewReader(in), out: out}
}

func (p *linePrompter) Confirm(prompt string) (bool, error) {
	for {
		fmt.Fprint(p.out, prompt)
		line, err := p.in.ReadString('\n')
		if err != nil && err != io.EOF {
			return false, errors.Wrap(err, "reading answer")
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		case "n", "no", "":
			if err == io.EOF {
				fmt.Fprintln(p.out)
			}
			return false, nil
		}

		if err == io.EOF {
			fmt.Fprintln(p.out)
			return false, nil
		}
		fmt.Fprintln(p.out, "Please enter 'y' or 'n'")
	}
}
