package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"imgurdl/pkg/album"
)

// Prompter asks the interactive questions of a download run
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter reads answers from in and writes questions to out
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// AskRunMode asks where album ids come from. It repeats the question until
// it gets a recognised answer or the input ends.
func (p *Prompter) AskRunMode() (album.RunMode, error) {
	for {
		fmt.Fprintln(p.out, "Where should album ids be read from?")
		fmt.Fprintln(p.out, "  1. command line arguments")
		fmt.Fprintln(p.out, "  2. list file")
		answer, err := p.readLine("Choice [1/2]: ")
		if err != nil {
			return 0, err
		}
		mode, err := album.ParseRunMode(answer)
		if err == nil {
			return mode, nil
		}
		fmt.Fprintf(p.out, "%s\n", Yellow("Please answer 1 or 2."))
	}
}

// Confirm asks a yes/no question. An empty answer returns def.
func (p *Prompter) Confirm(question string, def bool) (bool, error) {
	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}
	for {
		answer, err := p.readLine(fmt.Sprintf("%s %s: ", question, hint))
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
	}
}

// Ask prints label and returns the trimmed answer
func (p *Prompter) Ask(label string) (string, error) {
	return p.readLine(label)
}

func (p *Prompter) readLine(label string) (string, error) {
	fmt.Fprint(p.out, label)
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
