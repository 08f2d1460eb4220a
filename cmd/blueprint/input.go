package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// answers is what the interactive session collected.
type answers struct {
	Prompt    string
	ImagePath string
}

// asker reads line answers from in and writes questions to out.
type asker struct {
	in  *bufio.Reader
	out io.Writer
	// exists reports whether an image path can be used.
	exists func(path string) bool
}

func newAsker(in io.Reader, out io.Writer) *asker {
	return &asker{in: bufio.NewReader(in), out: out, exists: fileExists}
}

// ask prints question and returns the trimmed answer. End of input yields an
// empty answer and io.EOF.
func (a *asker) ask(question string) (string, error) {
	fmt.Fprintf(a.out, "%s\n> ", question)
	line, err := a.in.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return line, err
	}
	return line, nil
}

// collect asks for the building description and an optional reference image.
// Entering q at the image prompt continues without an image.
func (a *asker) collect() (answers, error) {
	var ans answers
	prompt, err := a.ask("Please enter a description of the building:")
	if err != nil {
		return ans, readErr(err)
	}
	ans.Prompt = prompt

	use, err := a.ask("Upload image? (y/n):")
	if err != nil {
		return ans, readErr(err)
	}
	if strings.ToLower(use) != "y" {
		return ans, nil
	}
	for {
		path, err := a.ask("Image path:")
		if err != nil {
			return ans, readErr(err)
		}
		if strings.ToLower(path) == "q" {
			return ans, nil
		}
		if a.exists(path) {
			ans.ImagePath = path
			fmt.Fprintf(a.out, "Image set: %s\n", path)
			return ans, nil
		}
		fmt.Fprintln(a.out, "Error: Image not found.")
	}
}

// readErr turns an early end of input into a clean stop.
func readErr(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("read answer: %w", err)
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
