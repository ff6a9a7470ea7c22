package commands

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// confirmPrompt asks a yes/no question on stdout and reads the answer.
func confirmPrompt(in io.Reader, question string) (bool, error) {
	fmt.Printf("%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	return isYes(line), nil
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
