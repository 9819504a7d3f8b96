package utils

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/meysamhadeli/aifiles/constants/lipgloss"
	"gitlab.com/tozd/go/errors"
)

// ConfirmPrompt asks a yes/no question and waits for the answer. Anything other than "y" or
// "yes" is a no, including end of input.
func ConfirmPrompt(ctx context.Context, reader *bufio.Reader, out io.Writer, question string) (bool, error) {
	answerChan := make(chan string, 1)
	errChan := make(chan error, 1)

	fmt.Fprint(out, lipgloss.BlueSky.Render(question+" [y/N] "))

	go func() {
		answer, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			errChan <- errors.Errorf("error reading input: %w", err)
			return
		}
		answerChan <- answer
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(out)
		return false, ctx.Err()
	case err := <-errChan:
		return false, err
	case answer := <-answerChan:
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	}
}
