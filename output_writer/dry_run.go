package output_writer

import (
	"fmt"
	"io"

	"github.com/meysamhadeli/aifiles/constants/lipgloss"
	"github.com/meysamhadeli/aifiles/file_selector/models"
)

// ListDryRun prints the files a real run would process. Nothing is sent or written.
func ListDryRun(out io.Writer, tasks []models.FileTask) error {
	for _, task := range tasks {
		if _, err := fmt.Fprintln(out, lipgloss.Yellow.Render(fmt.Sprintf("Would modify: %s", task.RelativePath))); err != nil {
			return err
		}
	}
	return nil
}
