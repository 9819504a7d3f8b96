package contracts

import (
	"context"

	"github.com/meysamhadeli/aifiles/file_selector/models"
)

type IFileSelector interface {
	Select(ctx context.Context, patterns []string) ([]models.FileTask, error)
}
