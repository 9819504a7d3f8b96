package output_writer

import (
	"context"

	"github.com/meysamhadeli/aifiles/utils"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

func grammarFor(path string) *sitter.Language {
	switch utils.GetSupportedLanguage(path) {
	case "csharp":
		return csharp.GetLanguage()
	case "go":
		return golang.GetLanguage()
	case "python":
		return python.GetLanguage()
	case "java":
		return java.GetLanguage()
	case "javascript":
		return javascript.GetLanguage()
	case "typescript":
		return typescript.GetLanguage()
	default:
		return nil
	}
}

// SyntaxRegressed reports whether updated has syntax errors while original parsed cleanly. Files
// without a bundled grammar never regress.
func SyntaxRegressed(ctx context.Context, path string, original []byte, updated []byte) (bool, error) {
	lang := grammarFor(path)
	if lang == nil {
		return false, nil
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang)

	originalTree, err := parser.ParseCtx(ctx, nil, original)
	if err != nil {
		return false, err
	}
	if originalTree.RootNode().HasError() {
		return false, nil
	}

	updatedTree, err := parser.ParseCtx(ctx, nil, updated)
	if err != nil {
		return false, err
	}
	return updatedTree.RootNode().HasError(), nil
}
