package utils

import (
	"path/filepath"
	"strings"
)

// GetSupportedLanguage returns the tree-sitter language name for a file, or "" when no grammar
// is bundled for it.
func GetSupportedLanguage(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return "go"
	case ".py":
		return "python"
	case ".java":
		return "java"
	case ".js", ".jsx", ".mjs", ".cjs":
		return "javascript"
	case ".ts":
		return "typescript"
	case ".cs":
		return "csharp"
	default:
		return ""
	}
}
