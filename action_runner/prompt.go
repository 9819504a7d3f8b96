package action_runner

import (
	"github.com/meysamhadeli/aifiles/action_runner/models"
)

const (
	inPlaceInstruction = "# Please only return the modified file content, and nothing else."
	stdoutInstruction  = "# Please only return the result, with no additional explanations or preface."
)

// GeneratePrompt returns the system prompt and the user prompt for a request. The system prompt
// is the action; the user prompt carries the file content followed by an output instruction.
func GeneratePrompt(request models.ActionRequest, inPlace bool) (string, string) {
	instruction := stdoutInstruction
	if inPlace {
		instruction = inPlaceInstruction
	}

	userPrompt := request.FileContent + "\n\n" + instruction
	return request.Action, userPrompt
}
