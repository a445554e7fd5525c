package prompts

import (
	_ "embed"
)

//go:embed review.txt
var ReviewPrompt string

//go:embed review_request.txt
var ReviewRequestTemplate string
