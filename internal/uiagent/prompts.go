package uiagent

import "github.com/nikhilbhutani/voiceui/internal/prompt"

const instructions = `You are a frontend UI assistant. The user will describe UI changes.
You must respond ONLY in valid JSON with the following three keys:

1. "appliedHTML": the actual HTML fragment to insert into the existing #results-content container.
2. "codeSnippet": JavaScript code to manipulate styles or DOM behavior using the passed-in container.
3. "fullHTML": a fully standalone HTML block (with inline styles/scripts) for displaying complete source code to the user.`

// generatePrompt is sent as a single prompt to the completion API.
var generatePrompt = prompt.New(`
` + instructions + `

User request: "{{text}}"
`)

// chatSystemPrompt is the system message in chat mode; the request text is
// sent unchanged as the user message.
var chatSystemPrompt = prompt.New(instructions + `
Do not wrap the JSON in markdown fences and do not add any commentary.`)
