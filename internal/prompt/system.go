package prompt

import (
	"fmt"
	"time"

	"smallchain/internal/tools"
)

const systemTemplate = `Today Date: {date}

You are {persona}. Your only goal is to fulfill the user's wishes in the best way possible.
Beside the abilities you have, you also have the ability to call functions.

The schemas of the functions you have is as follows:

{schemas}

You have to respond in one of these two formats:

1. If you need to call a function, respond only with:
{open}{{"name": function name, "parameters": dictionary of argument name and its value}}{close}

2. If no function call is needed, respond in conversational way.

Important rules to follow:
- Choose only ONE response format - either a function call OR a text message
- Function calls MUST follow the specified format, start with {open} and end with {close}
- Required parameters MUST be specified
- Only call one function at a time
- Put the entire function call reply on one line
- If there is no function call available, answer the question in chatting way with your current knowledge and do not tell anything about function calls to the user
- Only respond with a function call if you have all the required information to call the function, follow up questions must not be accompanied by a function call`

var system = MustParse(systemTemplate)

// SystemOptions parameterizes the tool-calling system prompt.
type SystemOptions struct {
	Persona     string
	OpenMarker  string
	CloseMarker string
}

// SystemPrompt renders the tool-calling instructions for the tools in reg.
// A nil registry advertises no tools.
func SystemPrompt(now time.Time, reg *tools.Registry, opts SystemOptions) (string, error) {
	if opts.Persona == "" {
		opts.Persona = "a helpful personal assistant"
	}
	if opts.OpenMarker == "" {
		opts.OpenMarker = "<tool>"
	}
	if opts.CloseMarker == "" {
		opts.CloseMarker = "</tool>"
	}
	if reg == nil {
		reg = tools.NewRegistry()
	}
	schemas, err := reg.Schemas()
	if err != nil {
		return "", fmt.Errorf("encode tool schemas: %w", err)
	}
	return system.Format(map[string]string{
		"date":    now.Format("2006-01-02"),
		"persona": opts.Persona,
		"schemas": schemas,
		"open":    opts.OpenMarker,
		"close":   opts.CloseMarker,
	})
}
