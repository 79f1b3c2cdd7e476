// Package prompts implements MCP prompt handlers.
//
// MCP prompts are user-triggered templates (like slash commands). Each one
// renders a single user message that points the assistant at the memory
// tools for stored conventions and patterns.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// argOr returns the named prompt argument, or fallback when it is empty.
func argOr(req mcp.GetPromptRequest, name, fallback string) string {
	if args := req.Params.Arguments; args != nil {
		if v, ok := args[name]; ok && v != "" {
			return v
		}
	}
	return fallback
}

func userMessage(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.NewTextContent(text),
			},
		},
	}
}

// CodeReviewPrompt handles the code_review_context MCP prompt.
type CodeReviewPrompt struct{}

// NewCodeReviewPrompt creates a CodeReviewPrompt.
func NewCodeReviewPrompt() *CodeReviewPrompt {
	return &CodeReviewPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *CodeReviewPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("code_review_context",
		mcp.WithPromptDescription("Code review template that pulls stored conventions from memory."),
		mcp.WithArgument("language",
			mcp.ArgumentDescription("Programming language of the code under review"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("framework",
			mcp.ArgumentDescription("Framework in use (optional)"),
		),
		mcp.WithArgument("conventions",
			mcp.ArgumentDescription("Team conventions to enforce (optional)"),
		),
	)
}

// Handle renders the code review prompt.
func (p *CodeReviewPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	language := argOr(req, "language", "")
	if language == "" {
		return nil, fmt.Errorf("'language' argument is required")
	}
	framework := argOr(req, "framework", "no specific framework")
	conventions := argOr(req, "conventions", "standard best practices")

	text := fmt.Sprintf("Review this %s code for: security, performance, and style issues.\n"+
		`Return JSON array: [{"severity": "info"|"warning"|"critical", "file": string, "line": number, "category": string, "message": string, "suggestion": string}]`+"\n\n"+
		"Context:\n"+
		"- Project uses %s\n"+
		"- Team conventions: %s\n\n"+
		"Use the mem_search tool to find relevant patterns and conventions stored in the memory server.\n\n"+
		"Code to review:\n"+
		"```%s\n{{codeToReview}}\n```\n\n"+
		"Focus on practical, actionable feedback.",
		language, framework, conventions, language)

	return userMessage(fmt.Sprintf("Code review: %s", language), text), nil
}
