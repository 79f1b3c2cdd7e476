package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// RefactoringPlanPrompt handles the refactoring_plan MCP prompt.
type RefactoringPlanPrompt struct{}

// NewRefactoringPlanPrompt creates a RefactoringPlanPrompt.
func NewRefactoringPlanPrompt() *RefactoringPlanPrompt {
	return &RefactoringPlanPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *RefactoringPlanPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("refactoring_plan",
		mcp.WithPromptDescription("Plan a behavior-preserving refactor of legacy code."),
		mcp.WithArgument("language",
			mcp.ArgumentDescription("Programming language of the legacy code"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("target_issues",
			mcp.ArgumentDescription("Specific issues to address (optional)"),
		),
	)
}

// Handle renders the refactoring plan prompt.
func (p *RefactoringPlanPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	language := argOr(req, "language", "")
	if language == "" {
		return nil, fmt.Errorf("'language' argument is required")
	}
	issues := argOr(req, "target_issues", "God classes, long methods, magic numbers, poor naming, missing type hints")

	text := fmt.Sprintf("Analyze this legacy %s code and create a refactoring plan.\n\n"+
		"Target issues: %s\n\n"+
		"Use the mem_search tool to find stored refactoring patterns and conventions.\n\n"+
		"Code:\n"+
		"```%s\n{{legacyCode}}\n```\n\n"+
		"Provide:\n"+
		"1. List of anti-patterns found (ranked by severity)\n"+
		"2. Step-by-step refactoring plan (preserving behavior)\n"+
		"3. Suggested file structure after split\n"+
		"4. Test cases to validate equivalence\n\n"+
		"Include commands and configuration as needed.",
		language, issues, language)

	return userMessage(fmt.Sprintf("Refactoring plan: %s", language), text), nil
}

// ToolDesignPrompt handles the mcp_tool_design MCP prompt.
type ToolDesignPrompt struct{}

// NewToolDesignPrompt creates a ToolDesignPrompt.
func NewToolDesignPrompt() *ToolDesignPrompt {
	return &ToolDesignPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ToolDesignPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("mcp_tool_design",
		mcp.WithPromptDescription("Design an MCP tool with schema, handler and error handling."),
		mcp.WithArgument("tool_purpose",
			mcp.ArgumentDescription("What the tool should do"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("tool_name",
			mcp.ArgumentDescription("Suggested tool name (optional)"),
		),
	)
}

// Handle renders the tool design prompt.
func (p *ToolDesignPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	purpose := argOr(req, "tool_purpose", "")
	if purpose == "" {
		return nil, fmt.Errorf("'tool_purpose' argument is required")
	}
	name := argOr(req, "tool_name", "[suggest appropriate name]")

	text := fmt.Sprintf("Design an MCP tool for: %s\n\n"+
		"Tool name: %s\n\n"+
		`Use mem_search with tag "mcp" to find stored patterns and examples.`+"\n\n"+
		"Provide:\n"+
		"1. Complete input schema definition\n"+
		"2. Tool handler implementation\n"+
		"3. Error handling patterns\n"+
		"4. Example usage from the assistant's perspective\n"+
		"5. Registration snippet for the MCP server\n\n"+
		"Include all technical details: imports, types, validation.",
		purpose, name)

	return userMessage("MCP tool design", text), nil
}

// CodebaseAnalysisPrompt handles the codebase_analysis MCP prompt.
type CodebaseAnalysisPrompt struct{}

// NewCodebaseAnalysisPrompt creates a CodebaseAnalysisPrompt.
func NewCodebaseAnalysisPrompt() *CodebaseAnalysisPrompt {
	return &CodebaseAnalysisPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *CodebaseAnalysisPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("codebase_analysis",
		mcp.WithPromptDescription("Analyze a whole codebase and propose conventions to store in memory."),
		mcp.WithArgument("project_type",
			mcp.ArgumentDescription("Type of project (web app, API, CLI, ...)"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("focus_areas",
			mcp.ArgumentDescription("Areas to focus on (optional)"),
		),
	)
}

// Handle renders the codebase analysis prompt.
func (p *CodebaseAnalysisPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	projectType := argOr(req, "project_type", "")
	if projectType == "" {
		return nil, fmt.Errorf("'project_type' argument is required")
	}
	focus := argOr(req, "focus_areas", "architecture, security, performance, maintainability")

	text := fmt.Sprintf("Analyze this %s codebase:\n\n"+
		"{{fileContents}}\n\n"+
		"Tasks:\n"+
		"1. Identify main components and their relationships\n"+
		"2. Detect architectural patterns used\n"+
		"3. List potential improvements (security, performance, maintainability)\n"+
		"4. Generate Mermaid architecture diagram\n"+
		"5. Suggest conventions to store in the memory server using the mem_add tool\n\n"+
		"Focus areas: %s\n\n"+
		"Use mem_search to find relevant stored patterns and compare against best practices.\n\n"+
		"Output format: Markdown with code blocks",
		projectType, focus)

	return userMessage(fmt.Sprintf("Codebase analysis: %s", projectType), text), nil
}
