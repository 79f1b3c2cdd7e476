package memory

// DefaultTypes is the type catalog every store starts with.
var DefaultTypes = []CatalogEntry{
	{Name: "note", Description: "General notes and observations about a project or topic."},
	{Name: "prd", Description: "Product requirement documents: goals, user stories and acceptance criteria."},
	{Name: "snippet", Description: "Reusable code snippets with enough context to paste them safely."},
	{Name: "decision", Description: "Architecture or design decisions and the trade-offs behind them."},
	{Name: "pattern", Description: "Recurring implementation patterns and conventions to follow."},
	{Name: "config", Description: "Configuration values, environment setup and deployment settings."},
	{Name: "troubleshooting", Description: "Known problems with their symptoms, root causes and fixes."},
}

// DefaultTags is the tag catalog every store starts with. Items may carry
// tags outside the catalog.
var DefaultTags = []CatalogEntry{
	{Name: "api", Description: "HTTP APIs, endpoints and client integrations."},
	{Name: "architecture", Description: "System structure, boundaries and component design."},
	{Name: "database", Description: "Schemas, queries, migrations and storage engines."},
	{Name: "devops", Description: "CI/CD, containers, infrastructure and deployment."},
	{Name: "golang", Description: "Go language specifics and idioms."},
	{Name: "mcp", Description: "Model Context Protocol servers, tools, resources and prompts."},
	{Name: "performance", Description: "Profiling, caching and latency work."},
	{Name: "python", Description: "Python language specifics and tooling."},
	{Name: "security", Description: "Authentication, secrets handling and hardening."},
	{Name: "testing", Description: "Test strategy, fixtures and tooling."},
}
