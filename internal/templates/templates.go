// Package templates holds the small registry of project-skeleton
// design documents the wizard offers when the detected project type
// matches one of them. Ported in spirit from the original Python
// project's templates/rest_api.py and templates/web_app.py, condensed
// to the story/requirement/architecture shape internal/specstore
// already models rather than carried as the original's full nested
// dict structure.
package templates

// Requirement is one EARS condition/response pair seeded for a story.
type Requirement struct {
	Condition      string
	SystemResponse string
}

// Story is a pre-populated user story plus its starter requirements.
type Story struct {
	AsA            string
	IWant          string
	SoThat         string
	Requirements   []Requirement
}

// Component names one architectural building block surfaced in the
// seeded design document.
type Component struct {
	Name        string
	Description string
}

// Template is a design-document skeleton for one project archetype.
type Template struct {
	Key          string
	Name         string
	Description  string
	Architecture string
	Components   []Component
	Stories      []Story
}

// Registry maps a wizard project-type key to its seeded Template.
var Registry = map[string]Template{
	"rest-api": {
		Key:          "rest-api",
		Name:         "REST API Service",
		Description:  "RESTful API service with CRUD operations and authentication",
		Architecture: "Layered REST API architecture with controllers, services, and a data access layer",
		Components: []Component{
			{Name: "API Gateway", Description: "Request routing, rate limiting, and API versioning"},
			{Name: "Auth Middleware", Description: "API key or token validation ahead of route handlers"},
			{Name: "Data Access Layer", Description: "Repository abstractions over the persistence store"},
		},
		Stories: []Story{
			{
				AsA: "API client", IWant: "authenticate using API keys or tokens", SoThat: "I can securely access protected endpoints",
				Requirements: []Requirement{
					{Condition: "WHEN a request includes a valid API key", SystemResponse: "THE SYSTEM SHALL process the request and return the appropriate response"},
					{Condition: "IF the API key is missing or invalid", SystemResponse: "THE SYSTEM SHALL return 401 Unauthorized with error details"},
					{Condition: "WHEN the API key's rate limit is exceeded", SystemResponse: "THE SYSTEM SHALL return 429 Too Many Requests with retry information"},
				},
			},
			{
				AsA: "developer", IWant: "perform CRUD operations on resources", SoThat: "I can manage data through the API",
				Requirements: []Requirement{
					{Condition: "WHEN creating a resource with valid data", SystemResponse: "THE SYSTEM SHALL create the resource and return 201 Created with the resource data"},
					{Condition: "IF the requested resource does not exist", SystemResponse: "THE SYSTEM SHALL return 404 Not Found with an error message"},
				},
			},
		},
	},
	"web-app": {
		Key:          "web-app",
		Name:         "Web Application",
		Description:  "Browser-facing web application with server-rendered or SPA frontend",
		Architecture: "Model-View-Controller with a client-side router and a shared session store",
		Components: []Component{
			{Name: "Frontend", Description: "Browser UI rendering and client-side routing"},
			{Name: "Session Store", Description: "Authenticated session lifecycle and CSRF protection"},
			{Name: "Backend API", Description: "Server-side handlers backing the frontend's data needs"},
		},
		Stories: []Story{
			{
				AsA: "visitor", IWant: "create an account and sign in", SoThat: "I can access my own data across sessions",
				Requirements: []Requirement{
					{Condition: "WHEN a visitor submits valid signup details", SystemResponse: "THE SYSTEM SHALL create the account and start an authenticated session"},
					{Condition: "IF signup details fail validation", SystemResponse: "THE SYSTEM SHALL redisplay the form with field-level errors"},
				},
			},
			{
				AsA: "signed-in user", IWant: "see my changes reflected immediately", SoThat: "I trust the application is saving my work",
				Requirements: []Requirement{
					{Condition: "WHEN a user submits a change", SystemResponse: "THE SYSTEM SHALL persist it and update the rendered view without a full reload"},
				},
			},
		},
	},
	"cli-tool": {
		Key:          "cli-tool",
		Name:         "Command Line Tool",
		Description:  "Single-binary CLI with subcommands, flags, and scriptable output",
		Architecture: "Command tree with a shared root command and per-subcommand flag sets",
		Components: []Component{
			{Name: "Command Tree", Description: "Root command plus subcommands, each owning its own flags"},
			{Name: "Config Loader", Description: "Layered defaults, environment variables, and flag overrides"},
			{Name: "Output Formatter", Description: "Human-readable and machine-readable (JSON) output modes"},
		},
		Stories: []Story{
			{
				AsA: "operator", IWant: "run the tool non-interactively in a script", SoThat: "I can automate it in CI",
				Requirements: []Requirement{
					{Condition: "WHEN invoked with --output json", SystemResponse: "THE SYSTEM SHALL emit machine-parseable JSON on stdout and nothing else"},
					{Condition: "IF a required flag is missing", SystemResponse: "THE SYSTEM SHALL exit non-zero with a usage error on stderr"},
				},
			},
		},
	},
}

// Names returns the registry's keys.
func Names() []string {
	names := make([]string, 0, len(Registry))
	for k := range Registry {
		names = append(names, k)
	}
	return names
}
