package internal

import "github.com/starford/studyflow/internal/planner"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	collab planner.Collaborator
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithCollaborator overrides the planning collaborator (used in tests).
func WithCollaborator(c planner.Collaborator) Option {
	return func(a *application) {
		a.collab = c
	}
}
