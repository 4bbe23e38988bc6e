package domain

import (
	"fmt"
	"strings"
	"time"
)

// Project scopes documents and question-answering sessions. Retrieval is
// filtered to one project's chunks when a project id is supplied.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Validate checks the project fields before persistence.
func (p *Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: project name is required", ErrInvalidInput)
	}
	return nil
}
