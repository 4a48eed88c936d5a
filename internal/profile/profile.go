package profile

import (
	"context"

	"github.com/consultlaw/consultlaw-go/internal/models"
	apperrors "github.com/consultlaw/consultlaw-go/pkg/errors"
	"github.com/go-playground/validator/v10"
)

// Transport is the slice of the HTTP client profile management needs.
type Transport interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
}

// Input is the editable portion of a lawyer's public profile.
type Input struct {
	Bio             string `json:"bio" validate:"required"`
	Specialties     string `json:"specialties" validate:"required"`
	ExperienceYears int    `json:"experience_years" validate:"gte=0"`
	Languages       string `json:"languages"`
	Fee             string `json:"fee"`
}

// Manager reads and edits the authenticated lawyer's own profile.
type Manager struct {
	transport Transport
	validate  *validator.Validate
}

// New creates a profile manager
func New(transport Transport) *Manager {
	return &Manager{
		transport: transport,
		validate:  validator.New(),
	}
}

// Get returns the lawyer's current profile
func (m *Manager) Get(ctx context.Context) (*models.LawyerProfile, error) {
	var profile models.LawyerProfile
	if err := m.transport.Get(ctx, "/auth/lawyer/profile/", &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Create sets up the profile for a lawyer who does not have one yet
func (m *Manager) Create(ctx context.Context, input Input) (*models.LawyerProfile, error) {
	if err := m.validate.Struct(input); err != nil {
		return nil, apperrors.InvalidInputError("profile", err.Error())
	}
	var created models.LawyerProfile
	if err := m.transport.Post(ctx, "/auth/lawyer/profile/create/", input, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update replaces the lawyer's existing profile
func (m *Manager) Update(ctx context.Context, input Input) (*models.LawyerProfile, error) {
	if err := m.validate.Struct(input); err != nil {
		return nil, apperrors.InvalidInputError("profile", err.Error())
	}
	var updated models.LawyerProfile
	if err := m.transport.Put(ctx, "/auth/lawyer/profile/", input, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}
