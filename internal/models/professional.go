package models

// ProfessionalSummary is a listed service provider from the public directory
// endpoint. Read-only on the client.
type ProfessionalSummary struct {
	ID        int    `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Specialty string `json:"specialty"`

	// Profile carries the richer listing shape some deployments return
	Profile *LawyerProfile `json:"lawyer_profile,omitempty"`
}

// LawyerProfile is the professional's extended public profile
type LawyerProfile struct {
	Bio             string `json:"bio"`
	Specialties     string `json:"specialties"`
	ExperienceYears int    `json:"experience_years"`
	Languages       string `json:"languages"`
	Fee             string `json:"fee"`
}

// FullName returns the professional's display name
func (p *ProfessionalSummary) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// DisplaySpecialty coalesces the flat and nested specialty fields.
func (p *ProfessionalSummary) DisplaySpecialty() string {
	if p.Specialty != "" {
		return p.Specialty
	}
	if p.Profile != nil && p.Profile.Specialties != "" {
		return p.Profile.Specialties
	}
	return "General Law"
}

// Availability is a professional's recurring weekly consultation slot
type Availability struct {
	ID        int    `json:"id"`
	Lawyer    int    `json:"lawyer"`
	DayOfWeek string `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}
