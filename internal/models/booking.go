package models

// BookingStatus is the server-defined booking lifecycle state
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// Booking is a scheduled consultation as returned by the booking list
// endpoints. Created and mutated only server-side; the client mirrors it.
type Booking struct {
	ID         int           `json:"id"`
	LawyerName string        `json:"lawyer_name"`
	ClientName string        `json:"client_name,omitempty"`
	Date       string        `json:"date"`
	Time       string        `json:"time"`
	Status     BookingStatus `json:"status"`

	// The backend has shipped both field names for the lawyer's specialty;
	// accept either and coalesce via Specialty().
	Specialization string `json:"specialization,omitempty"`
	SpecialtyField string `json:"specialty,omitempty"`

	// Embedded counterpart contact details for the details overlay
	LawyerEmail string `json:"lawyer_email,omitempty"`
	LawyerPhone string `json:"lawyer_phone,omitempty"`
}

// Specialty returns the lawyer's specialty regardless of which field name the
// server used.
func (b *Booking) Specialty() string {
	if b.Specialization != "" {
		return b.Specialization
	}
	return b.SpecialtyField
}

// LawyerDetails is the read-only counterpart contact card shown by the
// details overlay. Assembled from fields already embedded in the booking;
// never fetched.
type LawyerDetails struct {
	Name      string
	Specialty string
	Email     string
	Phone     string
}

// Details extracts the counterpart contact card from the booking record
func (b *Booking) Details() LawyerDetails {
	return LawyerDetails{
		Name:      b.LawyerName,
		Specialty: b.Specialty(),
		Email:     b.LawyerEmail,
		Phone:     b.LawyerPhone,
	}
}
