package entities

// Directory entities are read-only views owned by the identity & directory
// collaborator. The booking engine looks them up by id and never writes them.

// Specialty is a medical specialty doctors belong to
type Specialty struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Room is a physical consultation room
type Room struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Floor string `json:"floor,omitempty"`
}

// Doctor carries the directory data the engine needs: identity, specialty
// membership and the published fee per appointment type.
type Doctor struct {
	ID          string                      `json:"id"`
	FullName    string                      `json:"full_name"`
	SpecialtyID string                      `json:"specialty_id"`
	Specialty   string                      `json:"specialty"`
	Fees        map[AppointmentType]float64 `json:"fees"`
}

// FeeFor returns the doctor's published fee for a visit type
func (d *Doctor) FeeFor(t AppointmentType) float64 {
	return d.Fees[t]
}
