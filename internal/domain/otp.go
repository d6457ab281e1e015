package domain

import "time"

// OtpRecord holds one pending verification code per email. The code is
// stored as a bcrypt hash; a new registration for the same email
// replaces any prior record.
type OtpRecord struct {
	Email     string
	CodeHash  string
	ExpiresAt time.Time
}
