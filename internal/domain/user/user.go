package user

import "time"

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// check to see if the role is a known constant

func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	default:
		return false
	}
}

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	PasswordHash string `json:"-"` // never expose hash in JSON
	Role         Role   `json:"role"`

	// student profile fields, all optional at registration
	Department string `json:"department,omitempty"`
	Program    string `json:"program,omitempty"`
	Semester   string `json:"semester,omitempty"`
	Batch      string `json:"batch,omitempty"`
	CNIC       string `json:"cnic,omitempty"`
	Address    string `json:"address,omitempty"`

	Status Status  `json:"status"`
	Avatar *string `json:"-"` // relative path under the upload dir, resolved to a URL by handlers

	VerificationToken *string    `json:"-"` // single use, cleared on verification
	TokenExpires      *time.Time `json:"-"`
	IsEmailVerified   bool       `json:"isEmailVerified"`

	LastLogin *time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// CreateUserRequest carries everything the store needs to insert a row.
// The password is already hashed by the time it gets here.
type CreateUserRequest struct {
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Role         Role

	Department string
	Program    string
	Semester   string
	Batch      string
	CNIC       string
	Address    string

	Avatar            *string
	VerificationToken string
	TokenExpires      time.Time
}
