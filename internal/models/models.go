package models

import (
	"time"

	"github.com/google/uuid"
)

// Role values for a profile within its tenant.
// admin: tenant-wide visibility, can manage users and case data
// member: restricted to self-created cases
// system: platform-level bookkeeping role, distinct from the email-based super-admin
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleSystem = "system"
)

// Tenant is the root of data isolation. Every other scheduling entity
// references a tenant directly or through its parent case.
// Deactivation is a soft gate (is_active) checked at authentication time;
// it never cascades into deletes.
type Tenant struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Name           string    `json:"name" gorm:"not null" validate:"required,min=2,max=255"`
	MailboxAddress string    `json:"mailbox_address" gorm:"unique;not null;size:255"`
	IsActive       bool      `json:"is_active" gorm:"default:true;index"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Identity is an auth account. Profiles reference identities one-to-one by
// sharing the same ID. Kept separate from Profile so that an identity can
// exist before it is assigned to any tenant.
type Identity struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Email        string    `json:"email" gorm:"unique;not null;index" validate:"required,email"`
	PasswordHash string    `json:"-" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName avoids clashing with any shared users table.
func (Identity) TableName() string {
	return "auth_identities"
}

// Profile maps an identity to tenant membership, role and account flags.
// TenantID is nullable: an identity may be registered but not yet assigned.
type Profile struct {
	ID                 uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	TenantID           *uuid.UUID `json:"tenant_id" gorm:"type:uuid;index"`
	Role               string     `json:"role" gorm:"size:50;not null;default:'member'" validate:"oneof=admin member system"`
	IsActive           bool       `json:"is_active" gorm:"default:true"`
	ForcePasswordReset bool       `json:"force_password_reset" gorm:"default:false"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Case is a recruitment record owned by exactly one tenant. CreatedBy
// establishes member-level ownership for the visibility rules. Stage and
// status are free-form strings mutated by staff actions.
type Case struct {
	ID            uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	PublicID      string     `json:"public_id" gorm:"uniqueIndex;size:64"`
	TenantID      *uuid.UUID `json:"tenant_id" gorm:"type:uuid;index"`
	CreatedBy     *uuid.UUID `json:"created_by" gorm:"type:uuid;index"`
	Title         string     `json:"title" gorm:"not null"`
	CandidateName string     `json:"candidate_name"`
	RawEmailBody  string     `json:"raw_email_body,omitempty" gorm:"type:text"`
	Stage         string     `json:"stage"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Slot is a proposed interview window for a case. A slot id alone carries no
// tenant information; authorization always walks slot -> case -> tenant.
type Slot struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	CaseID    uuid.UUID `json:"case_id" gorm:"type:uuid;not null;index"`
	StartTime time.Time `json:"start_time" gorm:"not null"`
	EndTime   time.Time `json:"end_time" gorm:"not null"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`

	Availabilities []CandidateAvailability `json:"-" gorm:"foreignKey:SlotID;constraint:OnDelete:CASCADE"`
}

// CandidateAvailability records one candidate's claim of being free for one
// slot. The (slot_id, email) unique index is the serialization point for
// concurrent duplicate submissions.
type CandidateAvailability struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	CaseID        uuid.UUID `json:"case_id" gorm:"type:uuid;not null;index"`
	SlotID        uuid.UUID `json:"slot_id" gorm:"type:uuid;not null;uniqueIndex:idx_availability_slot_email"`
	CandidateName string    `json:"candidate_name"`
	Email         string    `json:"email" gorm:"size:255;uniqueIndex:idx_availability_slot_email"`
	Status        string    `json:"status" gorm:"size:50;default:'available'"`
	CreatedAt     time.Time `json:"created_at"`
}
