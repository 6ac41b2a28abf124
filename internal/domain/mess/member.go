package mess

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/shared"
)

// MemberRole is the role a member plays inside their mess
type MemberRole string

const (
	MemberRoleManager MemberRole = "manager"
	MemberRoleMember  MemberRole = "member"
)

func (r MemberRole) IsValid() bool {
	return r == MemberRoleManager || r == MemberRoleMember
}

// Member is a person eating in a mess. Email and phone are unique across all
// messes; a member belongs to exactly one mess at a time.
type Member struct {
	shared.TenantAggregateRoot
	Name     string
	Email    string
	Phone    string
	Role     MemberRole
	IsActive bool
	JoinedAt time.Time
}

// NewMember creates an active member with the plain member role
func NewMember(tenantID uuid.UUID, name, email, phone string) (*Member, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID is required")
	}
	m := &Member{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Role:                MemberRoleMember,
		IsActive:            true,
		JoinedAt:            time.Now(),
	}
	if err := m.setProfile(name, email, phone); err != nil {
		return nil, err
	}
	m.AddDomainEvent(NewMemberJoinedEvent(m))
	return m, nil
}

// Update replaces the member's profile fields
func (m *Member) Update(name, email, phone string) error {
	if err := m.setProfile(name, email, phone); err != nil {
		return err
	}
	m.Touch()
	m.IncrementVersion()
	return nil
}

func (m *Member) setProfile(name, email, phone string) error {
	name, err := normalizeName(name, 100)
	if err != nil {
		return err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	phone = normalizePhone(phone)
	if email == "" && phone == "" {
		return shared.NewDomainError("CONTACT_REQUIRED", "Member needs an email or a phone number")
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return shared.NewDomainError("INVALID_EMAIL", "Invalid email address")
		}
	}
	if phone != "" && (len(phone) < 6 || len(phone) > 20) {
		return shared.NewDomainError("INVALID_PHONE", "Phone number must be 6-20 digits")
	}
	m.Name = name
	m.Email = email
	m.Phone = phone
	return nil
}

func (m *Member) Activate() error {
	if m.IsActive {
		return shared.NewDomainError("INVALID_STATE", "Member is already active")
	}
	m.IsActive = true
	m.Touch()
	m.IncrementVersion()
	return nil
}

// Deactivate excludes the member from the per-head split of shared costs
func (m *Member) Deactivate() error {
	if !m.IsActive {
		return shared.NewDomainError("INVALID_STATE", "Member is already inactive")
	}
	m.IsActive = false
	m.Touch()
	m.IncrementVersion()
	return nil
}

func (m *Member) PromoteToManager() error {
	if m.Role == MemberRoleManager {
		return shared.NewDomainError("INVALID_STATE", "Member is already a manager")
	}
	if !m.IsActive {
		return shared.NewDomainError("INVALID_STATE", "Inactive members cannot manage a mess")
	}
	m.Role = MemberRoleManager
	m.Touch()
	m.IncrementVersion()
	return nil
}

func (m *Member) DemoteToMember() error {
	if m.Role == MemberRoleMember {
		return shared.NewDomainError("INVALID_STATE", "Member is not a manager")
	}
	m.Role = MemberRoleMember
	m.Touch()
	m.IncrementVersion()
	return nil
}

func (m *Member) IsManager() bool {
	return m.Role == MemberRoleManager
}

// normalizePhone keeps digits and a leading '+'
func normalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	var b strings.Builder
	for i, r := range phone {
		if r == '+' && i == 0 {
			b.WriteRune(r)
			continue
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
