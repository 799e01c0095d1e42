package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"opsdesk/internal/platform/models"
	"opsdesk/internal/platform/repositories"
)

// Service applies identity-provider webhook events to the local org, user and
// membership records. Every handler is idempotent: provider delivery is
// at-least-once and unordered, so a missing target is logged and swallowed
// and a duplicate create returns the existing record.
type Service struct {
	orgs        *repositories.OrganizationRepository
	users       *repositories.UserRepository
	memberships *repositories.MembershipRepository
}

func NewService(orgs *repositories.OrganizationRepository, users *repositories.UserRepository, memberships *repositories.MembershipRepository) *Service {
	return &Service{orgs: orgs, users: users, memberships: memberships}
}

type MemberPayload struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type OrgPayload struct {
	ID      string          `json:"id"` // provider-side id
	Name    string          `json:"name"`
	Owner   string          `json:"owner"` // provider-side user id
	Members []MemberPayload `json:"members"`
}

type EmailAddressPayload struct {
	EmailAddress string `json:"email_address"`
}

type UserPayload struct {
	ID             string                `json:"id"`
	FirstName      string                `json:"first_name"`
	LastName       string                `json:"last_name"`
	EmailAddresses []EmailAddressPayload `json:"email_addresses"`
	ImageURL       string                `json:"image_url"`
}

func primaryEmail(addresses []EmailAddressPayload) string {
	if len(addresses) == 0 {
		return ""
	}
	return addresses[0].EmailAddress
}

// SyncUserCreated upserts a user from a provider event. An existing external
// id returns the existing record unchanged.
func (s *Service) SyncUserCreated(payload *UserPayload) (*models.User, error) {
	existing, err := s.users.GetByExternalID(payload.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now().Unix()
	user := &models.User{
		ID:         "usr_" + uuid.NewString(),
		ExternalID: payload.ID,
		Email:      primaryEmail(payload.EmailAddresses),
		FirstName:  payload.FirstName,
		LastName:   payload.LastName,
		ImageURL:   payload.ImageURL,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) SyncUserUpdated(payload *UserPayload) error {
	user, err := s.users.GetByExternalID(payload.ID)
	if err != nil {
		return err
	}
	if user == nil {
		log.Warn().Str("external_id", payload.ID).Msg("User update for unknown user, ignoring")
		return nil
	}

	user.Email = primaryEmail(payload.EmailAddresses)
	user.FirstName = payload.FirstName
	user.LastName = payload.LastName
	user.ImageURL = payload.ImageURL
	return s.users.Update(user)
}

func (s *Service) SyncUserDeleted(externalID string) error {
	user, err := s.users.GetByExternalID(externalID)
	if err != nil {
		return err
	}
	if user == nil {
		log.Warn().Str("external_id", externalID).Msg("User delete for unknown user, ignoring")
		return nil
	}

	if err := s.memberships.DeleteByUser(user.ID); err != nil {
		return err
	}
	return s.users.SoftDelete(user.ID)
}

// SyncOrgCreated upserts an organization and its memberships. Members are
// referenced by provider-side user ids; unknown members are skipped with a
// log line so an out-of-order user event can fill them in later.
func (s *Service) SyncOrgCreated(payload *OrgPayload) (*models.Organization, error) {
	existing, err := s.orgs.GetByExternalID(payload.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now().Unix()
	org := &models.Organization{
		ID:                "org_" + uuid.NewString(),
		ExternalID:        payload.ID,
		Name:              payload.Name,
		Timezone:          "UTC",
		ESignatureResetAt: now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if payload.Owner != "" {
		owner, err := s.users.GetByExternalID(payload.Owner)
		if err != nil {
			return nil, err
		}
		if owner != nil {
			org.OwnerUserID = owner.ID
		} else {
			log.Warn().Str("external_id", payload.Owner).Msg("Org owner not yet synced")
		}
	}

	if err := s.orgs.Create(org); err != nil {
		return nil, err
	}

	if err := s.syncMembers(org, payload.Members); err != nil {
		return nil, err
	}
	return org, nil
}

func (s *Service) SyncOrgUpdated(payload *OrgPayload) error {
	org, err := s.orgs.GetByExternalID(payload.ID)
	if err != nil {
		return err
	}
	if org == nil {
		log.Warn().Str("external_id", payload.ID).Msg("Org update for unknown org, ignoring")
		return nil
	}

	org.Name = payload.Name
	if payload.Owner != "" {
		owner, err := s.users.GetByExternalID(payload.Owner)
		if err != nil {
			return err
		}
		if owner != nil {
			org.OwnerUserID = owner.ID
		}
	}
	if err := s.orgs.Update(org); err != nil {
		return err
	}

	if payload.Members != nil {
		if err := s.memberships.DeleteByOrg(org.ID); err != nil {
			return err
		}
		if err := s.syncMembers(org, payload.Members); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) SyncOrgDeleted(externalID string) error {
	org, err := s.orgs.GetByExternalID(externalID)
	if err != nil {
		return err
	}
	if org == nil {
		log.Warn().Str("external_id", externalID).Msg("Org delete for unknown org, ignoring")
		return nil
	}

	if err := s.memberships.DeleteByOrg(org.ID); err != nil {
		return err
	}
	return s.orgs.SoftDelete(org.ID)
}

type MembershipPayload struct {
	Organization string `json:"organization"` // provider-side org id
	UserID       string `json:"user_id"`      // provider-side user id
	Role         string `json:"role"`
}

// SyncMembershipCreated adds a single membership. Duplicate events and events
// referencing not-yet-synced orgs or users are no-ops.
func (s *Service) SyncMembershipCreated(payload *MembershipPayload) error {
	org, err := s.orgs.GetByExternalID(payload.Organization)
	if err != nil {
		return err
	}
	if org == nil {
		log.Warn().Str("external_id", payload.Organization).Msg("Membership for unknown org, ignoring")
		return nil
	}

	user, err := s.users.GetByExternalID(payload.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		log.Warn().Str("external_id", payload.UserID).Msg("Membership for unknown user, ignoring")
		return nil
	}

	existing, err := s.memberships.Get(org.ID, user.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	role := payload.Role
	if role != "admin" {
		role = "member"
	}
	if user.ID == org.OwnerUserID {
		role = "admin"
	}

	now := time.Now().Unix()
	return s.memberships.Create(&models.Membership{
		ID:             "mem_" + uuid.NewString(),
		OrganizationID: org.ID,
		UserID:         user.ID,
		Role:           role,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
}

func (s *Service) SyncMembershipDeleted(payload *MembershipPayload) error {
	org, err := s.orgs.GetByExternalID(payload.Organization)
	if err != nil {
		return err
	}
	user, err := s.users.GetByExternalID(payload.UserID)
	if err != nil {
		return err
	}
	if org == nil || user == nil {
		log.Warn().Str("org", payload.Organization).Str("user", payload.UserID).
			Msg("Membership delete for unknown target, ignoring")
		return nil
	}
	return s.memberships.Delete(org.ID, user.ID)
}

func (s *Service) syncMembers(org *models.Organization, members []MemberPayload) error {
	now := time.Now().Unix()
	for _, member := range members {
		user, err := s.users.GetByExternalID(member.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			log.Warn().Str("external_id", member.UserID).Str("org", org.ID).
				Msg("Member not yet synced, skipping")
			continue
		}

		role := member.Role
		if role != "admin" {
			role = "member"
		}
		if user.ID == org.OwnerUserID {
			role = "admin"
		}

		if err := s.memberships.Create(&models.Membership{
			ID:             "mem_" + uuid.NewString(),
			OrganizationID: org.ID,
			UserID:         user.ID,
			Role:           role,
			CreatedAt:      now,
			UpdatedAt:      now,
		}); err != nil {
			return err
		}
	}
	return nil
}
