package repositories

import (
	"database/sql"
	"time"

	"opsdesk/internal/platform/models"
)

const orgColumns = `id, external_id, name, email, phone, address_line1, address_line2, city,
	postal_code, country, timezone, billing_account_id, revenue_target, client_count,
	esignatures_sent, esignature_reset_at, metadata_completed, owner_user_id,
	created_at, updated_at, deleted_at`

type OrganizationRepository struct {
	db *sql.DB
}

func NewOrganizationRepository(db *sql.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) BeginTx() (*sql.Tx, error) {
	return r.db.Begin()
}

func (r *OrganizationRepository) Create(org *models.Organization) error {
	_, err := r.db.Exec(`
		INSERT INTO organizations (`+orgColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, org.ID, org.ExternalID, org.Name, org.Email, org.Phone, org.AddressLine1, org.AddressLine2,
		org.City, org.PostalCode, org.Country, org.Timezone, org.BillingAccountID, org.RevenueTarget,
		org.ClientCount, org.ESignaturesSent, org.ESignatureResetAt, org.MetadataCompleted,
		org.OwnerUserID, org.CreatedAt, org.UpdatedAt, org.DeletedAt)
	return err
}

func scanOrg(s interface{ Scan(dest ...interface{}) error }) (*models.Organization, error) {
	org := &models.Organization{}
	err := s.Scan(&org.ID, &org.ExternalID, &org.Name, &org.Email, &org.Phone, &org.AddressLine1,
		&org.AddressLine2, &org.City, &org.PostalCode, &org.Country, &org.Timezone,
		&org.BillingAccountID, &org.RevenueTarget, &org.ClientCount, &org.ESignaturesSent,
		&org.ESignatureResetAt, &org.MetadataCompleted, &org.OwnerUserID,
		&org.CreatedAt, &org.UpdatedAt, &org.DeletedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return org, nil
}

func (r *OrganizationRepository) GetByID(id string) (*models.Organization, error) {
	row := r.db.QueryRow(`SELECT `+orgColumns+` FROM organizations WHERE id = ? AND deleted_at IS NULL`, id)
	return scanOrg(row)
}

func (r *OrganizationRepository) GetByExternalID(externalID string) (*models.Organization, error) {
	row := r.db.QueryRow(`SELECT `+orgColumns+` FROM organizations WHERE external_id = ? AND deleted_at IS NULL`, externalID)
	return scanOrg(row)
}

func (r *OrganizationRepository) Update(org *models.Organization) error {
	org.UpdatedAt = time.Now().Unix()
	_, err := r.db.Exec(`
		UPDATE organizations SET
			name = ?, email = ?, phone = ?, address_line1 = ?, address_line2 = ?, city = ?,
			postal_code = ?, country = ?, timezone = ?, billing_account_id = ?, revenue_target = ?,
			metadata_completed = ?, owner_user_id = ?, updated_at = ?
		WHERE id = ?
	`, org.Name, org.Email, org.Phone, org.AddressLine1, org.AddressLine2, org.City,
		org.PostalCode, org.Country, org.Timezone, org.BillingAccountID, org.RevenueTarget,
		org.MetadataCompleted, org.OwnerUserID, org.UpdatedAt, org.ID)
	return err
}

func (r *OrganizationRepository) SoftDelete(id string) error {
	now := time.Now().Unix()
	_, err := r.db.Exec(`UPDATE organizations SET deleted_at = ?, updated_at = ? WHERE id = ?`, now, now, id)
	return err
}

func (r *OrganizationRepository) AdjustClientCount(id string, delta int) error {
	_, err := r.db.Exec(`UPDATE organizations SET client_count = MAX(client_count + ?, 0) WHERE id = ?`, delta, id)
	return err
}

func (r *OrganizationRepository) IncrementESignatures(id string) error {
	_, err := r.db.Exec(`UPDATE organizations SET esignatures_sent = esignatures_sent + 1 WHERE id = ?`, id)
	return err
}

func (r *OrganizationRepository) ResetESignatures(id string, resetAt int64) error {
	_, err := r.db.Exec(`UPDATE organizations SET esignatures_sent = 0, esignature_reset_at = ? WHERE id = ?`, resetAt, id)
	return err
}

func (r *OrganizationRepository) ListActive() ([]*models.Organization, error) {
	rows, err := r.db.Query(`SELECT ` + orgColumns + ` FROM organizations WHERE deleted_at IS NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []*models.Organization
	for rows.Next() {
		org, err := scanOrg(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, external_id, email, first_name, last_name, image_url, created_at, updated_at, deleted_at`

func (r *UserRepository) Create(user *models.User) error {
	_, err := r.db.Exec(`
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, user.ID, user.ExternalID, user.Email, user.FirstName, user.LastName, user.ImageURL,
		user.CreatedAt, user.UpdatedAt, user.DeletedAt)
	return err
}

func scanUser(s interface{ Scan(dest ...interface{}) error }) (*models.User, error) {
	user := &models.User{}
	err := s.Scan(&user.ID, &user.ExternalID, &user.Email, &user.FirstName, &user.LastName,
		&user.ImageURL, &user.CreatedAt, &user.UpdatedAt, &user.DeletedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) GetByID(id string) (*models.User, error) {
	row := r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ? AND deleted_at IS NULL`, id)
	return scanUser(row)
}

func (r *UserRepository) GetByExternalID(externalID string) (*models.User, error) {
	row := r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE external_id = ? AND deleted_at IS NULL`, externalID)
	return scanUser(row)
}

func (r *UserRepository) Update(user *models.User) error {
	user.UpdatedAt = time.Now().Unix()
	_, err := r.db.Exec(`
		UPDATE users SET email = ?, first_name = ?, last_name = ?, image_url = ?, updated_at = ?
		WHERE id = ?
	`, user.Email, user.FirstName, user.LastName, user.ImageURL, user.UpdatedAt, user.ID)
	return err
}

func (r *UserRepository) SoftDelete(id string) error {
	now := time.Now().Unix()
	_, err := r.db.Exec(`UPDATE users SET deleted_at = ?, updated_at = ? WHERE id = ?`, now, now, id)
	return err
}

type MembershipRepository struct {
	db *sql.DB
}

func NewMembershipRepository(db *sql.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) Create(m *models.Membership) error {
	_, err := r.db.Exec(`
		INSERT INTO memberships (id, organization_id, user_id, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.ID, m.OrganizationID, m.UserID, m.Role, m.CreatedAt, m.UpdatedAt)
	return err
}

func (r *MembershipRepository) Get(orgID, userID string) (*models.Membership, error) {
	m := &models.Membership{}
	err := r.db.QueryRow(`
		SELECT id, organization_id, user_id, role, created_at, updated_at
		FROM memberships WHERE organization_id = ? AND user_id = ?
	`, orgID, userID).Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.Role, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

func (r *MembershipRepository) ListByOrg(orgID string) ([]*models.Membership, error) {
	rows, err := r.db.Query(`
		SELECT m.id, m.organization_id, m.user_id, m.role, m.created_at, m.updated_at,
		       u.id, u.external_id, u.email, u.first_name, u.last_name, u.image_url,
		       u.created_at, u.updated_at, u.deleted_at
		FROM memberships m
		JOIN users u ON u.id = m.user_id
		WHERE m.organization_id = ? AND u.deleted_at IS NULL
		ORDER BY m.created_at ASC
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*models.Membership
	for rows.Next() {
		m := &models.Membership{User: &models.User{}}
		if err := rows.Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.Role, &m.CreatedAt, &m.UpdatedAt,
			&m.User.ID, &m.User.ExternalID, &m.User.Email, &m.User.FirstName, &m.User.LastName,
			&m.User.ImageURL, &m.User.CreatedAt, &m.User.UpdatedAt, &m.User.DeletedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *MembershipRepository) Delete(orgID, userID string) error {
	_, err := r.db.Exec(`DELETE FROM memberships WHERE organization_id = ? AND user_id = ?`, orgID, userID)
	return err
}

func (r *MembershipRepository) DeleteByOrg(orgID string) error {
	_, err := r.db.Exec(`DELETE FROM memberships WHERE organization_id = ?`, orgID)
	return err
}

func (r *MembershipRepository) DeleteByUser(userID string) error {
	_, err := r.db.Exec(`DELETE FROM memberships WHERE user_id = ?`, userID)
	return err
}
