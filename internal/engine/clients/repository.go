package clients

import (
	"database/sql"
	"time"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(client *Client) error {
	_, err := r.db.Exec(`
		INSERT INTO clients (id, org_id, company_name, status, lead_source, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, client.ID, client.OrganizationID, client.CompanyName, client.Status, client.LeadSource,
		client.CreatedAt, client.UpdatedAt)
	return err
}

func (r *Repository) GetByID(id string) (*Client, error) {
	c := &Client{}
	err := r.db.QueryRow(`
		SELECT id, org_id, company_name, status, lead_source, created_at, updated_at
		FROM clients WHERE id = ?
	`, id).Scan(&c.ID, &c.OrganizationID, &c.CompanyName, &c.Status, &c.LeadSource, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func (r *Repository) List(orgID, status string, limit, offset int) ([]*Client, error) {
	query := `
		SELECT id, org_id, company_name, status, lead_source, created_at, updated_at
		FROM clients WHERE org_id = ?
	`
	args := []interface{}{orgID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []*Client
	for rows.Next() {
		c := &Client{}
		if err := rows.Scan(&c.ID, &c.OrganizationID, &c.CompanyName, &c.Status, &c.LeadSource,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (r *Repository) Update(client *Client) error {
	client.UpdatedAt = time.Now().Unix()
	_, err := r.db.Exec(`
		UPDATE clients SET company_name = ?, status = ?, lead_source = ?, updated_at = ?
		WHERE id = ?
	`, client.CompanyName, client.Status, client.LeadSource, client.UpdatedAt, client.ID)
	return err
}

func (r *Repository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM clients WHERE id = ?`, id)
	return err
}

// ClientOrg reports the owning organization of a client, "" when the client
// does not exist. Other entity services use this for scope checks on their
// client references.
func (r *Repository) ClientOrg(clientID string) (string, error) {
	var orgID string
	err := r.db.QueryRow(`SELECT org_id FROM clients WHERE id = ?`, clientID).Scan(&orgID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return orgID, nil
}

// Contacts

func (r *Repository) CreateContact(contact *Contact) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertContactTx(tx, contact); err != nil {
		return err
	}
	return tx.Commit()
}

// insertContactTx unsets the prior primary inside the same transaction so no
// reader ever observes two primaries for one client.
func insertContactTx(tx *sql.Tx, contact *Contact) error {
	if contact.IsPrimary {
		if _, err := tx.Exec(`UPDATE client_contacts SET is_primary = 0 WHERE client_id = ? AND is_primary = 1`, contact.ClientID); err != nil {
			return err
		}
	}
	_, err := tx.Exec(`
		INSERT INTO client_contacts (id, org_id, client_id, name, email, phone, title, is_primary, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, contact.ID, contact.OrganizationID, contact.ClientID, contact.Name, contact.Email,
		contact.Phone, contact.Title, contact.IsPrimary, contact.CreatedAt, contact.UpdatedAt)
	return err
}

func (r *Repository) BulkCreateContacts(contacts []*Contact) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, contact := range contacts {
		if err := insertContactTx(tx, contact); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *Repository) GetContactByID(id string) (*Contact, error) {
	c := &Contact{}
	err := r.db.QueryRow(`
		SELECT id, org_id, client_id, name, email, phone, title, is_primary, created_at, updated_at
		FROM client_contacts WHERE id = ?
	`, id).Scan(&c.ID, &c.OrganizationID, &c.ClientID, &c.Name, &c.Email, &c.Phone, &c.Title,
		&c.IsPrimary, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func (r *Repository) ListContacts(clientID string) ([]*Contact, error) {
	rows, err := r.db.Query(`
		SELECT id, org_id, client_id, name, email, phone, title, is_primary, created_at, updated_at
		FROM client_contacts WHERE client_id = ?
		ORDER BY is_primary DESC, created_at ASC
	`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []*Contact
	for rows.Next() {
		c := &Contact{}
		if err := rows.Scan(&c.ID, &c.OrganizationID, &c.ClientID, &c.Name, &c.Email, &c.Phone,
			&c.Title, &c.IsPrimary, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

func (r *Repository) UpdateContact(contact *Contact) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if contact.IsPrimary {
		if _, err := tx.Exec(`UPDATE client_contacts SET is_primary = 0 WHERE client_id = ? AND is_primary = 1 AND id != ?`, contact.ClientID, contact.ID); err != nil {
			return err
		}
	}

	contact.UpdatedAt = time.Now().Unix()
	if _, err := tx.Exec(`
		UPDATE client_contacts SET name = ?, email = ?, phone = ?, title = ?, is_primary = ?, updated_at = ?
		WHERE id = ?
	`, contact.Name, contact.Email, contact.Phone, contact.Title, contact.IsPrimary,
		contact.UpdatedAt, contact.ID); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *Repository) DeleteContact(id string) error {
	_, err := r.db.Exec(`DELETE FROM client_contacts WHERE id = ?`, id)
	return err
}

// Properties

func (r *Repository) CreateProperty(property *Property) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertPropertyTx(tx, property); err != nil {
		return err
	}
	return tx.Commit()
}

func insertPropertyTx(tx *sql.Tx, property *Property) error {
	if property.IsPrimary {
		if _, err := tx.Exec(`UPDATE client_properties SET is_primary = 0 WHERE client_id = ? AND is_primary = 1`, property.ClientID); err != nil {
			return err
		}
	}
	_, err := tx.Exec(`
		INSERT INTO client_properties (id, org_id, client_id, address_line1, address_line2, city, postal_code, country, is_primary, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, property.ID, property.OrganizationID, property.ClientID, property.AddressLine1,
		property.AddressLine2, property.City, property.PostalCode, property.Country,
		property.IsPrimary, property.CreatedAt, property.UpdatedAt)
	return err
}

func (r *Repository) BulkCreateProperties(properties []*Property) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, property := range properties {
		if err := insertPropertyTx(tx, property); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *Repository) GetPropertyByID(id string) (*Property, error) {
	p := &Property{}
	err := r.db.QueryRow(`
		SELECT id, org_id, client_id, address_line1, address_line2, city, postal_code, country, is_primary, created_at, updated_at
		FROM client_properties WHERE id = ?
	`, id).Scan(&p.ID, &p.OrganizationID, &p.ClientID, &p.AddressLine1, &p.AddressLine2, &p.City,
		&p.PostalCode, &p.Country, &p.IsPrimary, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (r *Repository) ListProperties(clientID string) ([]*Property, error) {
	rows, err := r.db.Query(`
		SELECT id, org_id, client_id, address_line1, address_line2, city, postal_code, country, is_primary, created_at, updated_at
		FROM client_properties WHERE client_id = ?
		ORDER BY is_primary DESC, created_at ASC
	`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var properties []*Property
	for rows.Next() {
		p := &Property{}
		if err := rows.Scan(&p.ID, &p.OrganizationID, &p.ClientID, &p.AddressLine1, &p.AddressLine2,
			&p.City, &p.PostalCode, &p.Country, &p.IsPrimary, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		properties = append(properties, p)
	}
	return properties, rows.Err()
}

func (r *Repository) UpdateProperty(property *Property) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if property.IsPrimary {
		if _, err := tx.Exec(`UPDATE client_properties SET is_primary = 0 WHERE client_id = ? AND is_primary = 1 AND id != ?`, property.ClientID, property.ID); err != nil {
			return err
		}
	}

	property.UpdatedAt = time.Now().Unix()
	if _, err := tx.Exec(`
		UPDATE client_properties SET address_line1 = ?, address_line2 = ?, city = ?, postal_code = ?, country = ?, is_primary = ?, updated_at = ?
		WHERE id = ?
	`, property.AddressLine1, property.AddressLine2, property.City, property.PostalCode,
		property.Country, property.IsPrimary, property.UpdatedAt, property.ID); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *Repository) DeleteProperty(id string) error {
	_, err := r.db.Exec(`DELETE FROM client_properties WHERE id = ?`, id)
	return err
}
