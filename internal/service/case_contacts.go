package service

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/dto"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
	appErrors "github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/errors"
)

type caseRelatedStore interface {
	ListContacts(ctx context.Context, exec sqlx.ExtContext, caseID int64) ([]models.Contact, error)
	GetContact(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Contact, error)
	CreateContact(ctx context.Context, exec sqlx.ExtContext, contact *models.Contact) error
	UpdateContact(ctx context.Context, exec sqlx.ExtContext, contact *models.Contact) error
	ListEqualityBodyCorrespondence(ctx context.Context, exec sqlx.ExtContext, caseID int64) ([]models.EqualityBodyCorrespondence, error)
	GetEqualityBodyCorrespondence(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.EqualityBodyCorrespondence, error)
	CreateEqualityBodyCorrespondence(ctx context.Context, exec sqlx.ExtContext, item *models.EqualityBodyCorrespondence) error
	UpdateEqualityBodyCorrespondence(ctx context.Context, exec sqlx.ExtContext, item *models.EqualityBodyCorrespondence) error
}

func createdBy(user models.UserHandle) *string {
	if user.ID == "" {
		return nil
	}
	id := user.ID
	return &id
}

// ListContacts returns the live contacts of a case.
func (s *CaseService) ListContacts(ctx context.Context, caseID int64) ([]models.Contact, error) {
	if _, err := s.liveCase(ctx, nil, caseID); err != nil {
		return nil, err
	}
	contacts, err := s.related.ListContacts(ctx, nil, caseID)
	if err != nil {
		return nil, storeError(err, "failed to list contacts")
	}
	return contacts, nil
}

// CreateContact adds a contact to a case.
func (s *CaseService) CreateContact(ctx context.Context, caseID int64, req dto.ContactRequest, user models.UserHandle) (*models.Contact, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	contact := models.Contact{
		CaseID:    caseID,
		Name:      strings.TrimSpace(req.Name),
		JobTitle:  strings.TrimSpace(req.JobTitle),
		Email:     strings.TrimSpace(req.Email),
		Preferred: req.Preferred,
		CreatedBy: createdBy(user),
	}
	if contact.Preferred == "" {
		contact.Preferred = models.ContactPreferredUnknown
	}
	var batch *EventBatch
	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := s.lockedCase(ctx, tx, caseID); err != nil {
			return err
		}
		if err := s.related.CreateContact(ctx, tx, &contact); err != nil {
			return storeError(err, "failed to create contact")
		}
		batch = s.events.Begin(tx, user)
		return batch.Created(ctx, models.ContentContact, contact.ID, contact)
	})
	if err != nil {
		return nil, err
	}
	s.events.Publish(ctx, batch)
	return &contact, nil
}

// UpdateContact is a versioned contact edit.
func (s *CaseService) UpdateContact(ctx context.Context, caseID, contactID int64, req dto.UpdateContactRequest, user models.UserHandle) (*models.Contact, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	return s.writeContact(ctx, caseID, contactID, req.Version, user, func(c *models.Contact) {
		c.Name = strings.TrimSpace(req.Name)
		c.JobTitle = strings.TrimSpace(req.JobTitle)
		c.Email = strings.TrimSpace(req.Email)
		if req.Preferred != "" {
			c.Preferred = req.Preferred
		}
	})
}

// DeleteContact soft deletes a contact.
func (s *CaseService) DeleteContact(ctx context.Context, caseID, contactID int64, req dto.VersionRequest, user models.UserHandle) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err)
	}
	_, err := s.writeContact(ctx, caseID, contactID, req.Version, user, func(c *models.Contact) {
		c.IsDeleted = true
	})
	return err
}

func (s *CaseService) writeContact(ctx context.Context, caseID, contactID int64, version int, user models.UserHandle, apply func(*models.Contact)) (*models.Contact, error) {
	var batch *EventBatch
	var contact models.Contact
	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := s.lockedCase(ctx, tx, caseID); err != nil {
			return err
		}
		current, err := s.related.GetContact(ctx, tx, contactID)
		if err != nil {
			return storeError(err, "contact")
		}
		if current.CaseID != caseID || current.IsDeleted {
			return appErrors.Clone(appErrors.ErrNotFound, "contact: not found")
		}
		if err := checkVersion(current.Version, version, "contact"); err != nil {
			return err
		}
		contact = *current
		apply(&contact)
		if err := s.related.UpdateContact(ctx, tx, &contact); err != nil {
			return versionedError(err, "failed to update contact")
		}
		batch = s.events.Begin(tx, user)
		if contact.IsDeleted {
			return batch.Deleted(ctx, models.ContentContact, contact.ID, contact)
		}
		return batch.Updated(ctx, models.ContentContact, contact.ID, *current, contact)
	})
	if err != nil {
		return nil, err
	}
	s.events.Publish(ctx, batch)
	return &contact, nil
}

// ListEqualityBodyCorrespondence returns the live correspondence of a case,
// optionally only the items still outstanding.
func (s *CaseService) ListEqualityBodyCorrespondence(ctx context.Context, caseID int64, outstandingOnly bool) ([]models.EqualityBodyCorrespondence, error) {
	if _, err := s.liveCase(ctx, nil, caseID); err != nil {
		return nil, err
	}
	items, err := s.related.ListEqualityBodyCorrespondence(ctx, nil, caseID)
	if err != nil {
		return nil, storeError(err, "failed to list equality body correspondence")
	}
	if !outstandingOnly {
		return items, nil
	}
	outstanding := make([]models.EqualityBodyCorrespondence, 0, len(items))
	for _, item := range items {
		if item.Status == models.EqualityBodyOutstanding {
			outstanding = append(outstanding, item)
		}
	}
	return outstanding, nil
}

// CreateEqualityBodyCorrespondence records a new message, outstanding until
// resolved.
func (s *CaseService) CreateEqualityBodyCorrespondence(ctx context.Context, caseID int64, req dto.EqualityBodyCorrespondenceRequest, user models.UserHandle) (*models.EqualityBodyCorrespondence, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	item := models.EqualityBodyCorrespondence{
		CaseID:     caseID,
		Type:       req.Type,
		Status:     models.EqualityBodyOutstanding,
		Message:    req.Message,
		Notes:      req.Notes,
		ZendeskURL: req.ZendeskURL,
		CreatedBy:  createdBy(user),
	}
	if item.Type == "" {
		item.Type = models.EqualityBodyQuestion
	}
	var batch *EventBatch
	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := s.lockedCase(ctx, tx, caseID); err != nil {
			return err
		}
		if err := s.related.CreateEqualityBodyCorrespondence(ctx, tx, &item); err != nil {
			return storeError(err, "failed to create equality body correspondence")
		}
		batch = s.events.Begin(tx, user)
		return batch.Created(ctx, models.ContentEqualityBodyCorrespondence, item.ID, item)
	})
	if err != nil {
		return nil, err
	}
	s.events.Publish(ctx, batch)
	return &item, nil
}

// UpdateEqualityBodyCorrespondence is a versioned edit of one item.
func (s *CaseService) UpdateEqualityBodyCorrespondence(ctx context.Context, caseID, itemID int64, req dto.UpdateEqualityBodyCorrespondenceRequest, user models.UserHandle) (*models.EqualityBodyCorrespondence, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	var batch *EventBatch
	var item models.EqualityBodyCorrespondence
	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := s.lockedCase(ctx, tx, caseID); err != nil {
			return err
		}
		current, err := s.related.GetEqualityBodyCorrespondence(ctx, tx, itemID)
		if err != nil {
			return storeError(err, "equality body correspondence")
		}
		if current.CaseID != caseID || current.IsDeleted {
			return appErrors.Clone(appErrors.ErrNotFound, "equality body correspondence: not found")
		}
		if err := checkVersion(current.Version, req.Version, "equality body correspondence"); err != nil {
			return err
		}
		item = *current
		item.Status = req.Status
		item.Message = req.Message
		item.Notes = req.Notes
		item.ZendeskURL = req.ZendeskURL
		if err := s.related.UpdateEqualityBodyCorrespondence(ctx, tx, &item); err != nil {
			return versionedError(err, "failed to update equality body correspondence")
		}
		batch = s.events.Begin(tx, user)
		return batch.Updated(ctx, models.ContentEqualityBodyCorrespondence, item.ID, *current, item)
	})
	if err != nil {
		return nil, err
	}
	s.events.Publish(ctx, batch)
	return &item, nil
}
