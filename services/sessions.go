package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/jinzhu/gorm"

	"github.com/marko-code-lab/noiddea-demo-sub002/models"
)

var paymentColumns = map[string]string{
	models.PaymentCash:     "cash_total",
	models.PaymentCard:     "card_total",
	models.PaymentTransfer: "transfer_total",
	models.PaymentOther:    "other_total",
}

type SessionFilter struct {
	UserID   uint
	BranchID uint
	OpenOnly bool
	From     time.Time
	To       time.Time
}

type CloseInput struct {
	ClosingCash *float64 `json:"closing_cash"`
	Notes       string   `json:"notes"`
}

// OpenSession returns the caller's open shift, or starts a new one. An open
// shift past its expiry is closed by the system first. The bool reports
// whether a new shift was created.
func OpenSession(db *gorm.DB, actor Actor, openingCash float64, maxAge time.Duration, now time.Time) (*models.UserSession, bool, error) {
	if openingCash < 0 {
		return nil, false, invalid("opening cash cannot be negative")
	}
	now = now.UTC()

	current, err := CurrentSession(db, actor.UserID)
	switch {
	case err == nil && !current.Expired(now):
		return current, false, nil
	case err == nil:
		if err := closeSession(db, current.ID, nil, "expired", models.ClosedBySystem, now); err != nil {
			return nil, false, err
		}
	case !isNotFound(err):
		return nil, false, err
	}

	session := models.UserSession{
		BusinessID:  actor.BusinessID,
		BranchID:    actor.BranchID,
		UserID:      actor.UserID,
		OpenedAt:    now,
		OpeningCash: openingCash,
	}
	if maxAge > 0 {
		expires := now.Add(maxAge)
		session.ExpiresAt = &expires
	}
	if err := db.Create(&session).Error; err != nil {
		return nil, false, err
	}
	return &session, true, nil
}

// CurrentSession returns the open shift of a user.
func CurrentSession(db *gorm.DB, userID uint) (*models.UserSession, error) {
	var session models.UserSession
	err := db.Where("user_id = ? AND closed_at IS NULL", userID).Order("opened_at desc").First(&session).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, ErrNoOpenSession
		}
		return nil, err
	}
	return &session, nil
}

func GetSession(db *gorm.DB, businessID, id uint) (*models.UserSession, error) {
	var session models.UserSession
	if err := db.Where("business_id = ? AND id = ?", businessID, id).First(&session).Error; err != nil {
		return nil, notFound(err, "session")
	}
	return &session, nil
}

// RecordPayment adds amount to the running total of the method.
func RecordPayment(tx *gorm.DB, sessionID uint, method string, amount float64) error {
	column, ok := paymentColumns[method]
	if !ok {
		return invalid("payment method %q", method)
	}
	res := tx.Model(&models.UserSession{}).
		Where("id = ? AND closed_at IS NULL", sessionID).
		UpdateColumns(map[string]interface{}{
			column:        gorm.Expr(column+" + ?", amount),
			"sales_count": gorm.Expr("sales_count + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSessionClosed
	}
	return nil
}

// CloseSession ends a shift on explicit user action. A sessionID of zero
// means the caller's current shift. Owners may close any shift of their
// business; cashiers only their own.
func CloseSession(db *gorm.DB, actor Actor, sessionID uint, in CloseInput, now time.Time) (*models.UserSession, error) {
	var (
		session *models.UserSession
		err     error
	)
	if sessionID == 0 {
		session, err = CurrentSession(db, actor.UserID)
	} else {
		session, err = GetSession(db, actor.BusinessID, sessionID)
	}
	if err != nil {
		return nil, err
	}
	if session.UserID != actor.UserID && actor.Role != models.RoleOwner {
		return nil, fmt.Errorf("session belongs to another user: %w", ErrForbidden)
	}
	if !session.IsOpen() {
		return nil, ErrSessionClosed
	}
	if in.ClosingCash != nil && *in.ClosingCash < 0 {
		return nil, invalid("closing cash cannot be negative")
	}
	if err := closeSession(db, session.ID, in.ClosingCash, in.Notes, models.ClosedByUser, now.UTC()); err != nil {
		return nil, err
	}
	return GetSession(db, actor.BusinessID, session.ID)
}

func ListSessions(db *gorm.DB, businessID uint, f SessionFilter) ([]models.UserSession, error) {
	q := db.Where("business_id = ?", businessID)
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.BranchID != 0 {
		q = q.Where("branch_id = ?", f.BranchID)
	}
	if f.OpenOnly {
		q = q.Where("closed_at IS NULL")
	}
	if !f.From.IsZero() {
		q = q.Where("opened_at >= ?", f.From.UTC())
	}
	if !f.To.IsZero() {
		q = q.Where("opened_at <= ?", f.To.UTC())
	}
	var sessions []models.UserSession
	err := q.Order("opened_at desc").Find(&sessions).Error
	return sessions, err
}

// CloseExpiredSessions closes every open shift whose expiry has passed and
// returns how many were closed.
func CloseExpiredSessions(db *gorm.DB, now time.Time) (int64, error) {
	res := db.Model(&models.UserSession{}).
		Where("closed_at IS NULL AND expires_at IS NOT NULL AND expires_at <= ?", now.UTC()).
		Updates(map[string]interface{}{
			"closed_at": now.UTC(),
			"closed_by": models.ClosedBySystem,
			"notes":     "expired",
		})
	return res.RowsAffected, res.Error
}

func closeSession(db *gorm.DB, id uint, closingCash *float64, notes, by string, now time.Time) error {
	changes := map[string]interface{}{
		"closed_at": now,
		"closed_by": by,
		"notes":     notes,
	}
	if closingCash != nil {
		changes["closing_cash"] = *closingCash
	}
	res := db.Model(&models.UserSession{}).Where("id = ? AND closed_at IS NULL", id).Updates(changes)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSessionClosed
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNoOpenSession) || gorm.IsRecordNotFoundError(err)
}
