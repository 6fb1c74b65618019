// Package inventory owns the per-event available ticket counter.
// Every change is a single conditional statement journaled in inventory_movements
// inside the same transaction.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"eventhub/internal/shared/apperrors"
	"eventhub/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Ledger interface {
	// TryDebit removes count tickets only if that many are available
	TryDebit(ctx context.Context, eventID uuid.UUID, count int, entry Entry) (int, error)
	// Credit returns count tickets unconditionally
	Credit(ctx context.Context, eventID uuid.UUID, count int, entry Entry) (int, error)
	// Reverse credits back what entry.Reference still holds, up to count. Repeated calls are no-ops.
	Reverse(ctx context.Context, eventID uuid.UUID, count int, entry Entry) (int, bool, error)
	Available(ctx context.Context, eventID uuid.UUID) (int, error)
	NetMovement(ctx context.Context, reference string) (int, error)
	// Outstanding lists references starting with prefix that still hold tickets
	Outstanding(ctx context.Context, prefix string) ([]Hold, error)
	Movements(ctx context.Context, eventID uuid.UUID, limit int) ([]Movement, error)
}

// ChangeHook runs after a committed change to an event's counter
type ChangeHook func(ctx context.Context, eventID uuid.UUID, available int)

type GormLedger struct {
	db    *gorm.DB
	log   *logger.Logger
	hooks []ChangeHook
}

func NewGormLedger(db *gorm.DB, log *logger.Logger) *GormLedger {
	return &GormLedger{db: db, log: log.WithComponent("inventory")}
}

// OnChange registers a hook. Not safe to call once the ledger is serving requests.
func (l *GormLedger) OnChange(hook ChangeHook) {
	l.hooks = append(l.hooks, hook)
}

func (l *GormLedger) TryDebit(ctx context.Context, eventID uuid.UUID, count int, entry Entry) (int, error) {
	if count < 1 {
		return 0, apperrors.ErrInvalidQuantity
	}

	var available int
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&eventStock{}).
			Where("id = ? AND available_tickets >= ?", eventID, count).
			UpdateColumn("available_tickets", gorm.Expr("available_tickets - ?", count))
		if res.Error != nil {
			return persistence("debit", res.Error)
		}
		if res.RowsAffected == 0 {
			if _, err := currentStock(tx, eventID, false); err != nil {
				return err
			}
			return apperrors.ErrInsufficientInventory
		}

		var err error
		available, err = journal(tx, eventID, -count, entry)
		return err
	})
	if err != nil {
		return 0, err
	}

	l.committed(ctx, eventID, -count, entry, available)
	return available, nil
}

func (l *GormLedger) Credit(ctx context.Context, eventID uuid.UUID, count int, entry Entry) (int, error) {
	if count < 1 {
		return 0, apperrors.ErrInvalidQuantity
	}

	var available int
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		available, err = credit(tx, eventID, count, entry)
		return err
	})
	if err != nil {
		return 0, err
	}

	l.committed(ctx, eventID, count, entry, available)
	return available, nil
}

func (l *GormLedger) Reverse(ctx context.Context, eventID uuid.UUID, count int, entry Entry) (int, bool, error) {
	if count < 1 {
		return 0, false, apperrors.ErrInvalidQuantity
	}
	if entry.Reference == "" {
		return 0, false, errors.New("reverse requires a reference")
	}

	var (
		available int
		applied   int
	)
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// the row lock serializes concurrent reversals of the same reference
		current, err := currentStock(tx, eventID, true)
		if err != nil {
			return err
		}

		net, err := netMovement(tx, entry.Reference)
		if err != nil {
			return err
		}
		if net >= 0 {
			available = current
			return nil
		}

		applied = min(count, -net)
		available, err = credit(tx, eventID, applied, entry)
		return err
	})
	if err != nil {
		return 0, false, err
	}

	if applied > 0 {
		l.committed(ctx, eventID, applied, entry, available)
	}
	return available, applied > 0, nil
}

func (l *GormLedger) Available(ctx context.Context, eventID uuid.UUID) (int, error) {
	return currentStock(l.db.WithContext(ctx), eventID, false)
}

func (l *GormLedger) NetMovement(ctx context.Context, reference string) (int, error) {
	return netMovement(l.db.WithContext(ctx), reference)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func (l *GormLedger) Outstanding(ctx context.Context, prefix string) ([]Hold, error) {
	var holds []Hold
	err := l.db.WithContext(ctx).Model(&Movement{}).
		Select("event_id, reference, -SUM(delta) AS quantity").
		Where(`reference LIKE ? ESCAPE '\'`, likeEscaper.Replace(prefix)+"%").
		Group("event_id, reference").
		Having("SUM(delta) < 0").
		Scan(&holds).Error
	if err != nil {
		return nil, persistence("outstanding holds", err)
	}
	return holds, nil
}

func (l *GormLedger) Movements(ctx context.Context, eventID uuid.UUID, limit int) ([]Movement, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var movements []Movement
	err := l.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("id DESC").
		Limit(limit).
		Find(&movements).Error
	if err != nil {
		return nil, persistence("list movements", err)
	}
	return movements, nil
}

func (l *GormLedger) committed(ctx context.Context, eventID uuid.UUID, delta int, entry Entry, available int) {
	l.log.LogInventoryChange(ctx, eventID.String(), delta, string(entry.Reason), entry.Reference, available)
	for _, hook := range l.hooks {
		hook(ctx, eventID, available)
	}
}

func credit(tx *gorm.DB, eventID uuid.UUID, count int, entry Entry) (int, error) {
	res := tx.Model(&eventStock{}).
		Where("id = ?", eventID).
		UpdateColumn("available_tickets", gorm.Expr("available_tickets + ?", count))
	if res.Error != nil {
		return 0, persistence("credit", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, apperrors.ErrEventNotFound
	}
	return journal(tx, eventID, count, entry)
}

// journal reads the post-update balance and appends the movement row
func journal(tx *gorm.DB, eventID uuid.UUID, delta int, entry Entry) (int, error) {
	available, err := currentStock(tx, eventID, false)
	if err != nil {
		return 0, err
	}

	movement := Movement{
		EventID:      eventID,
		Delta:        delta,
		Reason:       entry.Reason,
		Reference:    entry.Reference,
		BalanceAfter: available,
	}
	if err := tx.Create(&movement).Error; err != nil {
		return 0, persistence("journal movement", err)
	}
	return available, nil
}

func currentStock(db *gorm.DB, eventID uuid.UUID, lock bool) (int, error) {
	q := db.Model(&eventStock{})
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var row eventStock
	if err := q.Where("id = ?", eventID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperrors.ErrEventNotFound
		}
		return 0, persistence("read stock", err)
	}
	return row.AvailableTickets, nil
}

func netMovement(db *gorm.DB, reference string) (int, error) {
	var net int
	err := db.Model(&Movement{}).
		Select("COALESCE(SUM(delta), 0)").
		Where("reference = ?", reference).
		Scan(&net).Error
	if err != nil {
		return 0, persistence("sum movements", err)
	}
	return net, nil
}

func persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", apperrors.ErrPersistenceFailure, op, err)
}
