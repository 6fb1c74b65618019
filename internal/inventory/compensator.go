package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventhub/internal/shared/apperrors"
	"eventhub/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Alert is published to operators when a compensation has to be deferred
type Alert struct {
	Kind      string    `json:"kind"`
	EventID   string    `json:"event_id"`
	Quantity  int       `json:"quantity"`
	Reference string    `json:"reference"`
	Error     string    `json:"error"`
	RaisedAt  time.Time `json:"raised_at"`
}

type AlertPublisher interface {
	PublishAlert(ctx context.Context, alert Alert) error
}

type CompensatorConfig struct {
	MaxAttempts int
	Backoff     time.Duration
}

// Compensator undoes debits whose follow-up step failed. Credits are retried with
// exponential backoff, then parked as a CompensationTask for the reconciler.
type Compensator struct {
	ledger Ledger
	db     *gorm.DB
	log    *logger.Logger
	alerts AlertPublisher
	cfg    CompensatorConfig
}

func NewCompensator(ledger Ledger, db *gorm.DB, log *logger.Logger, alerts AlertPublisher, cfg CompensatorConfig) *Compensator {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 100 * time.Millisecond
	}
	return &Compensator{
		ledger: ledger,
		db:     db,
		log:    log.WithComponent("compensator"),
		alerts: alerts,
		cfg:    cfg,
	}
}

// Compensate gives back what reference still holds on eventID. It returns an error
// only when the credit failed and could not even be parked for later.
func (c *Compensator) Compensate(ctx context.Context, eventID uuid.UUID, quantity int, reference string, reason Reason) error {
	entry := Entry{Reason: reason, Reference: reference}

	err := c.executeWithRetry(ctx, func() error {
		_, _, err := c.ledger.Reverse(ctx, eventID, quantity, entry)
		return err
	})
	if err == nil {
		return nil
	}

	// the request context may already be gone; the task must still land
	bg := context.WithoutCancel(ctx)
	task := CompensationTask{
		EventID:   eventID,
		Quantity:  quantity,
		Reference: reference,
		Reason:    reason,
		Status:    TaskPending,
		Attempts:  c.cfg.MaxAttempts,
		LastError: err.Error(),
	}
	if createErr := c.db.WithContext(bg).Create(&task).Error; createErr != nil {
		c.log.LogCompensationAlert(bg, eventID.String(), quantity, reference, createErr)
		return fmt.Errorf("%w: park compensation: %w", apperrors.ErrPersistenceFailure, createErr)
	}

	c.log.LogCompensationAlert(bg, eventID.String(), quantity, reference, err)
	c.raise(bg, "compensation_deferred", eventID, quantity, reference, err)
	return nil
}

// DrainPending applies up to limit parked tasks. Reverse is idempotent per reference,
// so a task that crashed between credit and status update is safe to rerun.
func (c *Compensator) DrainPending(ctx context.Context, limit int) (int, error) {
	var tasks []CompensationTask
	err := c.db.WithContext(ctx).
		Where("status = ?", TaskPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&tasks).Error
	if err != nil {
		return 0, fmt.Errorf("%w: load compensation tasks: %w", apperrors.ErrPersistenceFailure, err)
	}

	done := 0
	for _, task := range tasks {
		if ctx.Err() != nil {
			return done, ctx.Err()
		}

		_, _, revErr := c.ledger.Reverse(ctx, task.EventID, task.Quantity, Entry{Reason: task.Reason, Reference: task.Reference})
		updates := map[string]interface{}{"attempts": gorm.Expr("attempts + 1")}
		if revErr == nil {
			updates["status"] = TaskDone
			updates["last_error"] = ""
		} else {
			// a deleted event stays pending too, for an operator to close out
			updates["last_error"] = revErr.Error()
		}

		res := c.db.WithContext(ctx).Model(&CompensationTask{}).
			Where("id = ? AND status = ?", task.ID, TaskPending).
			Updates(updates)
		if res.Error != nil {
			return done, fmt.Errorf("%w: update compensation task: %w", apperrors.ErrPersistenceFailure, res.Error)
		}

		if revErr != nil {
			c.log.ErrorWithContext(ctx, "Compensation task still failing", revErr, map[string]interface{}{
				"task_id":   task.ID.String(),
				"reference": task.Reference,
			})
			continue
		}
		done++
	}
	return done, nil
}

// PendingCount reports parked compensation tasks
func (c *Compensator) PendingCount(ctx context.Context) (int64, error) {
	var n int64
	err := c.db.WithContext(ctx).Model(&CompensationTask{}).Where("status = ?", TaskPending).Count(&n).Error
	return n, err
}

func (c *Compensator) executeWithRetry(ctx context.Context, operation func() error) error {
	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			backoff := c.cfg.Backoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return errors.Join(lastErr, ctx.Err())
			}
		}

		lastErr = operation()
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, apperrors.ErrEventNotFound) || errors.Is(lastErr, apperrors.ErrInvalidQuantity) {
			return lastErr
		}
	}
	return lastErr
}

func (c *Compensator) raise(ctx context.Context, kind string, eventID uuid.UUID, quantity int, reference string, cause error) {
	if c.alerts == nil {
		return
	}
	alert := Alert{
		Kind:      kind,
		EventID:   eventID.String(),
		Quantity:  quantity,
		Reference: reference,
		Error:     cause.Error(),
		RaisedAt:  time.Now().UTC(),
	}
	if err := c.alerts.PublishAlert(ctx, alert); err != nil {
		c.log.ErrorWithContext(ctx, "Failed to publish operator alert", err, map[string]interface{}{"reference": reference})
	}
}
