package persistence

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jmoiron/sqlx"

	"tg_listing/internal/domain"
	"tg_listing/internal/domain/entity"
	"tg_listing/pkg/errcodes"
	"tg_listing/pkg/lox"
)

//go:embed schema.sql
var schema string

// JournalRepository: необязательный журнал подтверждённых покупок
// и задач, не доставленных в канал. Рабочее состояние бота живёт в памяти,
// журнал только дублирует итоги для оператора.
type JournalRepository struct {
	db *sqlx.DB
}

func NewJournalRepository(db *sqlx.DB) *JournalRepository {
	return &JournalRepository{db: db}
}

func (r *JournalRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to apply journal schema")
	}
	return nil
}

func (r *JournalRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to commit")
	}
	return nil
}

// RecordPurchase пишет подтверждение один раз на попытку оплаты.
func (r *JournalRepository) RecordPurchase(ctx context.Context, intent entity.PurchaseIntent, source entity.ProofSource) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO purchases (
				attempt_id, buyer_id, offer_id, rail, amount,
				currency, source, created_at, confirmed_at
			) VALUES (
				:attempt_id, :buyer_id, :offer_id, :rail, :amount,
				:currency, :source, :created_at, :confirmed_at
			)
			ON CONFLICT (attempt_id) DO NOTHING`

		if _, err := tx.NamedExecContext(ctx, query, fromIntent(intent, source)); err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to record purchase")
		}
		return nil
	})
}

// PurchasesByBuyer: последние подтверждённые покупки покупателя.
func (r *JournalRepository) PurchasesByBuyer(ctx context.Context, buyerID int64, limit int) ([]entity.PurchaseIntent, error) {
	query := `
		SELECT attempt_id, buyer_id, offer_id, rail, amount, currency, source, created_at, confirmed_at
		FROM purchases
		WHERE buyer_id = $1
		ORDER BY confirmed_at DESC
		LIMIT $2`

	var rows []purchaseSchema
	if err := r.db.SelectContext(ctx, &rows, query, buyerID, limit); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list purchases")
	}

	return lox.Map(rows, purchaseSchema.toDomain), nil
}

func (r *JournalRepository) HandleDeadLetter(ctx context.Context, letter entity.DeadLetter) error {
	row, err := fromDeadLetter(letter)
	if err != nil {
		return fmt.Errorf("fromDeadLetter: %w", err)
	}

	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO dead_letters (task_id, chat_id, text, buttons, attempts, last_error, failed_at)
			VALUES (:task_id, :chat_id, :text, :buttons, :attempts, :last_error, :failed_at)
			ON CONFLICT (task_id) DO UPDATE SET
				attempts = EXCLUDED.attempts,
				last_error = EXCLUDED.last_error,
				failed_at = EXCLUDED.failed_at`

		if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to store dead letter")
		}
		return nil
	})
}

// NopJournal используется, когда PG_DSN не задан.
type NopJournal struct{}

func (NopJournal) RecordPurchase(context.Context, entity.PurchaseIntent, entity.ProofSource) error {
	return nil
}

func (NopJournal) HandleDeadLetter(context.Context, entity.DeadLetter) error {
	return nil
}
