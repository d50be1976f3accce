package repository

import (
	"context"
	"errors"
	"time"

	"coursepay/internal/domain/model"
	repo "coursepay/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (r *OrderGormRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (model.Order, error) {
	return r.findByOrderNumber(r.db.WithContext(ctx), orderNumber)
}

// 行ロックを取ってから読む（同じ注文のコールバックを直列にする）
func (r *OrderGormRepository) FindByOrderNumberForUpdate(ctx context.Context, orderNumber string) (model.Order, error) {
	return r.findByOrderNumber(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), orderNumber)
}

func (r *OrderGormRepository) findByOrderNumber(q *gorm.DB, orderNumber string) (model.Order, error) {
	var o model.Order
	err := q.Where("order_number = ?", orderNumber).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (r *OrderGormRepository) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	offset := (page - 1) * limit
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id desc").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}

func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&order).Error; err != nil {
		if isUniqueViolation(err) {
			return 0, repo.ErrDuplicate
		}
		return 0, err
	}
	return order.ID, nil
}

// 23505 = unique_violation
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// DRAFTのときだけPENDINGへ（先にコールバックが終端にしていたら上書きしない）
func (r *OrderGormRepository) MarkPending(ctx context.Context, orderID int64, method model.PaymentMethod, reference string, orderedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", orderID, string(model.OrderStatusDraft)).
		Updates(map[string]interface{}{
			"status":            string(model.OrderStatusPending),
			"payment_method":    string(method),
			"payment_reference": reference,
			"ordered_at":        orderedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// 条件付きUPDATE。終端でない行だけを終端にする。
// 0件なら他のTxが先に終端にしている。
func (r *OrderGormRepository) MarkTerminal(ctx context.Context, orderID int64, t repo.TerminalTransition) (bool, error) {
	if !t.Status.IsTerminal() {
		return false, errors.New("not a terminal status: " + string(t.Status))
	}

	values := map[string]interface{}{
		"status":       string(t.Status),
		"completed_at": t.CompletedAt,
	}
	if t.PaymentReference != "" {
		values["payment_reference"] = t.PaymentReference
	}

	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status NOT IN ?", orderID, terminalStatusValues()).
		Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *OrderGormRepository) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}

	q := r.db.WithContext(ctx).Model(&model.Order{})

	//status 絞り込み
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	//user_id 絞り込み
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}

	//期間絞り込み
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	offset := (f.Page - 1) * f.Limit
	if err := q.Order("id desc").Limit(f.Limit).Offset(offset).Find(&items).Error; err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}

func terminalStatusValues() []string {
	out := make([]string, 0, len(model.TerminalOrderStatuses))
	for _, s := range model.TerminalOrderStatuses {
		out = append(out, string(s))
	}
	return out
}
