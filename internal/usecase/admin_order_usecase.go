package usecase

import (
	"context"
	"net/http"

	"coursepay/internal/domain/model"
	repo "coursepay/internal/repository"

	"go.uber.org/zap"
)

type AdminOrderUsecase struct {
	tx     repo.TransactionManager
	clock  Clock
	logger *zap.Logger
}

func NewAdminOrderUsecase(tx repo.TransactionManager, clock Clock, logger *zap.Logger) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, clock: clock, logger: logger}
}

// 注文一覧（サポート用）
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) ([]OrderOutput, error) {
	// page/limitの最低限チェック
	if f.Page < 1 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if f.Status != "" && !isKnownStatus(model.OrderStatus(f.Status)) {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return err
		}

		outs, err = withItems(ctx, r, orders)
		return err
	})

	if err != nil {
		return []OrderOutput{}, toPublicError(u.logger, "admin list orders failed", err)
	}
	return outs, nil
}

// 放置されたDRAFT/PENDINGを期限切れにする。
// 決済コールバックと同じ条件付きUPDATEを使うので、先に決済が確定していれば409。
func (u *AdminOrderUsecase) Expire(ctx context.Context, actorAdminUserID int64, orderID int64) error {
	if actorAdminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return ErrOrderNotFound
		}
		if err != nil {
			return err
		}
		if o.Status.IsTerminal() {
			return ErrOrderAlreadyFinal
		}

		now := u.clock.Now()
		ok, err := r.Orders().MarkTerminal(ctx, orderID, repo.TerminalTransition{
			Status:      model.OrderStatusExpired,
			CompletedAt: now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return ErrOrderAlreadyFinal
		}

		// ★監査ログ（ORDER_EXPIRED）
		return r.AuditLogs().Create(ctx, orderAudit(actorAdminUserID, model.AuditActionOrderExpired, o,
			"order expired by admin", map[string]interface{}{
				"before_status": string(o.Status),
				"after_status":  string(model.OrderStatusExpired),
			}, now))
	})
	if err != nil {
		return toPublicError(u.logger, "expire order failed", err)
	}

	u.logger.Info("order expired", zap.Int64("order_id", orderID), zap.Int64("admin_id", actorAdminUserID))
	return nil
}

func isKnownStatus(s model.OrderStatus) bool {
	switch s {
	case model.OrderStatusDraft, model.OrderStatusPending, model.OrderStatusProcessing:
		return true
	}
	return s.IsTerminal()
}
