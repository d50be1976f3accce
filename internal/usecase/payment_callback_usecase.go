package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"coursepay/internal/domain/model"
	repo "coursepay/internal/repository"

	"go.uber.org/zap"
)

// ゲートウェイから届く結果（IPNのbody・リダイレクトのquery）
type PaymentCallback struct {
	PartnerCode  string
	OrderID      string
	RequestID    string
	Amount       int64
	OrderInfo    string
	OrderType    string
	TransID      int64
	ResultCode   int
	Message      string
	PayType      string
	ResponseTime int64
	ExtraData    string
	Signature    string
}

const (
	CallbackSourceIPN    = "ipn"
	CallbackSourceReturn = "return"
)

type PaymentCallbackConfig struct {
	Codes ResultCodes
	//falseならリダイレクトでは状態を変えない（IPNだけが結果を反映する）
	ReturnAppliesResult bool
}

type CallbackResult struct {
	OrderNumber string            `json:"order_number"`
	Status      model.OrderStatus `json:"status"`
	//既に終端だった（今回のコールバックでは何も変えていない）
	Replayed bool `json:"replayed"`
}

type PaymentCallbackUsecase struct {
	tx        repo.TransactionManager
	orders    repo.OrderRepository
	gateway   PaymentGateway
	fulfiller *Fulfiller
	cache     StatusCache
	publisher EventPublisher
	clock     Clock
	cfg       PaymentCallbackConfig
	logger    *zap.Logger
}

// DI
func NewPaymentCallbackUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	gateway PaymentGateway,
	fulfiller *Fulfiller,
	cache StatusCache,
	publisher EventPublisher,
	clock Clock,
	cfg PaymentCallbackConfig,
	logger *zap.Logger,
) *PaymentCallbackUsecase {
	return &PaymentCallbackUsecase{
		tx:        tx,
		orders:    orders,
		gateway:   gateway,
		fulfiller: fulfiller,
		cache:     cache,
		publisher: publisher,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
}

// サーバー間通知（IPN）
func (u *PaymentCallbackUsecase) HandleNotification(ctx context.Context, cb PaymentCallback) (CallbackResult, error) {
	return u.reconcile(ctx, cb, CallbackSourceIPN, true)
}

// ブラウザのリダイレクト
func (u *PaymentCallbackUsecase) HandleReturn(ctx context.Context, cb PaymentCallback) (CallbackResult, error) {
	return u.reconcile(ctx, cb, CallbackSourceReturn, u.cfg.ReturnAppliesResult)
}

func (u *PaymentCallbackUsecase) reconcile(ctx context.Context, cb PaymentCallback, source string, apply bool) (CallbackResult, error) {
	log := u.logger.With(
		zap.String("source", source),
		zap.String("order_number", cb.OrderID),
		zap.String("request_id", cb.RequestID),
		zap.Int("result_code", cb.ResultCode),
	)

	//署名検証。失敗したら注文は読まない
	if err := u.gateway.VerifyCallback(cb); err != nil {
		log.Warn("callback rejected", zap.Error(err))
		return CallbackResult{}, ErrInvalidCallback
	}

	//終端ステータスは変わらないのでキャッシュにあればそれを返す
	if status, ok := u.cachedTerminal(ctx, cb.OrderID, log); ok {
		return CallbackResult{OrderNumber: cb.OrderID, Status: status, Replayed: true}, nil
	}

	if !apply {
		o, err := u.orders.FindByOrderNumber(ctx, cb.OrderID)
		if errors.Is(err, repo.ErrNotFound) {
			return CallbackResult{}, ErrOrderNotFound
		}
		if err != nil {
			return CallbackResult{}, toPublicError(log, "find order failed", err)
		}
		return CallbackResult{OrderNumber: o.OrderNumber, Status: o.Status, Replayed: o.Status.IsTerminal()}, nil
	}

	var (
		res     CallbackResult
		settled *model.Order
	)
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByOrderNumberForUpdate(ctx, cb.OrderID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("lock order: %w", err)
		}

		if o.Status.IsTerminal() {
			res = CallbackResult{OrderNumber: o.OrderNumber, Status: o.Status, Replayed: true}
			return nil
		}

		if cb.Amount != o.TotalAmount {
			log.Warn("callback amount mismatch",
				zap.Int64("callback_amount", cb.Amount),
				zap.Int64("order_total", o.TotalAmount),
			)
			return ErrInvalidCallback
		}

		outcome := ClassifyResult(cb.ResultCode, cb.Message, u.cfg.Codes)
		now := u.clock.Now()

		reference := ""
		if cb.TransID != 0 {
			reference = strconv.FormatInt(cb.TransID, 10)
		}

		ok, err := r.Orders().MarkTerminal(ctx, o.ID, repo.TerminalTransition{
			Status:           outcome.OrderStatus(),
			PaymentReference: reference,
			CompletedAt:      now,
		})
		if err != nil {
			return fmt.Errorf("mark terminal: %w", err)
		}
		if !ok {
			//他のTxが先に終端にした
			latest, err := r.Orders().FindByOrderNumber(ctx, o.OrderNumber)
			if err != nil {
				return fmt.Errorf("reload order: %w", err)
			}
			res = CallbackResult{OrderNumber: latest.OrderNumber, Status: latest.Status, Replayed: true}
			return nil
		}

		o.Status = outcome.OrderStatus()
		o.CompletedAt = &now
		if reference != "" {
			o.PaymentReference = reference
		}

		detail := map[string]interface{}{
			"source":      source,
			"result_code": cb.ResultCode,
			"message":     cb.Message,
			"trans_id":    cb.TransID,
			"request_id":  cb.RequestID,
		}

		switch oc := outcome.(type) {
		case OutcomeSuccess:
			if _, err := u.fulfiller.Fulfill(ctx, r, o, detail); err != nil {
				return err
			}
		case OutcomeUserCancelled:
			if err := r.AuditLogs().Create(ctx, orderAudit(o.UserID, model.AuditActionPaymentCancelled, o,
				"payment cancelled by user", detail, now)); err != nil {
				return fmt.Errorf("audit payment cancelled: %w", err)
			}
		case OutcomeFailure:
			log.Warn("payment failed", zap.Int("code", oc.Code), zap.String("message", oc.Message))
			if err := r.AuditLogs().Create(ctx, orderAudit(o.UserID, model.AuditActionPaymentFailed, o,
				fmt.Sprintf("payment failed: %d %s", oc.Code, oc.Message), detail, now)); err != nil {
				return fmt.Errorf("audit payment failed: %w", err)
			}
		}

		settled = &o
		res = CallbackResult{OrderNumber: o.OrderNumber, Status: o.Status}
		return nil
	})
	if err != nil {
		return CallbackResult{}, toPublicError(log, "reconcile callback failed", err)
	}

	if settled != nil {
		log.Info("order settled", zap.String("status", string(settled.Status)))
		u.afterCommit(ctx, *settled, cb, source, log)
	}
	return res, nil
}

func (u *PaymentCallbackUsecase) cachedTerminal(ctx context.Context, orderNumber string, log *zap.Logger) (model.OrderStatus, bool) {
	if u.cache == nil {
		return "", false
	}
	status, ok, err := u.cache.GetTerminal(ctx, orderNumber)
	if err != nil {
		log.Warn("status cache lookup failed", zap.Error(err))
		return "", false
	}
	if !ok || !status.IsTerminal() {
		return "", false
	}
	return status, true
}

// コミット後のイベント発行とキャッシュ。失敗してもログだけ。
func (u *PaymentCallbackUsecase) afterCommit(ctx context.Context, o model.Order, cb PaymentCallback, source string, log *zap.Logger) {
	if u.publisher != nil {
		if err := u.publisher.PublishOrderOutcome(ctx, OrderOutcomeEvent{
			OrderNumber:      o.OrderNumber,
			UserID:           o.UserID,
			Status:           o.Status,
			TotalAmount:      o.TotalAmount,
			PaymentReference: o.PaymentReference,
			ResultCode:       cb.ResultCode,
			Source:           source,
			OccurredAt:       u.clock.Now(),
		}); err != nil {
			log.Warn("publish order outcome failed", zap.Error(err))
		}
	}
	if u.cache != nil {
		if err := u.cache.PutTerminal(ctx, o.OrderNumber, o.Status); err != nil {
			log.Warn("status cache store failed", zap.Error(err))
		}
	}
}
