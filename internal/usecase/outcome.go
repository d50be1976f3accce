package usecase

import "coursepay/internal/domain/model"

// ゲートウェイの結果コードの分類。
// OutcomeSuccess / OutcomeUserCancelled / OutcomeFailure の3つだけ。
type Outcome interface {
	OrderStatus() model.OrderStatus
	outcome()
}

type OutcomeSuccess struct{}

type OutcomeUserCancelled struct {
	Code    int
	Message string
}

type OutcomeFailure struct {
	Code    int
	Message string
}

func (OutcomeSuccess) OrderStatus() model.OrderStatus       { return model.OrderStatusPaid }
func (OutcomeUserCancelled) OrderStatus() model.OrderStatus { return model.OrderStatusCancelled }
func (OutcomeFailure) OrderStatus() model.OrderStatus       { return model.OrderStatusFailed }

func (OutcomeSuccess) outcome()       {}
func (OutcomeUserCancelled) outcome() {}
func (OutcomeFailure) outcome()       {}

// 成功・キャンセルのコードは設定から
type ResultCodes struct {
	Success int
	Cancel  int
}

func DefaultResultCodes() ResultCodes {
	return ResultCodes{Success: 0, Cancel: 1006}
}

func ClassifyResult(code int, message string, codes ResultCodes) Outcome {
	switch code {
	case codes.Success:
		return OutcomeSuccess{}
	case codes.Cancel:
		return OutcomeUserCancelled{Code: code, Message: message}
	default:
		return OutcomeFailure{Code: code, Message: message}
	}
}
