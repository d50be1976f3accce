package usecase

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// ドメインエラー（errors.Isで比較できる）
var (
	//400 コースが存在しない・公開されていない・削除済み
	ErrCourseUnavailable = &HTTPError{Status: http.StatusBadRequest, Message: "course unavailable"}
	//409 既に受講権がある
	ErrAlreadyOwned = &HTTPError{Status: http.StatusConflict, Message: "course already owned"}
	//400
	ErrEmptyCart = &HTTPError{Status: http.StatusBadRequest, Message: "cart is empty"}
	//400 合計が0以下
	ErrNothingToCharge = &HTTPError{Status: http.StatusBadRequest, Message: "nothing to charge"}
	//409 無料コースを既に受講中
	ErrCourseAlreadyFree = &HTTPError{Status: http.StatusConflict, Message: "free course already enrolled"}
	//400
	ErrInvalidCoupon = &HTTPError{Status: http.StatusBadRequest, Message: "invalid coupon"}
	//401 署名不一致・金額不一致
	ErrInvalidCallback = &HTTPError{Status: http.StatusUnauthorized, Message: "invalid callback"}
	//404
	ErrOrderNotFound = &HTTPError{Status: http.StatusNotFound, Message: "order not found"}
	//502 決済セッションを作れなかった
	ErrGatewayUnavailable = &HTTPError{Status: http.StatusBadGateway, Message: "payment gateway unavailable"}
	//409 既に終端
	ErrOrderAlreadyFinal = &HTTPError{Status: http.StatusConflict, Message: "order already final"}
	//同じユーザーが同じミリ秒にチェックアウトした（注文番号の衝突）
	ErrCheckoutConflict = &HTTPError{Status: http.StatusConflict, Message: "checkout already in progress"}
)

// ドメインエラーはそのまま返す。それ以外はログに原因を残して500にする。
func toPublicError(logger *zap.Logger, msg string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsHTTPError(err); ok {
		return err
	}
	logger.Error(msg, zap.Error(err))
	return NewHTTPError(http.StatusInternalServerError, "internal error")
}
