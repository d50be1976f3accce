package repository

import (
	"context"
	"errors"

	"coursepay/internal/domain/model"
)

// ユーザーが見つかりませんを統一
var ErrUserNotFound = errors.New("user not found")

// 参照だけを約束（登録・ログインは認証サービス側）
type UserRepository interface {
	// IDからユーザーを1件取得する。いなければ ErrUserNotFound
	FindByID(ctx context.Context, userID int64) (*model.User, error)
}
