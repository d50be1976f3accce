package usecase

import (
	"context"
	"errors"
	"fmt"

	"coursepay/internal/domain/model"
	repo "coursepay/internal/repository"
)

// 注文1行分の価格（コースの内容も注文時点のもの）
type PricedLine struct {
	Course model.Course
	Quote  Quote
}

// 購入しようとしているコースを検証して価格を決める。書き込みはしない。
type SnapshotBuilder struct {
	oracle PricingOracle
}

func NewSnapshotBuilder(oracle PricingOracle) *SnapshotBuilder {
	return &SnapshotBuilder{oracle: oracle}
}

// 呼び出し側のTx内で使う（コース行はFOR SHAREで読む）。
// 同じコースIDが複数あれば最初の1つだけ。
func (b *SnapshotBuilder) Build(ctx context.Context, r repo.TxRepos, userID int64, courseIDs []int64, couponCode string) ([]PricedLine, error) {
	oracle := b.oracle
	if o, ok := oracle.(TxPricingOracle); ok {
		oracle = o.InTx(r)
	}

	seen := make(map[int64]struct{}, len(courseIDs))
	lines := make([]PricedLine, 0, len(courseIDs))

	for _, courseID := range courseIDs {
		if _, ok := seen[courseID]; ok {
			continue
		}
		seen[courseID] = struct{}{}

		course, err := r.Courses().FindByIDForShare(ctx, courseID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrCourseUnavailable
		}
		if err != nil {
			return nil, fmt.Errorf("find course %d: %w", courseID, err)
		}
		if !course.IsAvailable() {
			return nil, ErrCourseUnavailable
		}

		owned, err := r.Enrollments().HasActive(ctx, userID, courseID)
		if err != nil {
			return nil, fmt.Errorf("check enrollment %d: %w", courseID, err)
		}
		if owned {
			return nil, ErrAlreadyOwned
		}

		q, err := oracle.Price(ctx, course, userID, couponCode)
		if err != nil {
			if _, ok := AsHTTPError(err); ok {
				return nil, err
			}
			return nil, fmt.Errorf("price course %d: %w", courseID, err)
		}

		lines = append(lines, PricedLine{Course: course, Quote: q})
	}

	return lines, nil
}
