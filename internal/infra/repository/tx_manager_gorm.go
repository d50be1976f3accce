package repository

import (
	"context"

	repo "coursepay/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	orders      repo.OrderRepository
	orderItems  repo.OrderItemRepository
	courses     repo.CourseRepository
	enrollments repo.EnrollmentRepository
	cartItems   repo.CartItemRepository
	auditLogs   repo.AuditLogRepository
	coupons     repo.CouponRepository
}

func (r *txReposGorm) Orders() repo.OrderRepository           { return r.orders }
func (r *txReposGorm) OrderItems() repo.OrderItemRepository   { return r.orderItems }
func (r *txReposGorm) Courses() repo.CourseRepository         { return r.courses }
func (r *txReposGorm) Enrollments() repo.EnrollmentRepository { return r.enrollments }
func (r *txReposGorm) CartItems() repo.CartItemRepository     { return r.cartItems }
func (r *txReposGorm) AuditLogs() repo.AuditLogRepository     { return r.auditLogs }
func (r *txReposGorm) Coupons() repo.CouponRepository         { return r.coupons }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			orders:      NewOrderGormRepository(tx),
			orderItems:  NewOrderItemGormRepository(tx),
			courses:     NewCourseGormRepository(tx),
			enrollments: NewEnrollmentGormRepository(tx),
			cartItems:   NewCartGormRepository(tx),
			auditLogs:   NewAuditLogGormRepository(tx),
			coupons:     NewCouponGormRepository(tx),
		}
		return fn(r)
	})
}
