package usecase_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"coursepay/internal/domain/model"
	repo "coursepay/internal/repository"
	"coursepay/internal/usecase"

	"gorm.io/gorm"
)

// =====================
// メモリ上のDB（WithinTxは直列化。成功したときだけ反映）
// =====================

type memState struct {
	nextID      int64
	orders      []model.Order
	items       []model.OrderItem
	courses     map[int64]model.Course
	enrollments []model.Enrollment
	cart        []model.CartItem
	audits      []model.AuditLog
	coupons     map[string]model.Coupon
}

func (s *memState) clone() *memState {
	c := &memState{
		nextID:      s.nextID,
		orders:      append([]model.Order(nil), s.orders...),
		items:       append([]model.OrderItem(nil), s.items...),
		courses:     make(map[int64]model.Course, len(s.courses)),
		coupons:     make(map[string]model.Coupon, len(s.coupons)),
		enrollments: append([]model.Enrollment(nil), s.enrollments...),
		cart:        append([]model.CartItem(nil), s.cart...),
		audits:      append([]model.AuditLog(nil), s.audits...),
	}
	for k, v := range s.courses {
		c.courses[k] = v
	}
	for k, v := range s.coupons {
		c.coupons[k] = v
	}
	return c
}

func (s *memState) id() int64 {
	s.nextID++
	return s.nextID
}

type memStore struct {
	mu sync.Mutex
	st *memState

	//カート削除（SAVEPOINT内）を失敗させる
	failCartClear bool
	txCount       int

	//MarkTerminalの直前に呼ぶ（ロック後に別Txが終端にした状態を作る）
	beforeTerminal func(o *model.Order)
}

func newMemStore() *memStore {
	return &memStore{st: &memState{courses: map[int64]model.Course{}}}
}

func (m *memStore) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.txCount++
	work := m.st.clone()
	if err := fn(&memTx{st: work, store: m}); err != nil {
		return err
	}
	m.st = work
	return nil
}

// Tx外から使うOrderRepository（コミット済みの状態を読む）
func (m *memStore) Orders() repo.OrderRepository {
	return &committedOrders{store: m}
}

// ---- seed / inspect ----

func (m *memStore) addCourse(c model.Course) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.courses[c.ID] = c
}

func (m *memStore) addCoupon(c model.Coupon) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.st.coupons == nil {
		m.st.coupons = map[string]model.Coupon{}
	}
	m.st.coupons[c.Code] = c
}

func (m *memStore) addCartItem(userID, courseID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.cart = append(m.st.cart, model.CartItem{ID: m.st.id(), UserID: userID, CourseID: courseID, CreatedAt: time.Now()})
}

func (m *memStore) addEnrollment(e model.Enrollment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = m.st.id()
	m.st.enrollments = append(m.st.enrollments, e)
}

func (m *memStore) addOrder(o model.Order, items []model.OrderItem) model.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = m.st.id()
	m.st.orders = append(m.st.orders, o)
	for _, it := range items {
		it.ID = m.st.id()
		it.OrderID = o.ID
		m.st.items = append(m.st.items, it)
	}
	return o
}

func (m *memStore) snapshot() *memState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.clone()
}

func (m *memStore) order(orderNumber string) (model.Order, bool) {
	s := m.snapshot()
	for _, o := range s.orders {
		if o.OrderNumber == orderNumber {
			return o, true
		}
	}
	return model.Order{}, false
}

func (m *memStore) enrollmentsOf(userID int64) []model.Enrollment {
	s := m.snapshot()
	var out []model.Enrollment
	for _, e := range s.enrollments {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

func (m *memStore) liveCart(userID int64) []int64 {
	s := m.snapshot()
	var out []int64
	for _, it := range s.cart {
		if it.UserID == userID && !it.DeletedAt.Valid {
			out = append(out, it.CourseID)
		}
	}
	return out
}

func (m *memStore) auditActions(orderID int64) []model.AuditAction {
	s := m.snapshot()
	var out []model.AuditAction
	for _, a := range s.audits {
		if a.ResourceID == orderID {
			out = append(out, a.Action)
		}
	}
	return out
}

func (m *memStore) setCourse(id int64, fn func(c *model.Course)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.st.courses[id]
	fn(&c)
	m.st.courses[id] = c
}

// =====================
// Tx内のリポジトリ
// =====================

type memTx struct {
	st    *memState
	store *memStore
}

func (t *memTx) Orders() repo.OrderRepository {
	return &memOrders{st: t.st, beforeTerminal: t.store.beforeTerminal}
}
func (t *memTx) OrderItems() repo.OrderItemRepository   { return &memOrderItems{st: t.st} }
func (t *memTx) Courses() repo.CourseRepository         { return &memCourses{st: t.st} }
func (t *memTx) Enrollments() repo.EnrollmentRepository { return &memEnrollments{st: t.st} }
func (t *memTx) CartItems() repo.CartItemRepository {
	return &memCart{st: t.st, fail: t.store.failCartClear}
}
func (t *memTx) AuditLogs() repo.AuditLogRepository { return &memAudits{st: t.st} }
func (t *memTx) Coupons() repo.CouponRepository     { return &memCoupons{st: t.st} }

type memCoupons struct{ st *memState }

func (r *memCoupons) FindByCode(ctx context.Context, code string) (model.Coupon, error) {
	c, ok := r.st.coupons[code]
	if !ok {
		return model.Coupon{}, repo.ErrNotFound
	}
	return c, nil
}

type memOrders struct {
	st             *memState
	beforeTerminal func(o *model.Order)
}

func (r *memOrders) find(pred func(o model.Order) bool) (model.Order, error) {
	for _, o := range r.st.orders {
		if pred(o) {
			return o, nil
		}
	}
	return model.Order{}, repo.ErrNotFound
}

func (r *memOrders) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	return r.find(func(o model.Order) bool { return o.ID == orderID })
}

func (r *memOrders) FindByOrderNumber(ctx context.Context, orderNumber string) (model.Order, error) {
	return r.find(func(o model.Order) bool { return o.OrderNumber == orderNumber })
}

func (r *memOrders) FindByOrderNumberForUpdate(ctx context.Context, orderNumber string) (model.Order, error) {
	return r.FindByOrderNumber(ctx, orderNumber)
}

func (r *memOrders) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	var out []model.Order
	for _, o := range r.st.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, int64(len(out)), nil
}

func (r *memOrders) Create(ctx context.Context, order model.Order) (int64, error) {
	for _, o := range r.st.orders {
		if o.OrderNumber == order.OrderNumber {
			return 0, repo.ErrDuplicate
		}
	}
	order.ID = r.st.id()
	r.st.orders = append(r.st.orders, order)
	return order.ID, nil
}

func (r *memOrders) update(orderID int64, cond func(o model.Order) bool, fn func(o *model.Order)) bool {
	for i := range r.st.orders {
		if r.st.orders[i].ID == orderID && cond(r.st.orders[i]) {
			fn(&r.st.orders[i])
			return true
		}
	}
	return false
}

func (r *memOrders) MarkPending(ctx context.Context, orderID int64, method model.PaymentMethod, reference string, orderedAt time.Time) (bool, error) {
	return r.update(orderID,
		func(o model.Order) bool { return o.Status == model.OrderStatusDraft },
		func(o *model.Order) {
			o.Status = model.OrderStatusPending
			o.PaymentMethod = method
			o.PaymentReference = reference
			o.OrderedAt = &orderedAt
		}), nil
}

func (r *memOrders) MarkTerminal(ctx context.Context, orderID int64, tr repo.TerminalTransition) (bool, error) {
	if r.beforeTerminal != nil {
		for i := range r.st.orders {
			if r.st.orders[i].ID == orderID {
				r.beforeTerminal(&r.st.orders[i])
			}
		}
	}
	return r.update(orderID,
		func(o model.Order) bool { return !o.Status.IsTerminal() },
		func(o *model.Order) {
			o.Status = tr.Status
			completed := tr.CompletedAt
			o.CompletedAt = &completed
			if tr.PaymentReference != "" {
				o.PaymentReference = tr.PaymentReference
			}
		}), nil
}

func (r *memOrders) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	var out []model.Order
	for _, o := range r.st.orders {
		if f.Status != "" && string(o.Status) != f.Status {
			continue
		}
		if f.UserID != nil && o.UserID != *f.UserID {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, int64(len(out)), nil
}

type committedOrders struct {
	memOrders
	store *memStore
}

func (r *committedOrders) FindByOrderNumber(ctx context.Context, orderNumber string) (model.Order, error) {
	s := r.store.snapshot()
	return (&memOrders{st: s}).FindByOrderNumber(ctx, orderNumber)
}

type memOrderItems struct{ st *memState }

func (r *memOrderItems) CreateSnapshot(ctx context.Context, orderID int64, items []model.OrderItem) ([]model.OrderItem, error) {
	out := make([]model.OrderItem, 0, len(items))
	for _, it := range items {
		it.ID = r.st.id()
		it.OrderID = orderID
		r.st.items = append(r.st.items, it)
		out = append(out, it)
	}
	return out, nil
}

func (r *memOrderItems) ListByOrderIDs(ctx context.Context, orderIDs []int64) (map[int64][]model.OrderItem, error) {
	want := make(map[int64]bool, len(orderIDs))
	for _, id := range orderIDs {
		want[id] = true
	}
	out := make(map[int64][]model.OrderItem, len(orderIDs))
	for _, it := range r.st.items {
		if want[it.OrderID] {
			out[it.OrderID] = append(out[it.OrderID], it)
		}
	}
	return out, nil
}

func (r *memOrderItems) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	var out []model.OrderItem
	for _, it := range r.st.items {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	return out, nil
}

type memCourses struct{ st *memState }

func (r *memCourses) FindByID(ctx context.Context, id int64) (model.Course, error) {
	c, ok := r.st.courses[id]
	if !ok {
		return model.Course{}, repo.ErrNotFound
	}
	return c, nil
}

func (r *memCourses) FindByIDForShare(ctx context.Context, id int64) (model.Course, error) {
	return r.FindByID(ctx, id)
}

type memEnrollments struct{ st *memState }

func (r *memEnrollments) Upsert(ctx context.Context, e model.Enrollment) error {
	for i, ex := range r.st.enrollments {
		if ex.UserID == e.UserID && ex.CourseID == e.CourseID {
			if ex.Status != model.EnrollmentStatusActive {
				e.ID = ex.ID
				r.st.enrollments[i] = e
			}
			return nil
		}
	}
	e.ID = r.st.id()
	r.st.enrollments = append(r.st.enrollments, e)
	return nil
}

func (r *memEnrollments) HasActive(ctx context.Context, userID int64, courseID int64) (bool, error) {
	for _, e := range r.st.enrollments {
		if e.UserID == userID && e.CourseID == courseID && e.Status == model.EnrollmentStatusActive {
			return true, nil
		}
	}
	return false, nil
}

func (r *memEnrollments) ListByUserID(ctx context.Context, userID int64) ([]model.Enrollment, error) {
	var out []model.Enrollment
	for _, e := range r.st.enrollments {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

type memCart struct {
	st   *memState
	fail bool
}

func (r *memCart) ListCourseIDsForUpdate(ctx context.Context, userID int64) ([]int64, error) {
	seen := map[int64]bool{}
	var out []int64
	for _, it := range r.st.cart {
		if it.UserID != userID || it.DeletedAt.Valid || seen[it.CourseID] {
			continue
		}
		seen[it.CourseID] = true
		out = append(out, it.CourseID)
	}
	return out, nil
}

func (r *memCart) DeleteByUserAndCourses(ctx context.Context, userID int64, courseIDs []int64) error {
	if r.fail {
		return errors.New("cart clear failed")
	}
	target := map[int64]bool{}
	for _, id := range courseIDs {
		target[id] = true
	}
	for i := range r.st.cart {
		if r.st.cart[i].UserID == userID && target[r.st.cart[i].CourseID] {
			r.st.cart[i].DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
		}
	}
	return nil
}

type memAudits struct{ st *memState }

func (r *memAudits) Create(ctx context.Context, log model.AuditLog) error {
	log.ID = r.st.id()
	r.st.audits = append(r.st.audits, log)
	return nil
}

func (r *memAudits) ListByOrder(ctx context.Context, orderID int64, limit int) ([]model.AuditLog, error) {
	out := []model.AuditLog{}
	for _, a := range r.st.audits {
		if a.ResourceType == model.AuditResourceOrder && a.ResourceID == orderID {
			out = append(out, a)
		}
	}
	return out, nil
}

// =====================
// ユーザー・時計・価格・ゲートウェイ
// =====================

type memUsers struct {
	users map[int64]model.User
}

func (r *memUsers) FindByID(ctx context.Context, id int64) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repo.ErrUserNotFound
	}
	return &u, nil
}

type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// カタログ価格そのまま。couponsにあるコードだけ固定額を引く
type stubOracle struct {
	coupons map[string]int64
}

func (o *stubOracle) Price(ctx context.Context, course model.Course, userID int64, couponCode string) (usecase.Quote, error) {
	if couponCode == "" {
		return usecase.Quote{OriginalPrice: course.Price, FinalPrice: course.Price}, nil
	}
	d, ok := o.coupons[couponCode]
	if !ok {
		return usecase.Quote{}, usecase.ErrInvalidCoupon
	}
	if d > course.Price {
		d = course.Price
	}
	return usecase.Quote{OriginalPrice: course.Price, DiscountAmount: d, FinalPrice: course.Price - d}, nil
}

type stubGateway struct {
	mu        sync.Mutex
	requestID string
	createErr error
	verifyErr error
	created   []usecase.PaymentRequest
}

func (g *stubGateway) CreatePayment(ctx context.Context, req usecase.PaymentRequest) (usecase.PaymentSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.created = append(g.created, req)
	if g.createErr != nil {
		return usecase.PaymentSession{}, g.createErr
	}
	return usecase.PaymentSession{RequestID: g.requestID, PayURL: "https://pay.test/" + req.OrderNumber}, nil
}

func (g *stubGateway) VerifyCallback(cb usecase.PaymentCallback) error {
	return g.verifyErr
}

func (g *stubGateway) createdCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.created)
}
