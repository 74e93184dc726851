package usecase

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"shoporder/internal/domain/model"
	repo "shoporder/internal/repository"

	"github.com/shopspring/decimal"
)

// 書き出しの上限行数
const maxExportRows = 5000

// 注文一覧をファイル形式で書き出す
type OrderExporter interface {
	ContentType() string
	FileExtension() string
	WriteOrders(w io.Writer, orders []OrderOutput) error
}

type AdminOrderUsecaseDeps struct {
	Tx         repo.TransactionManager
	Orders     repo.OrderRepository
	OrderItems repo.OrderItemRepository
	Products   repo.ProductRepository
	Users      repo.UserRepository
	Exporter   OrderExporter
	Clock      Clock
	Events     OrderEventPublisher
	Location   *time.Location
}

type AdminOrderUsecase struct {
	tx         repo.TransactionManager
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	products   repo.ProductRepository
	users      repo.UserRepository
	exporter   OrderExporter
	clock      Clock
	events     OrderEventPublisher
	loc        *time.Location
}

func NewAdminOrderUsecase(d AdminOrderUsecaseDeps) *AdminOrderUsecase {
	u := &AdminOrderUsecase{
		tx:         d.Tx,
		orders:     d.Orders,
		orderItems: d.OrderItems,
		products:   d.Products,
		users:      d.Users,
		exporter:   d.Exporter,
		clock:      d.Clock,
		events:     d.Events,
		loc:        d.Location,
	}
	if u.clock == nil {
		u.clock = SystemClock{}
	}
	if u.events == nil {
		u.events = nopPublisher{}
	}
	if u.loc == nil {
		u.loc = time.Local
	}
	return u
}

// handlerから来る一覧条件（文字列のまま）
type AdminOrderListInput struct {
	Page          int
	Limit         int
	Status        string
	PaymentStatus string
	OrderType     string
	Keyword       string
	StartDate     string
	EndDate       string
}

type DashboardPeriod struct {
	Orders  int64           `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

type DashboardOutput struct {
	UserCount    int64           `json:"user_count"`
	ProductCount int64           `json:"product_count"`
	Today        DashboardPeriod `json:"today"`
	ThisMonth    DashboardPeriod `json:"this_month"`
}

func (u *AdminOrderUsecase) List(ctx context.Context, in AdminOrderListInput) (OrderListOutput, error) {
	f, err := u.listFilter(in)
	if err != nil {
		return OrderListOutput{}, err
	}
	f.Page, f.Limit = normalizePage(f.Page, f.Limit, 50)

	orders, total, err := u.orders.ListAdmin(ctx, f)
	if err != nil {
		return OrderListOutput{}, internalError(err)
	}
	outs, err := withItems(ctx, u.orderItems, orders)
	if err != nil {
		return OrderListOutput{}, err
	}
	return OrderListOutput{Items: outs, Pagination: newPagination(f.Page, f.Limit, total)}, nil
}

// 許可リストのみ（遷移の制約なし、在庫は動かさない）
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, adminID int64, orderID int64, status string) (OrderOutput, error) {
	if adminID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	newStatus := model.OrderStatus(strings.TrimSpace(status))
	if !newStatus.Valid() {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return repoError(err, "order not found")
		}
		if err := r.Orders().UpdateStatus(ctx, orderID, newStatus); err != nil {
			return repoError(err, "order not found")
		}

		//監査ログ（UPDATE_ORDER_STATUS）
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminID,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   `{"status":"` + string(o.Status) + `"}`,
			AfterJSON:    `{"status":"` + string(newStatus) + `"}`,
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return internalError(err)
		}
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return u.publish(ctx, OrderEventStatusChanged, orderID)
}

func (u *AdminOrderUsecase) UpdatePaymentStatus(ctx context.Context, adminID int64, orderID int64, status string) (OrderOutput, error) {
	if adminID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	newStatus := model.PaymentStatus(strings.TrimSpace(status))
	if !newStatus.Valid() {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid payment_status")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return repoError(err, "order not found")
		}
		if err := r.Orders().UpdatePaymentStatus(ctx, orderID, newStatus); err != nil {
			return repoError(err, "order not found")
		}
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminID,
			Action:       model.AuditActionUpdatePaymentStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   `{"payment_status":"` + string(o.PaymentStatus) + `"}`,
			AfterJSON:    `{"payment_status":"` + string(newStatus) + `"}`,
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return internalError(err)
		}
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return u.publish(ctx, OrderEventPaymentChanged, orderID)
}

func (u *AdminOrderUsecase) Statistics(ctx context.Context, startDate, endDate string) (repo.OrderStatistics, error) {
	from, err := u.parseDate(startDate, false)
	if err != nil {
		return repo.OrderStatistics{}, err
	}
	to, err := u.parseDate(endDate, true)
	if err != nil {
		return repo.OrderStatistics{}, err
	}
	stats, err := u.orders.Statistics(ctx, repo.OrderStatisticsFilter{From: from, To: to})
	if err != nil {
		return repo.OrderStatistics{}, internalError(err)
	}
	return stats, nil
}

func (u *AdminOrderUsecase) Dashboard(ctx context.Context) (DashboardOutput, error) {
	var out DashboardOutput
	var err error

	if out.UserCount, err = u.users.Count(ctx); err != nil {
		return DashboardOutput{}, internalError(err)
	}
	if out.ProductCount, err = u.products.Count(ctx); err != nil {
		return DashboardOutput{}, internalError(err)
	}

	now := u.clock.Now().In(u.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, u.loc)
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, u.loc)

	if out.Today, err = u.period(ctx, today); err != nil {
		return DashboardOutput{}, err
	}
	if out.ThisMonth, err = u.period(ctx, month); err != nil {
		return DashboardOutput{}, err
	}
	return out, nil
}

// 絞り込んだ一覧を書き出す（上限maxExportRows）
func (u *AdminOrderUsecase) Export(ctx context.Context, in AdminOrderListInput, w io.Writer) error {
	if u.exporter == nil {
		return NewHTTPError(http.StatusNotImplemented, "export not configured")
	}
	f, err := u.listFilter(in)
	if err != nil {
		return err
	}
	f.Limit = maxPageLimit

	all := make([]OrderOutput, 0, f.Limit)
	for f.Page = 1; len(all) < maxExportRows; f.Page++ {
		orders, _, err := u.orders.ListAdmin(ctx, f)
		if err != nil {
			return internalError(err)
		}
		outs, err := withItems(ctx, u.orderItems, orders)
		if err != nil {
			return err
		}
		all = append(all, outs...)
		if len(orders) < f.Limit {
			break
		}
	}
	if len(all) > maxExportRows {
		all = all[:maxExportRows]
	}
	if err := u.exporter.WriteOrders(w, all); err != nil {
		return internalError(err)
	}
	return nil
}

func (u *AdminOrderUsecase) ExportContentType() (string, string) {
	if u.exporter == nil {
		return "application/octet-stream", "bin"
	}
	return u.exporter.ContentType(), u.exporter.FileExtension()
}

func (u *AdminOrderUsecase) period(ctx context.Context, from time.Time) (DashboardPeriod, error) {
	stats, err := u.orders.Statistics(ctx, repo.OrderStatisticsFilter{From: &from})
	if err != nil {
		return DashboardPeriod{}, internalError(err)
	}
	return DashboardPeriod{Orders: stats.TotalOrders, Revenue: stats.TotalRevenue}, nil
}

func (u *AdminOrderUsecase) publish(ctx context.Context, typ OrderEventType, orderID int64) (OrderOutput, error) {
	o, err := u.orders.FindByID(ctx, orderID)
	if err != nil {
		return OrderOutput{}, repoError(err, "order not found")
	}
	items, err := u.orderItems.ListByOrderID(ctx, orderID)
	if err != nil {
		return OrderOutput{}, internalError(err)
	}
	out := toOrderOutput(o, items)
	u.events.Publish(ctx, OrderEvent{Type: typ, Order: out, At: u.clock.Now()})
	return out, nil
}

func (u *AdminOrderUsecase) listFilter(in AdminOrderListInput) (repo.AdminOrderListFilter, error) {
	f := repo.AdminOrderListFilter{
		Page:          in.Page,
		Limit:         in.Limit,
		Status:        strings.TrimSpace(in.Status),
		PaymentStatus: strings.TrimSpace(in.PaymentStatus),
		OrderType:     strings.TrimSpace(in.OrderType),
		Keyword:       strings.TrimSpace(in.Keyword),
	}
	if f.Status != "" && !model.OrderStatus(f.Status).Valid() {
		return f, NewHTTPError(http.StatusBadRequest, "invalid status")
	}
	if f.PaymentStatus != "" && !model.PaymentStatus(f.PaymentStatus).Valid() {
		return f, NewHTTPError(http.StatusBadRequest, "invalid payment_status")
	}
	if f.OrderType != "" && !model.OrderType(f.OrderType).Valid() {
		return f, NewHTTPError(http.StatusBadRequest, "invalid order_type")
	}
	var err error
	if f.From, err = u.parseDate(in.StartDate, false); err != nil {
		return f, err
	}
	if f.To, err = u.parseDate(in.EndDate, true); err != nil {
		return f, err
	}
	return f, nil
}

// YYYY-MM-DD（店舗のタイムゾーン）かRFC3339
// 日付だけの終了日はその日の終わりまで含める
func (u *AdminOrderUsecase) parseDate(s string, endOfDay bool) (*time.Time, error) {
	return parseDateIn(s, u.loc, endOfDay)
}

func parseDateIn(s string, loc *time.Location, endOfDay bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid date: "+s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
