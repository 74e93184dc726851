package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"shoporder/internal/domain/model"
	"shoporder/internal/logger"
	repo "shoporder/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	defaultCancelReason  = "Order cancelled by user"
	maxIdempotencyKeyLen = 255
)

type OrderUsecaseDeps struct {
	Tx          repo.TransactionManager
	Orders      repo.OrderRepository
	OrderItems  repo.OrderItemRepository
	Products    repo.ProductRepository
	Shop        repo.ShopRepository
	CartItems   repo.CartItemRepository
	Addresses   repo.AddressRepository
	Numbers     OrderNumberGenerator
	PickupCodes PickupCodeGenerator
	Clock       Clock
	Events      OrderEventPublisher
	Metrics     OrderMetrics
	Logger      *logger.Logger
	//営業時間の判定に使う
	Location *time.Location
}

type OrderUsecase struct {
	tx          repo.TransactionManager
	orders      repo.OrderRepository
	orderItems  repo.OrderItemRepository
	products    repo.ProductRepository
	shop        repo.ShopRepository
	cartItems   repo.CartItemRepository
	addresses   repo.AddressRepository
	numbers     OrderNumberGenerator
	pickupCodes PickupCodeGenerator
	clock       Clock
	events      OrderEventPublisher
	metrics     OrderMetrics
	log         *logger.Logger
	loc         *time.Location
}

func NewOrderUsecase(d OrderUsecaseDeps) *OrderUsecase {
	u := &OrderUsecase{
		tx:          d.Tx,
		orders:      d.Orders,
		orderItems:  d.OrderItems,
		products:    d.Products,
		shop:        d.Shop,
		cartItems:   d.CartItems,
		addresses:   d.Addresses,
		numbers:     d.Numbers,
		pickupCodes: d.PickupCodes,
		clock:       d.Clock,
		events:      d.Events,
		metrics:     d.Metrics,
		log:         d.Logger,
		loc:         d.Location,
	}
	if u.pickupCodes == nil {
		u.pickupCodes = RandomPickupCode
	}
	if u.clock == nil {
		u.clock = SystemClock{}
	}
	if u.events == nil {
		u.events = nopPublisher{}
	}
	if u.metrics == nil {
		u.metrics = nopMetrics{}
	}
	if u.log == nil {
		u.log = logger.Nop()
	}
	if u.loc == nil {
		u.loc = time.Local
	}
	return u
}

// 1000〜9999
func RandomPickupCode() string {
	return strconv.Itoa(1000 + rand.Intn(9000))
}

func (u *OrderUsecase) CreateOrder(ctx context.Context, userID int64, in CreateOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	orderType := model.OrderType(strings.TrimSpace(in.OrderType))
	if orderType == "" {
		orderType = model.OrderTypePickup
	}
	if !orderType.Valid() {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid order_type")
	}
	if len(in.Items) == 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "items required")
	}
	for _, it := range in.Items {
		if it.ProductID <= 0 || it.Quantity <= 0 {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid item")
		}
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if len(key) > maxIdempotencyKeyLen {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid idempotency_key")
	}

	// 同じキーなら同じ結果
	if key != "" {
		existing, found, err := u.orders.FindByIdempotencyKey(ctx, userID, key)
		if err != nil {
			return OrderOutput{}, internalError(err)
		}
		if found {
			return u.load(ctx, existing)
		}
	}

	now := u.clock.Now()

	//営業中か（閉店ならtxを開かない）
	shop, err := u.shopInfo(ctx)
	if err != nil {
		return OrderOutput{}, err
	}
	if !shop.IsOpenAt(now.In(u.loc)) {
		u.metrics.OrderRejected("shop_closed")
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "shop is closed")
	}

	if in.AddressID > 0 {
		if err := u.applyAddress(ctx, userID, in.AddressID, &in); err != nil {
			return OrderOutput{}, err
		}
	} else if orderType == model.OrderTypeDelivery && strings.TrimSpace(in.DeliveryAddress) == "" {
		//住所未指定の配達はデフォルト住所を使う
		if err := u.applyDefaultAddress(ctx, userID, &in); err != nil {
			return OrderOutput{}, err
		}
	}
	if orderType == model.OrderTypeDelivery && strings.TrimSpace(in.DeliveryAddress) == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "delivery_address required")
	}

	//商品ごとの事前チェックとスナップショット
	items := make([]model.OrderItem, 0, len(in.Items))
	subtotal := decimal.Zero
	for _, it := range in.Items {
		p, err := u.products.FindByID(ctx, it.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			u.metrics.OrderRejected("product_not_found")
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, fmt.Sprintf("product %d not found", it.ProductID))
		}
		if err != nil {
			return OrderOutput{}, internalError(err)
		}
		if !p.IsAvailable {
			u.metrics.OrderRejected("product_unavailable")
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, fmt.Sprintf("product %s is not available", p.Name))
		}
		if it.Quantity > p.StockQuantity {
			u.metrics.OrderRejected("insufficient_stock")
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, fmt.Sprintf("insufficient stock for %s", p.Name))
		}

		var specs datatypes.JSONMap
		if len(it.Specs) > 0 {
			specs = datatypes.JSONMap(it.Specs)
		}
		items = append(items, model.OrderItem{
			ProductID:     p.ID,
			ProductName:   p.Name,
			UnitPrice:     p.Price,
			Quantity:      it.Quantity,
			Specs:         specs,
			Notes:         it.Notes,
			StockDeducted: it.UpdateStock == nil || *it.UpdateStock,
		})
		subtotal = subtotal.Add(p.Price.Mul(decimal.NewFromInt(it.Quantity)))
	}

	//配達だけ最低金額と配達料
	deliveryFee := decimal.Zero
	if orderType == model.OrderTypeDelivery {
		if shop.MinOrderAmount.IsPositive() && subtotal.LessThan(shop.MinOrderAmount) {
			u.metrics.OrderRejected("below_minimum")
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest,
				fmt.Sprintf("minimum order amount for delivery is %s", shop.MinOrderAmount.StringFixed(2)))
		}
		deliveryFee = shop.DeliveryFee
	}
	total := subtotal.Add(deliveryFee)

	var orderID int64
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		number, err := u.numbers.Next(ctx, now)
		if err != nil {
			return internalError(err)
		}

		order := model.Order{
			UserID:          userID,
			OrderNumber:     number,
			Status:          model.OrderStatusPending,
			PaymentStatus:   model.PaymentStatusUnpaid,
			OrderType:       orderType,
			TotalAmount:     total,
			DeliveryFee:     deliveryFee,
			TableNumber:     in.TableNumber,
			DeliveryAddress: in.DeliveryAddress,
			ContactName:     in.ContactName,
			ContactPhone:    in.ContactPhone,
			Notes:           in.Notes,
		}
		if orderType == model.OrderTypePickup {
			code := u.pickupCodes()
			order.PickupCode = &code
		}
		if key != "" {
			order.IdempotencyKey = &key
		}

		id, err := r.Orders().Create(ctx, order)
		if err != nil {
			if errors.Is(err, repo.ErrConflict) {
				return wrapHTTPError(http.StatusConflict, "order conflict", err)
			}
			return internalError(err)
		}

		if err := r.OrderItems().CreateBulk(ctx, id, items); err != nil {
			return internalError(err)
		}

		//条件付きUPDATE（更新0行なら在庫切れでrollback）
		for _, it := range items {
			if !it.StockDeducted {
				continue
			}
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return internalError(err)
			}
			if !ok {
				return NewHTTPError(http.StatusBadRequest, fmt.Sprintf("insufficient stock for %s", it.ProductName))
			}
		}

		orderID = id
		return nil
	})
	if err != nil {
		//同じキーの同時送信は先に確定した注文を返す
		if key != "" && errors.Is(err, repo.ErrConflict) {
			existing, found, ferr := u.orders.FindByIdempotencyKey(ctx, userID, key)
			if ferr == nil && found {
				return u.load(ctx, existing)
			}
		}
		u.metrics.OrderRejected(rejectReason(err))
		return OrderOutput{}, err
	}

	//カートの掃除は失敗しても注文は成立
	if len(in.CartItemIDs) > 0 {
		if _, err := u.cartItems.DeleteByIDs(ctx, userID, in.CartItemIDs); err != nil {
			u.log.Warn(u.log.WithField(ctx, "order_id", orderID), "cart cleanup failed", err)
		}
	}

	out, err := u.findOutput(ctx, orderID)
	if err != nil {
		return OrderOutput{}, err
	}
	u.metrics.OrderCreated(string(orderType))
	u.events.Publish(ctx, OrderEvent{Type: OrderEventCreated, Order: out, At: now})
	return out, nil
}

// 本人か管理者だけがキャンセルできる
func (u *OrderUsecase) Cancel(ctx context.Context, actor Actor, orderID int64, reason string) (CancelOrderOutput, error) {
	o, err := u.authorized(ctx, actor, orderID)
	if err != nil {
		return CancelOrderOutput{}, err
	}
	if o.Status.Terminal() {
		return CancelOrderOutput{}, NewHTTPError(http.StatusBadRequest, "order cannot be cancelled")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultCancelReason
	}

	now := u.clock.Now()
	var restored int64
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		ok, err := r.Orders().MarkCancelled(ctx, orderID, reason, now)
		if err != nil {
			return internalError(err)
		}
		if !ok {
			return NewHTTPError(http.StatusBadRequest, "order cannot be cancelled")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return internalError(err)
		}
		//作成時に減らした分だけ戻す
		for _, it := range items {
			if !it.StockDeducted {
				continue
			}
			if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
				return internalError(err)
			}
			restored += it.Quantity
		}
		return nil
	})
	if err != nil {
		return CancelOrderOutput{}, err
	}

	out, err := u.findOutput(ctx, orderID)
	if err != nil {
		return CancelOrderOutput{}, err
	}
	u.metrics.OrderCancelled()
	u.metrics.StockRestored(restored)
	u.events.Publish(ctx, OrderEvent{Type: OrderEventCancelled, Order: out, At: now})
	return CancelOrderOutput{Order: out, Reason: reason}, nil
}

// 模擬決済
func (u *OrderUsecase) Pay(ctx context.Context, actor Actor, orderID int64) (OrderOutput, error) {
	o, err := u.authorized(ctx, actor, orderID)
	if err != nil {
		return OrderOutput{}, err
	}
	if o.Status == model.OrderStatusCancelled {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "cancelled order cannot be paid")
	}
	if o.PaymentStatus == model.PaymentStatusPaid {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "order already paid")
	}
	if err := u.orders.UpdatePaymentStatus(ctx, orderID, model.PaymentStatusPaid); err != nil {
		return OrderOutput{}, repoError(err, "order not found")
	}

	out, err := u.findOutput(ctx, orderID)
	if err != nil {
		return OrderOutput{}, err
	}
	u.events.Publish(ctx, OrderEvent{Type: OrderEventPaymentChanged, Order: out, At: u.clock.Now()})
	return out, nil
}

// 終了した注文（cancelled/delivered）だけ削除できる
func (u *OrderUsecase) Delete(ctx context.Context, actor Actor, orderID int64) error {
	o, err := u.authorized(ctx, actor, orderID)
	if err != nil {
		return err
	}
	if !o.Status.Terminal() {
		return NewHTTPError(http.StatusBadRequest, "only cancelled or delivered orders can be deleted")
	}

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.OrderItems().DeleteByOrderID(ctx, orderID); err != nil {
			return internalError(err)
		}
		if err := r.Orders().Delete(ctx, orderID); err != nil {
			return repoError(err, "order not found")
		}
		if actor.IsAdmin {
			return r.AuditLogs().Create(ctx, model.AuditLog{
				ActorUserID:  actor.UserID,
				Action:       model.AuditActionDeleteOrder,
				ResourceType: model.AuditResourceOrder,
				ResourceID:   orderID,
				BeforeJSON:   fmt.Sprintf(`{"order_number":%q,"status":%q}`, o.OrderNumber, o.Status),
				AfterJSON:    `{}`,
				CreatedAt:    u.clock.Now(),
			})
		}
		return nil
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return err
		}
		return internalError(err)
	}

	u.events.Publish(ctx, OrderEvent{
		Type:  OrderEventDeleted,
		Order: OrderOutput{ID: o.ID, UserID: o.UserID, OrderNumber: o.OrderNumber, Status: string(o.Status)},
		At:    u.clock.Now(),
	})
	return nil
}

func (u *OrderUsecase) Get(ctx context.Context, actor Actor, orderID int64) (OrderOutput, error) {
	o, err := u.authorized(ctx, actor, orderID)
	if err != nil {
		return OrderOutput{}, err
	}
	return u.load(ctx, o)
}

func (u *OrderUsecase) ListMine(ctx context.Context, userID int64, status string, page, limit int) (OrderListOutput, error) {
	if userID <= 0 {
		return OrderListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	status = strings.TrimSpace(status)
	if status != "" && !model.OrderStatus(status).Valid() {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}
	page, limit = normalizePage(page, limit, 10)

	orders, total, err := u.orders.ListByUserID(ctx, userID, status, page, limit)
	if err != nil {
		return OrderListOutput{}, internalError(err)
	}
	items, err := withItems(ctx, u.orderItems, orders)
	if err != nil {
		return OrderListOutput{}, err
	}
	return OrderListOutput{Items: items, Pagination: newPagination(page, limit, total)}, nil
}

// 他人の注文は存在を隠さず403
func (u *OrderUsecase) authorized(ctx context.Context, actor Actor, orderID int64) (model.Order, error) {
	if actor.UserID <= 0 {
		return model.Order{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	o, err := u.orders.FindByID(ctx, orderID)
	if err != nil {
		return model.Order{}, repoError(err, "order not found")
	}
	if !actor.canAccess(o.UserID) {
		return model.Order{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return o, nil
}

func (u *OrderUsecase) applyAddress(ctx context.Context, userID, addressID int64, in *CreateOrderInput) error {
	addr, err := u.addresses.FindByID(ctx, addressID)
	if err != nil {
		return repoError(err, "address not found")
	}
	if addr.UserID != userID {
		return NewHTTPError(http.StatusForbidden, "forbidden")
	}
	fillFromAddress(addr, in)
	return nil
}

func (u *OrderUsecase) applyDefaultAddress(ctx context.Context, userID int64, in *CreateOrderInput) error {
	addr, err := u.addresses.FindDefault(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return internalError(err)
	}
	fillFromAddress(addr, in)
	return nil
}

// 空の項目だけ住所で埋める
func fillFromAddress(addr model.Address, in *CreateOrderInput) {
	if strings.TrimSpace(in.DeliveryAddress) == "" {
		in.DeliveryAddress = addr.FullText()
	}
	if strings.TrimSpace(in.ContactName) == "" {
		in.ContactName = addr.Name
	}
	if strings.TrimSpace(in.ContactPhone) == "" {
		in.ContactPhone = addr.Phone
	}
}

func (u *OrderUsecase) shopInfo(ctx context.Context) (model.ShopInfo, error) {
	return loadShopInfo(ctx, u.shop)
}

func (u *OrderUsecase) findOutput(ctx context.Context, orderID int64) (OrderOutput, error) {
	o, err := u.orders.FindByID(ctx, orderID)
	if err != nil {
		return OrderOutput{}, repoError(err, "order not found")
	}
	return u.load(ctx, o)
}

func (u *OrderUsecase) load(ctx context.Context, o model.Order) (OrderOutput, error) {
	items, err := u.orderItems.ListByOrderID(ctx, o.ID)
	if err != nil {
		return OrderOutput{}, internalError(err)
	}
	return toOrderOutput(o, items), nil
}

// 一覧は明細をまとめて取る
func withItems(ctx context.Context, itemsRepo repo.OrderItemRepository, orders []model.Order) ([]OrderOutput, error) {
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	byOrder, err := itemsRepo.ListByOrderIDs(ctx, ids)
	if err != nil {
		return nil, internalError(err)
	}
	out := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderOutput(o, byOrder[o.ID]))
	}
	return out, nil
}

// 行が無ければデフォルト設定
func loadShopInfo(ctx context.Context, shop repo.ShopRepository) (model.ShopInfo, error) {
	info, err := shop.Get(ctx)
	if errors.Is(err, repo.ErrNotFound) {
		return model.DefaultShopInfo(), nil
	}
	if err != nil {
		return model.ShopInfo{}, internalError(err)
	}
	return info, nil
}

func rejectReason(err error) string {
	he, ok := AsHTTPError(err)
	if !ok {
		return "internal"
	}
	switch he.Status {
	case http.StatusBadRequest:
		return "insufficient_stock"
	case http.StatusConflict:
		return "conflict"
	}
	return "internal"
}
