package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nippysky/marobi/internal/domain"
	"github.com/nippysky/marobi/pkg/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Options are read from the "checkout" settings category.
type Options struct {
	OrderPrefix     string `mapstructure:"order_prefix"`
	OrderIDAttempts int    `mapstructure:"order_id_attempts"`
	// AllowZeroPrice charges 0 for products with no price in the order
	// currency instead of rejecting the order.
	AllowZeroPrice bool `mapstructure:"allow_zero_price"`
}

func DefaultOptions() Options {
	return Options{
		OrderPrefix:     DefaultOrderPrefix,
		OrderIDAttempts: 5,
	}
}

// Service places orders. Every effect of PlaceOrder (stock decrements,
// order rows, customer contact changes) commits together or not at all.
type Service struct {
	db    *gorm.DB
	opts  Options
	newID func(prefix string) string
	now   func() time.Time
}

func NewService(db *gorm.DB, opts Options) *Service {
	if opts.OrderPrefix == "" {
		opts.OrderPrefix = DefaultOrderPrefix
	}
	if opts.OrderIDAttempts <= 0 {
		opts.OrderIDAttempts = DefaultOptions().OrderIDAttempts
	}
	return &Service{
		db:    db,
		opts:  opts,
		newID: NewOrderID,
		now:   time.Now,
	}
}

func (s *Service) Options() Options {
	return s.opts
}

// PlaceOrder validates req, then in one transaction reserves stock for every
// line, prices the order, and persists it with its line snapshots. The
// returned order has Items (and Customer for registered buyers) populated.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*domain.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var order *domain.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := s.place(tx, &req)
		if err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("order placed",
		zap.String("namespace", "checkout"),
		zap.String("order_id", order.ID),
		zap.String("channel", string(order.Channel)),
		zap.String("currency", string(order.Currency)),
		zap.String("total", order.TotalAmount.StringFixed(2)),
		zap.Int("lines", len(order.Items)))
	return order, nil
}

func (s *Service) place(tx *gorm.DB, req *PlaceOrderRequest) (*domain.Order, error) {
	var customer *domain.Customer
	if req.Buyer.CustomerID != nil {
		c, err := loadCustomer(tx, *req.Buyer.CustomerID)
		if err != nil {
			return nil, err
		}
		customer = c
	}

	total := decimal.Zero
	refTotal := decimal.Zero
	items := make([]domain.OrderItem, 0, len(req.Items))

	for _, line := range req.Items {
		v, err := findVariant(tx, line)
		if err != nil {
			return nil, err
		}
		if err := reserveStock(tx, v, line.Quantity); err != nil {
			return nil, err
		}
		unit, err := s.unitPrice(v.Product, req.Currency)
		if err != nil {
			return nil, err
		}

		fee := decimal.Zero
		if line.HasSizeMod {
			fee = line.SizeModFee
		}
		lineTotal := LineTotal(unit, line.Quantity, line.HasSizeMod, fee)
		total = total.Add(lineTotal)
		refTotal = refTotal.Add(referencePrice(v.Product).Mul(decimal.NewFromInt(int64(line.Quantity))))

		items = append(items, domain.OrderItem{
			VariantID:  v.ID,
			ProductID:  v.ProductID,
			Name:       v.Product.Name,
			Image:      v.Product.PrimaryImage(),
			Category:   v.Product.Category,
			Color:      v.Color,
			Size:       v.Size,
			Quantity:   line.Quantity,
			Currency:   req.Currency,
			UnitPrice:  unit,
			LineTotal:  lineTotal,
			HasSizeMod: line.HasSizeMod,
			SizeModFee: fee,
		})
	}

	deliveryFee := decimal.Zero
	if req.Channel == domain.ChannelOnline {
		deliveryFee = req.DeliveryFee
		total = total.Add(deliveryFee)
	}

	createdAt := req.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	order := &domain.Order{
		Status:        domain.OrderProcessing,
		Currency:      req.Currency,
		TotalAmount:   total,
		TotalNGN:      refTotal.Round(0).IntPart(),
		DeliveryFee:   deliveryFee,
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
		Channel:       req.Channel,
		StaffID:       req.StaffID,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
	if customer != nil {
		order.CustomerID = &customer.ID
	} else {
		guest := *req.Buyer.Contact
		guest.Email = strings.ToLower(strings.TrimSpace(guest.Email))
		order.Guest = &guest
	}

	if err := s.insertOrder(tx, order); err != nil {
		return nil, err
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if err := tx.Create(&items).Error; err != nil {
		return nil, fmt.Errorf("create order items: %w", err)
	}

	if customer != nil && canUpdateContact(customer, req.Buyer) {
		if err := updateContact(tx, customer, *req.Buyer.Contact); err != nil {
			return nil, err
		}
	}

	order.Items = items
	order.Customer = customer
	return order, nil
}

func loadCustomer(tx *gorm.DB, id int64) (*domain.Customer, error) {
	var c domain.Customer
	err := tx.Where("id = ?", id).First(&c).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("%w: customer %d", ErrNotFound, id)
	case err != nil:
		return nil, fmt.Errorf("load customer: %w", err)
	}
	return &c, nil
}

// findVariant picks the lowest id when the request leaves an attribute open
// and more than one variant matches.
func findVariant(tx *gorm.DB, line LineRequest) (*domain.Variant, error) {
	q := tx.Preload("Product").Where("product_id = ?", line.ProductID)
	color, size := common.NA, common.NA
	if !common.IsNA(line.Color) {
		color = strings.TrimSpace(line.Color)
		q = q.Where("color = ?", color)
	}
	if !common.IsNA(line.Size) {
		size = strings.TrimSpace(line.Size)
		q = q.Where("size = ?", size)
	}

	var v domain.Variant
	err := q.Order("id").First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && (v.Product == nil || v.Product.Status == domain.ProductArchived)) {
		return nil, &LineNotFoundError{ProductID: line.ProductID, Color: color, Size: size}
	}
	if err != nil {
		return nil, fmt.Errorf("load variant: %w", err)
	}
	return &v, nil
}

// reserveStock decrements only while enough stock remains, so concurrent
// orders can never drive a variant below zero.
func reserveStock(tx *gorm.DB, v *domain.Variant, qty int) error {
	res := tx.Model(&domain.Variant{}).
		Where("id = ? AND stock >= ?", v.ID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return fmt.Errorf("reserve stock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		available := v.Stock
		var current domain.Variant
		if err := tx.Select("stock").Where("id = ?", v.ID).First(&current).Error; err == nil {
			available = current.Stock
		}
		return &StockError{
			ProductID:   v.ProductID,
			ProductName: v.Product.Name,
			Color:       v.Color,
			Size:        v.Size,
			Requested:   qty,
			Available:   available,
		}
	}
	return nil
}

// insertOrder assigns a fresh id and inserts the order row. The primary key
// is the uniqueness check: a duplicate rolls back to a savepoint and a new
// id is drawn, up to OrderIDAttempts times.
func (s *Service) insertOrder(tx *gorm.DB, order *domain.Order) error {
	const savepoint = "order_id"
	for i := 0; i < s.opts.OrderIDAttempts; i++ {
		order.ID = s.newID(s.opts.OrderPrefix)
		if err := tx.SavePoint(savepoint).Error; err != nil {
			return fmt.Errorf("order savepoint: %w", err)
		}
		err := tx.Omit(clause.Associations).Create(order).Error
		if err == nil {
			return nil
		}
		if !isDuplicateKey(err) {
			return fmt.Errorf("create order: %w", err)
		}
		if err := tx.RollbackTo(savepoint).Error; err != nil {
			return fmt.Errorf("rollback order savepoint: %w", err)
		}
		zap.L().Warn("order id collision, regenerating",
			zap.String("namespace", "checkout"),
			zap.String("order_id", order.ID),
			zap.Int("attempt", i+1))
	}
	order.ID = ""
	return ErrOrderIDExhausted
}

func isDuplicateKey(err error) bool {
	msg := strings.ToLower(err.Error())
	// postgres: "duplicate key value violates unique constraint"
	// sqlite: "UNIQUE constraint failed"
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint failed")
}

// canUpdateContact allows contact changes for buyers vouched for by an
// authenticated caller, and otherwise only when the supplied email is the
// customer's own.
func canUpdateContact(c *domain.Customer, b Buyer) bool {
	if b.Contact == nil {
		return false
	}
	if b.Verified {
		return true
	}
	email := strings.TrimSpace(b.Contact.Email)
	return email != "" && strings.EqualFold(email, c.Email)
}

func updateContact(tx *gorm.DB, c *domain.Customer, contact domain.ContactInfo) error {
	updates := domain.ContactUpdates(contact)
	if len(updates) == 0 {
		return nil
	}
	if err := tx.Model(&domain.Customer{}).Where("id = ?", c.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("update customer contact: %w", err)
	}
	return tx.Where("id = ?", c.ID).First(c).Error
}
