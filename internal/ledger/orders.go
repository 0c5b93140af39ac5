package ledger

import (
	"context"
	"strings"

	"github.com/stitchbook/stitchbook/internal/shared"
)

const advancePaymentNote = "Advance Payment"

// ListOrders returns orders newest first, narrowed by filter.
func (s *Service) ListOrders(ctx context.Context, filter OrderFilter) ([]Order, error) {
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := orders[:0]
	for _, o := range orders {
		if filter.WorkStatus != "" && o.WorkStatus != filter.WorkStatus {
			continue
		}
		if filter.DeliveryStatus != "" && o.DeliveryStatus != filter.DeliveryStatus {
			continue
		}
		if filter.PaymentStatus != "" && o.PaymentStatus != filter.PaymentStatus {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(o.OrderNumber), search) &&
			!strings.Contains(strings.ToLower(o.ClientName), search) &&
			!strings.Contains(o.Phone, search) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

// GetOrder fetches one order.
func (s *Service) GetOrder(ctx context.Context, id string) (Order, error) {
	return s.repo.GetOrder(ctx, id)
}

// CreateOrder books a new order and, when an initial payment is given, its
// advance payment together with the matching balance credit.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (Order, error) {
	if err := s.validateStruct(in); err != nil {
		return Order{}, err
	}
	if strings.TrimSpace(in.ClientName) == "" {
		return Order{}, shared.NewValidationError("clientName", "is required")
	}
	items, err := s.buildItems(in.Items)
	if err != nil {
		return Order{}, err
	}
	orderDate, err := s.parseDate("orderDate", in.OrderDate)
	if err != nil {
		return Order{}, err
	}
	dueDate, err := s.parseOptionalDate("dueDate", in.DueDate)
	if err != nil {
		return Order{}, err
	}

	order := Order{
		ID:             s.newID(),
		OrderNumber:    strings.TrimSpace(in.OrderNumber),
		ClientName:     strings.TrimSpace(in.ClientName),
		Phone:          strings.TrimSpace(in.Phone),
		Items:          items,
		WorkStatus:     WorkStatus(in.WorkStatus),
		DeliveryStatus: DeliveryStatus(in.DeliveryStatus),
		PaymentHistory: []PaymentRecord{},
		OrderDate:      orderDate,
		DueDate:        dueDate,
		Notes:          in.Notes,
		CreatedAt:      s.now(),
	}
	if order.OrderNumber == "" {
		order.OrderNumber = newOrderNumber()
	}
	if order.WorkStatus == "" {
		order.WorkStatus = WorkPending
	}
	if order.DeliveryStatus == "" {
		order.DeliveryStatus = DeliveryPending
	}
	if order.DeliveryStatus == DeliveryDelivered {
		today := s.Today()
		order.DeliveredDate = &today
	}

	if strings.TrimSpace(in.InitialPayment) != "" {
		amount, err := ParseMoney("initialPayment", in.InitialPayment)
		if err != nil {
			return Order{}, err
		}
		if !amount.IsZero() {
			if err := s.checkAmount("initialPayment", amount); err != nil {
				return Order{}, err
			}
			mode := Mode(in.InitialPaymentMode)
			if mode == "" {
				mode = ModeCash
			}
			order.PaymentHistory = append(order.PaymentHistory, PaymentRecord{
				ID:     s.newID(),
				Amount: amount,
				Date:   orderDate,
				Mode:   mode,
				Note:   advancePaymentNote,
			})
		}
	}
	order.Recompute()
	if err := checkOrderBounds(order, "items"); err != nil {
		return Order{}, err
	}
	if err := s.checkOverpayment(order, "initialPayment"); err != nil {
		return Order{}, err
	}

	err = s.mutate(ctx, OpOrderCreate, func(ctx context.Context, repo Repository) error {
		if err := repo.InsertOrder(ctx, order); err != nil {
			return err
		}
		return s.move(ctx, repo, OrderDeltas(order)...)
	})
	if err != nil {
		return Order{}, err
	}
	return order, nil
}

// UpdateOrder patches client, status and date fields. Replacing items follows
// EditOrderItems rules; no balance moves.
func (s *Service) UpdateOrder(ctx context.Context, id string, in UpdateOrderInput) (Order, error) {
	if err := s.validateStruct(in); err != nil {
		return Order{}, err
	}
	if in.OrderNumber != nil && strings.TrimSpace(*in.OrderNumber) == "" {
		return Order{}, shared.NewValidationError("orderNumber", "must not be blank")
	}
	if in.ClientName != nil && strings.TrimSpace(*in.ClientName) == "" {
		return Order{}, shared.NewValidationError("clientName", "must not be blank")
	}
	var items []OrderItem
	if in.Items != nil {
		if len(in.Items) == 0 {
			return Order{}, shared.NewValidationError("items", "must contain at least 1 item")
		}
		built, err := s.buildItems(in.Items)
		if err != nil {
			return Order{}, err
		}
		items = built
	}
	var orderDate *Date
	if in.OrderDate != nil {
		d, err := s.parseDate("orderDate", *in.OrderDate)
		if err != nil {
			return Order{}, err
		}
		orderDate = &d
	}
	var dueDate, deliveredDate *Date
	if in.DueDate != nil {
		d, err := s.parseOptionalDate("dueDate", *in.DueDate)
		if err != nil {
			return Order{}, err
		}
		dueDate = d
	}
	if in.DeliveredDate != nil {
		d, err := s.parseOptionalDate("deliveredDate", *in.DeliveredDate)
		if err != nil {
			return Order{}, err
		}
		deliveredDate = d
	}

	var out Order
	err := s.mutate(ctx, OpOrderUpdate, func(ctx context.Context, repo Repository) error {
		order, err := repo.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		if in.OrderNumber != nil {
			order.OrderNumber = strings.TrimSpace(*in.OrderNumber)
		}
		if in.ClientName != nil {
			order.ClientName = strings.TrimSpace(*in.ClientName)
		}
		if in.Phone != nil {
			order.Phone = strings.TrimSpace(*in.Phone)
		}
		if in.Notes != nil {
			order.Notes = *in.Notes
		}
		if in.WorkStatus != nil {
			order.WorkStatus = WorkStatus(*in.WorkStatus)
		}
		if orderDate != nil {
			order.OrderDate = *orderDate
		}
		if in.DueDate != nil {
			order.DueDate = dueDate
		}
		if in.DeliveredDate != nil {
			order.DeliveredDate = deliveredDate
		}
		if in.DeliveryStatus != nil {
			next := DeliveryStatus(*in.DeliveryStatus)
			if next == DeliveryDelivered && order.DeliveryStatus != DeliveryDelivered && order.DeliveredDate == nil {
				today := s.Today()
				order.DeliveredDate = &today
			}
			order.DeliveryStatus = next
		}
		if items != nil {
			order.Items = items
		}
		order.Recompute()
		if err := checkOrderBounds(order, "items"); err != nil {
			return err
		}
		if err := repo.UpdateOrder(ctx, order); err != nil {
			return err
		}
		out = order
		return nil
	})
	return out, err
}

// EditOrderItems replaces the billed lines and re-derives total, balance and
// payment status. Item edits never move cash.
func (s *Service) EditOrderItems(ctx context.Context, id string, inputs []OrderItemInput) (Order, error) {
	req := struct {
		Items []OrderItemInput `json:"items" validate:"required,min=1,dive"`
	}{Items: inputs}
	if err := s.validateStruct(req); err != nil {
		return Order{}, err
	}
	items, err := s.buildItems(inputs)
	if err != nil {
		return Order{}, err
	}
	var out Order
	err = s.mutate(ctx, OpOrderItems, func(ctx context.Context, repo Repository) error {
		order, err := repo.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		order.Items = items
		order.Recompute()
		if err := checkOrderBounds(order, "items"); err != nil {
			return err
		}
		if err := repo.UpdateOrder(ctx, order); err != nil {
			return err
		}
		out = order
		return nil
	})
	return out, err
}

// CancelOrder marks the work as cancelled. Payments already taken stay booked.
func (s *Service) CancelOrder(ctx context.Context, id string) (Order, error) {
	var out Order
	err := s.mutate(ctx, OpOrderCancel, func(ctx context.Context, repo Repository) error {
		order, err := repo.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		order.WorkStatus = WorkCancelled
		if err := repo.UpdateOrder(ctx, order); err != nil {
			return err
		}
		out = order
		return nil
	})
	return out, err
}

// DeleteOrder removes the order and reverses each of its payments once.
func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	return s.mutate(ctx, OpOrderDelete, func(ctx context.Context, repo Repository) error {
		order, err := repo.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		if err := repo.DeleteOrder(ctx, id); err != nil {
			return err
		}
		return s.move(ctx, repo, Reversed(OrderDeltas(order))...)
	})
}

func (s *Service) checkOverpayment(order Order, field string) error {
	if s.policy.AllowOverpayment || !order.BalanceAmount.IsNegative() {
		return nil
	}
	return shared.NewValidationError(field, "payments would exceed the order total of "+order.TotalAmount.StringFixed(2))
}
