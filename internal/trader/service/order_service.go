package service

import (
	"context"
	"time"

	"stock-auto-trader/internal/entity"
	"stock-auto-trader/internal/trader/dto"
	"stock-auto-trader/internal/trader/repository"
	"stock-auto-trader/pkg/kafka"
	"stock-auto-trader/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderPlacement is one order the trader wants to place, plus the context
// recorded alongside it.
type OrderPlacement struct {
	Order          dto.OrderRequest
	DryRun         bool
	Reasons        []string
	CompositeScore float64
	Priority       int
}

// OrderService submits orders and records every attempt.
type OrderService interface {
	Place(ctx context.Context, p OrderPlacement) dto.OrderOutcome
}

type orderService struct {
	log          *logger.Logger
	broker       repository.BrokerRepository
	orderLogRepo repository.OrderLogRepository
	publisher    kafka.Publisher
	now          func() time.Time
}

func NewOrderService(log *logger.Logger, broker repository.BrokerRepository, orderLogRepo repository.OrderLogRepository, publisher kafka.Publisher) OrderService {
	return &orderService{
		log:          log,
		broker:       broker,
		orderLogRepo: orderLogRepo,
		publisher:    publisher,
		now:          time.Now,
	}
}

// Place never returns an error: broker and transport failures are recorded as
// a failed outcome so the caller can move on to the next ticker.
func (s *orderService) Place(ctx context.Context, p OrderPlacement) dto.OrderOutcome {
	req := p.Order
	fields := []zap.Field{
		logger.StringField("ticker", req.Ticker),
		logger.StringField("side", string(req.Side)),
		logger.Field("quantity", req.Quantity),
		logger.StringField("price", req.Price.String()),
		logger.BoolField("dry_run", p.DryRun),
	}

	status := entity.OrderStatusDryRun
	var orderNumber, message string
	if !p.DryRun {
		res, err := s.broker.SubmitOrder(ctx, req)
		switch {
		case err != nil:
			status, message = entity.OrderStatusFailed, err.Error()
			s.log.ErrorContext(ctx, "Failed to submit order", append(fields, logger.ErrorField(err))...)
		case !res.Success:
			status, message = entity.OrderStatusFailed, res.Message
		default:
			status, orderNumber, message = entity.OrderStatusAccepted, res.OrderNumber, res.Message
		}
	}

	amount := req.Price.Mul(decimal.NewFromInt(req.Quantity))
	orderLog := &entity.OrderLog{
		Ticker:         req.Ticker,
		Exchange:       req.Exchange,
		Side:           req.Side,
		Quantity:       req.Quantity,
		Price:          req.Price,
		Amount:         amount,
		Status:         status,
		BrokerOrderID:  orderNumber,
		Message:        message,
		Reasons:        p.Reasons,
		CompositeScore: p.CompositeScore,
		Priority:       p.Priority,
	}
	if err := s.orderLogRepo.Create(ctx, orderLog); err != nil {
		s.log.ErrorContext(ctx, "Failed to store order log", append(fields, logger.ErrorField(err))...)
	}

	event := dto.OrderEvent{
		EventID:        uuid.NewString(),
		Ticker:         req.Ticker,
		Exchange:       req.Exchange,
		Side:           req.Side,
		Quantity:       req.Quantity,
		Price:          req.Price,
		Amount:         amount,
		Status:         string(status),
		BrokerOrderID:  orderNumber,
		Message:        message,
		Reasons:        p.Reasons,
		CompositeScore: p.CompositeScore,
		Priority:       p.Priority,
		OccurredAt:     s.now(),
	}
	if err := s.publisher.Publish(ctx, req.Ticker, event); err != nil {
		s.log.ErrorContext(ctx, "Failed to publish order event", append(fields, logger.ErrorField(err))...)
	}

	s.log.InfoContext(ctx, "Order placed", append(fields, logger.StringField("status", string(status)))...)

	outcome := dto.OrderOutcome{
		Ticker:      req.Ticker,
		Side:        req.Side,
		Quantity:    req.Quantity,
		Price:       req.Price,
		Status:      string(status),
		OrderNumber: orderNumber,
	}
	if status == entity.OrderStatusFailed {
		outcome.Error = message
	}
	return outcome
}
