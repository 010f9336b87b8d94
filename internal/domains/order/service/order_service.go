package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"roastery-backend/internal/domains/order/model"
	"roastery-backend/internal/domains/order/repository"
)

type orderService struct {
	repo repository.OrderRepository
}

func NewOrderService(repo repository.OrderRepository) OrderService {
	return &orderService{repo: repo}
}

// GetForUser chỉ trả order của chính user; order của người khác coi như không tồn tại
func (s *orderService) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*model.Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.BelongsTo(userID) {
		return nil, model.ErrOrderNotFound
	}
	return o, nil
}

func (s *orderService) ListForUser(ctx context.Context, userID uuid.UUID, req model.ListOrdersRequest) (*model.ListOrdersResponse, error) {
	return s.list(ctx, &userID, req)
}

func (s *orderService) GetByID(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	return s.repo.GetByID(ctx, orderID)
}

func (s *orderService) AdminList(ctx context.Context, req model.ListOrdersRequest) (*model.ListOrdersResponse, error) {
	return s.list(ctx, nil, req)
}

func (s *orderService) list(ctx context.Context, userID *uuid.UUID, req model.ListOrdersRequest) (*model.ListOrdersResponse, error) {
	req.SetDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	orders, total, err := s.repo.List(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	return &model.ListOrdersResponse{Orders: orders, Total: total}, nil
}

// UpdateStatus kiểm tra transition rồi update có điều kiện theo status cũ
func (s *orderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, next model.OrderStatus, actorID uuid.UUID) (*model.Order, error) {
	if !next.IsValid() {
		return nil, model.ErrInvalidStatus
	}

	current, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !current.Status.CanTransitionTo(next) {
		return nil, model.ErrInvalidTransition
	}

	updated, err := s.repo.UpdateStatus(ctx, orderID, current.Status, next)
	if err != nil {
		if errors.Is(err, model.ErrStatusConflict) {
			log.Warn().Str("order_id", orderID.String()).Msg("order status changed concurrently")
		}
		return nil, err
	}
	updated.Items = current.Items

	log.Info().
		Str("order_id", orderID.String()).
		Str("from", current.Status.String()).
		Str("to", next.String()).
		Str("actor_id", actorID.String()).
		Msg("order status updated")
	return updated, nil
}
