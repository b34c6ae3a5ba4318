package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ekuatta/villapay/internal/availability"
	"github.com/ekuatta/villapay/internal/gateway"
	"github.com/ekuatta/villapay/internal/middleware"
	"github.com/ekuatta/villapay/internal/model"
	"github.com/ekuatta/villapay/internal/pricing"
	"github.com/ekuatta/villapay/internal/redis"
	"github.com/ekuatta/villapay/pkg/constants"
	"github.com/ekuatta/villapay/pkg/types"
)

// CreateResult pairs the persisted booking with the provider order the
// client completes payment against.
type CreateResult struct {
	Booking *model.Booking       `json:"booking"`
	Order   *types.ProviderOrder `json:"order"`
}

// orderCreator is the provider seam: satisfied by gateway.ProviderClient,
// faked in tests.
type orderCreator interface {
	CreateOrder(ctx context.Context, creds *gateway.Credentials, req *types.CreateOrderRequest) (*types.ProviderOrder, error)
}

// Service is the orchestrator: availability, pricing, gateway resolution,
// persistence and provider order creation in one sequence.
type Service struct {
	repo     Repository
	checker  *availability.Checker
	engine   *pricing.Engine
	resolver *gateway.Resolver
	provider orderCreator
	redis    *redis.Client
	currency string
}

func NewService(repo Repository, checker *availability.Checker, engine *pricing.Engine, resolver *gateway.Resolver, provider orderCreator, redisClient *redis.Client) *Service {
	return &Service{
		repo:     repo,
		checker:  checker,
		engine:   engine,
		resolver: resolver,
		provider: provider,
		redis:    redisClient,
		currency: "INR",
	}
}

// Create runs the booking sequence under a per-property lock so the
// availability check and the insert are one serialized step for this
// process; the exclusion constraint backstops racing writers elsewhere.
// Redis is an optional side-channel: with a nil client the lock and the
// idempotency cache are skipped and the constraint alone decides races.
func (s *Service) Create(ctx context.Context, req *types.CreateBookingRequest, idempotencyKey string) (*CreateResult, error) {
	logger := middleware.GetLogger(ctx)

	if s.redis == nil {
		return s.create(ctx, req)
	}

	cached, err := s.redis.CheckAndSetIdempotency(ctx, idempotencyKey, 24*time.Hour)
	if cached != nil {
		logger.Info().Msg("Returning cached booking response due to idempotency key")
		var res CreateResult
		if err := json.Unmarshal(cached, &res); err == nil {
			return &res, nil
		}
	}
	if errors.Is(err, redis.ErrKeyExists) {
		logger.Warn().Msg("Request still in progress with same idempotency key")
		return nil, ErrRequestInProgress
	}
	if err != nil {
		return nil, err
	}

	res, err := s.create(ctx, req)
	if err != nil {
		s.redis.MarkIdempotencyFailed(ctx, idempotencyKey)
		return nil, err
	}

	if responseBytes, err := json.Marshal(res); err == nil {
		s.redis.MarkIdempotencyComplete(ctx, idempotencyKey, responseBytes, 24*time.Hour)
	}

	return res, nil
}

func (s *Service) create(ctx context.Context, req *types.CreateBookingRequest) (*CreateResult, error) {
	logger := middleware.GetLogger(ctx)

	if !req.EndDate.After(req.StartDate) {
		return nil, fmt.Errorf("end date must be after start date")
	}

	property, err := s.repo.PropertyByID(ctx, req.PropertyID)
	if err != nil {
		return nil, err
	}

	roomTypes, err := s.repo.RoomTypes(ctx, req.PropertyID, req.RoomTypeIDs)
	if err != nil {
		return nil, err
	}
	if len(roomTypes) != len(req.RoomTypeIDs) {
		return nil, ErrRoomNotFound
	}

	// Resolve the gateway before touching the calendar: a payer who cannot
	// accept payments must not create a booking row at all.
	resolution, err := s.resolveGateway(ctx, property, req.BrokerID)
	if err != nil {
		return nil, err
	}

	var coupon *model.Coupon
	if req.CouponCode != "" {
		coupon, err = s.repo.CouponByCode(ctx, req.CouponCode)
		if errors.Is(err, ErrCouponNotFound) {
			return nil, &pricing.CouponError{Code: req.CouponCode, Reason: "unknown code"}
		}
		if err != nil {
			return nil, err
		}
	}

	quote, err := s.engine.Price(&pricing.QuoteInput{
		PropertyID:   req.PropertyID,
		Rooms:        roomSelections(roomTypes),
		DurationType: req.DurationType,
		Start:        req.StartDate,
		End:          req.EndDate,
		Guests:       req.Guests,
		Coupon:       coupon,
		BrokerID:     req.BrokerID,
	})
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		lock, err := s.redis.AcquireLock(ctx, "booking:property:"+req.PropertyID.String(), 10*time.Second)
		if err != nil {
			logger.Warn().Err(err).Str("property_id", req.PropertyID.String()).Msg("Failed to acquire property booking lock")
			return nil, ErrPropertyBusy
		}
		defer lock.Release(ctx)
	}

	result, err := s.checker.Check(ctx, req.PropertyID, req.RoomTypeIDs, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if !result.Available {
		return nil, &ConflictError{Conflicts: result.Conflicts}
	}

	b := &model.Booking{
		PropertyID:         req.PropertyID,
		RoomTypeIDs:        req.RoomTypeIDs,
		CustomerID:         req.CustomerID,
		BrokerID:           req.BrokerID,
		OwnerID:            property.OwnerID,
		StartAt:            req.StartDate,
		EndAt:              req.EndDate,
		DurationType:       req.DurationType,
		Guests:             req.Guests,
		CouponCode:         req.CouponCode,
		TotalAmount:        quote.Total,
		PlatformCommission: quote.PlatformCommission,
		BrokerCommission:   quote.BrokerCommission,
		NetToOwner:         quote.NetToOwner,
		Status:             constants.BookingPending,
		PaymentStatus:      constants.PaymentPending,
	}

	if err := s.repo.CreateBooking(ctx, b); err != nil {
		return nil, err
	}

	orderReq := &types.CreateOrderRequest{
		Amount:   quote.Total,
		Currency: s.currency,
		Receipt:  b.ID.String(),
	}
	orderReq.Notes.BookingID = b.ID.String()

	order, err := s.provider.CreateOrder(ctx, resolution.Credentials, orderReq)
	if err != nil {
		// The booking row exists but no order does; cancel it rather than
		// leave an orphaned hold on the calendar.
		if cancelErr := s.repo.CancelBooking(ctx, b.ID); cancelErr != nil {
			logger.Error().Err(cancelErr).Str("booking_id", b.ID.String()).Msg("Failed to cancel booking after order creation failure")
		}
		return nil, err
	}

	payment := &model.Payment{
		BookingID:       b.ID,
		GatewayConfigID: resolution.Config.ID,
		GatewayType:     resolution.Config.GatewayType,
		Amount:          quote.Total,
		Status:          constants.PaymentPending,
		GatewayOrderID:  order.OrderID,
		RawResponse:     order.Raw,
	}
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		if cancelErr := s.repo.CancelBooking(ctx, b.ID); cancelErr != nil {
			logger.Error().Err(cancelErr).Str("booking_id", b.ID.String()).Msg("Failed to cancel booking after payment persistence failure")
		}
		return nil, err
	}

	if coupon != nil {
		if err := s.repo.IncrementCouponUse(ctx, coupon.Code); err != nil {
			logger.Warn().Err(err).Str("coupon", coupon.Code).Msg("Failed to increment coupon usage")
		}
	}

	logger.Info().
		Str("booking_id", b.ID.String()).
		Str("gateway", resolution.Config.GatewayType).
		Str("gateway_source", resolution.Source).
		Int64("total", quote.Total).
		Msg("Booking created")

	return &CreateResult{Booking: b, Order: order}, nil
}

// resolveGateway picks whose credentials process the money: the broker's
// when one referred the booking, otherwise the owner's, either falling back
// to the platform default.
func (s *Service) resolveGateway(ctx context.Context, property *model.Property, brokerID *uuid.UUID) (*gateway.Resolution, error) {
	payerID := property.OwnerID
	payerRole := constants.RoleOwner
	if brokerID != nil {
		payerID = *brokerID
		payerRole = constants.RoleBroker
	}

	resolution, err := s.resolver.Resolve(ctx, payerID, payerRole)
	if err != nil {
		return nil, err
	}
	if !resolution.CanAcceptPayments {
		return nil, gateway.ErrNoGateway
	}
	return resolution, nil
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	if err := s.repo.CancelBooking(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.BookingByID(ctx, id)
}

func (s *Service) CheckAvailability(ctx context.Context, req *types.CheckAvailabilityRequest) (*availability.Result, error) {
	return s.checker.Check(ctx, req.PropertyID, req.RoomTypeIDs, req.StartDate, req.EndDate)
}

func roomSelections(roomTypes []*model.RoomType) []pricing.RoomSelection {
	selections := make([]pricing.RoomSelection, 0, len(roomTypes))
	for _, rt := range roomTypes {
		selections = append(selections, pricing.RoomSelection{
			RoomTypeID:        rt.ID,
			Capacity:          rt.Capacity,
			PricePerNight:     rt.PricePerNight,
			PricePerHour:      rt.PricePerHour,
			ExtraPersonCharge: rt.ExtraPersonCharge,
		})
	}
	return selections
}
