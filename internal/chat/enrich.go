package chat

import (
	"context"
	"errors"

	"motomarket-chat/internal/apperrors"
	"motomarket-chat/internal/models"
	"motomarket-chat/internal/repositories"
)

func (s *Service) roomDetails(ctx context.Context, room models.ChatRoom) (models.ChatRoomDetails, error) {
	msgs, err := s.messages.ListMessages(ctx, room.ID)
	if err != nil {
		return models.ChatRoomDetails{}, apperrors.Internal("failed to load messages", err)
	}
	return s.buildDetails(ctx, []models.ChatRoom{room}, map[string][]models.Message{room.ID: msgs})[0], nil
}

// buildDetails enriches rooms with one identity lookup for all participants and senders.
// Lookup failures degrade to summaries carrying only the id.
func (s *Service) buildDetails(ctx context.Context, rooms []models.ChatRoom, msgs map[string][]models.Message) []models.ChatRoomDetails {
	ids := make([]string, 0, len(rooms)*2)
	seen := make(map[string]struct{})
	add := func(id string) {
		if _, ok := seen[id]; ok || id == "" {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, r := range rooms {
		add(r.BuyerID)
		add(r.SellerID)
		for _, m := range msgs[r.ID] {
			add(m.SenderID)
		}
	}
	users := s.lookupUsers(ctx, ids)

	vehicles := make(map[string]*models.VehicleSummary)
	details := make([]models.ChatRoomDetails, 0, len(rooms))
	for _, r := range rooms {
		vehicle, ok := vehicles[r.VehicleID]
		if !ok {
			vehicle = s.lookupVehicle(ctx, r.VehicleID)
			vehicles[r.VehicleID] = vehicle
		}

		views := make([]models.MessageView, 0, len(msgs[r.ID]))
		for _, m := range msgs[r.ID] {
			views = append(views, models.MessageView{Message: m, Sender: summaryFor(users, m.SenderID)})
		}
		details = append(details, models.ChatRoomDetails{
			ChatRoom: r,
			Vehicle:  vehicle,
			Buyer:    summaryFor(users, r.BuyerID),
			Seller:   summaryFor(users, r.SellerID),
			Messages: views,
		})
	}
	return details
}

func (s *Service) lookupUsers(ctx context.Context, ids []string) map[string]models.User {
	result := make(map[string]models.User, len(ids))
	if len(ids) == 0 {
		return result
	}
	users, err := s.users.GetUsers(ctx, ids)
	if err != nil {
		s.logger.Warn("identity lookup failed", "users", len(ids), "error", err)
		return result
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result
}

func (s *Service) lookupVehicle(ctx context.Context, vehicleID string) *models.VehicleSummary {
	v, err := s.vehicles.GetVehicle(ctx, vehicleID)
	if err != nil {
		if !errors.Is(err, repositories.ErrVehicleNotFound) {
			s.logger.Warn("vehicle lookup failed", "vehicle_id", vehicleID, "error", err)
		}
		return nil
	}
	return v.Summary()
}

func (s *Service) senderSummary(ctx context.Context, userID string) models.UserSummary {
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, repositories.ErrUserNotFound) {
			s.logger.Warn("identity lookup failed", "user_id", userID, "error", err)
		}
		return models.UserSummary{ID: userID}
	}
	return u.Summary()
}

func summaryFor(users map[string]models.User, id string) models.UserSummary {
	if u, ok := users[id]; ok {
		return u.Summary()
	}
	return models.UserSummary{ID: id}
}
