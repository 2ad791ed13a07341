package repositories

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"motomarket-chat/internal/models"
)

// FirestoreDirectoryRepo reads marketplace users and vehicles from Firestore.
type FirestoreDirectoryRepo struct {
	client *firestore.Client
}

func NewFirestoreDirectoryRepo(client *firestore.Client) *FirestoreDirectoryRepo {
	return &FirestoreDirectoryRepo{client: client}
}

func (r *FirestoreDirectoryRepo) GetUser(ctx context.Context, userID string) (models.User, error) {
	snap, err := r.client.Collection("users").Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	var u models.User
	if err := snap.DataTo(&u); err != nil {
		return models.User{}, fmt.Errorf("parse user: %w", err)
	}
	u.ID = snap.Ref.ID
	return u, nil
}

func (r *FirestoreDirectoryRepo) GetUsers(ctx context.Context, userIDs []string) ([]models.User, error) {
	users := []models.User{}
	if len(userIDs) == 0 {
		return users, nil
	}
	refs := make([]*firestore.DocumentRef, 0, len(userIDs))
	for _, id := range userIDs {
		refs = append(refs, r.client.Collection("users").Doc(id))
	}
	snaps, err := r.client.GetAll(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}
	for _, snap := range snaps {
		if !snap.Exists() {
			continue
		}
		var u models.User
		if err := snap.DataTo(&u); err != nil {
			return nil, fmt.Errorf("parse user: %w", err)
		}
		u.ID = snap.Ref.ID
		users = append(users, u)
	}
	return users, nil
}

func (r *FirestoreDirectoryRepo) GetVehicle(ctx context.Context, vehicleID string) (models.Vehicle, error) {
	snap, err := r.client.Collection("vehicles").Doc(vehicleID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return models.Vehicle{}, ErrVehicleNotFound
		}
		return models.Vehicle{}, fmt.Errorf("get vehicle: %w", err)
	}
	var v models.Vehicle
	if err := snap.DataTo(&v); err != nil {
		return models.Vehicle{}, fmt.Errorf("parse vehicle: %w", err)
	}
	v.ID = snap.Ref.ID
	return v, nil
}

var (
	_ UserRepository    = (*FirestoreDirectoryRepo)(nil)
	_ VehicleRepository = (*FirestoreDirectoryRepo)(nil)
)
