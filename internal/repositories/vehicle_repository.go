package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"motomarket-chat/internal/models"
)

var ErrVehicleNotFound = errors.New("vehicle not found")

// VehicleRepository reads marketplace listings.
type VehicleRepository interface {
	GetVehicle(ctx context.Context, vehicleID string) (models.Vehicle, error)
}

// VehicleRepo reads the vehicles table.
type VehicleRepo struct {
	db *sqlx.DB
}

func NewVehicleRepo(db *sqlx.DB) *VehicleRepo {
	return &VehicleRepo{db: db}
}

func (r *VehicleRepo) GetVehicle(ctx context.Context, vehicleID string) (models.Vehicle, error) {
	var v models.Vehicle
	err := r.db.GetContext(ctx, &v, `SELECT id, seller_id, brand, model, year, price, image_url FROM vehicles WHERE id=$1`, vehicleID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Vehicle{}, ErrVehicleNotFound
	}
	return v, err
}
