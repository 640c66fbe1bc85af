package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/online_restaurant/internal/models"
)

var (
	ErrUnknownTableType = errors.New("unknown table type")
	ErrAlreadyReserved  = errors.New("user already holds a reservation")
	ErrNoCapacity       = errors.New("no tables of this type left")
)

// AdmitReservation inserts res when the user holds no reservation and the
// table type still has capacity. The capacity row is locked for the duration
// of the transaction; reservations.user_id is unique.
func (r *GormRepo) AdmitReservation(ctx context.Context, res *models.Reservation) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var capRow models.TableCapacity
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("type_table = ?", res.TypeTable).
			First(&capRow).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUnknownTableType
			}
			return err
		}

		var held int64
		if err := tx.Model(&models.Reservation{}).Where("user_id = ?", res.UserID).Count(&held).Error; err != nil {
			return err
		}
		if held > 0 {
			return ErrAlreadyReserved
		}

		var taken int64
		if err := tx.Model(&models.Reservation{}).Where("type_table = ?", res.TypeTable).Count(&taken).Error; err != nil {
			return err
		}
		if taken >= int64(capRow.Capacity) {
			return ErrNoCapacity
		}

		if err := tx.Create(res).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyReserved
			}
			return err
		}
		return nil
	})
}

func (r *GormRepo) GetReservationByUser(ctx context.Context, userID uint) (*models.Reservation, error) {
	var res models.Reservation
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&res).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *GormRepo) ListReservations(ctx context.Context) ([]models.Reservation, error) {
	var out []models.Reservation
	if err := r.DB.WithContext(ctx).
		Preload("User").
		Order("time_start ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormRepo) CountReservations(ctx context.Context, typeTable string) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Reservation{}).Where("type_table = ?", typeTable).Count(&n).Error
	return n, err
}

func (r *GormRepo) ListCapacities(ctx context.Context) ([]models.TableCapacity, error) {
	var out []models.TableCapacity
	if err := r.DB.WithContext(ctx).Order("type_table ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormRepo) DeleteReservation(ctx context.Context, id uint) (*models.Reservation, error) {
	var res models.Reservation
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&res, id).Error; err != nil {
			return err
		}
		return tx.Delete(&res).Error
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *GormRepo) DeleteReservationByUser(ctx context.Context, userID uint) (*models.Reservation, error) {
	var res models.Reservation
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).First(&res).Error; err != nil {
			return err
		}
		return tx.Delete(&res).Error
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}
