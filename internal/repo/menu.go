package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/online_restaurant/internal/models"
)

func (r *GormRepo) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	return r.DB.WithContext(ctx).Create(item).Error
}

func (r *GormRepo) ListActiveMenu(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if err := r.DB.WithContext(ctx).Where("active = ?", true).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) ListMenu(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetActiveMenuItem(ctx context.Context, name string) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := r.DB.WithContext(ctx).
		Where("active = ? AND name = ?", true, name).
		Order("id ASC").
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ActiveMenuByNames maps each requested name to its active item; names with no
// active item are absent from the result.
func (r *GormRepo) ActiveMenuByNames(ctx context.Context, names []string) (map[string]models.MenuItem, error) {
	out := make(map[string]models.MenuItem, len(names))
	if len(names) == 0 {
		return out, nil
	}

	var items []models.MenuItem
	if err := r.DB.WithContext(ctx).
		Where("active = ? AND name IN ?", true, names).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	for _, it := range items {
		if _, seen := out[it.Name]; !seen {
			out[it.Name] = it
		}
	}
	return out, nil
}

func (r *GormRepo) ActiveMenuByIDs(ctx context.Context, ids []uint) ([]models.MenuItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.MenuItem
	if err := r.DB.WithContext(ctx).Where("active = ? AND id IN ?", true, ids).Find(&items).Error; err != nil {
		return nil, err
	}

	byID := make(map[uint]models.MenuItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	ordered := make([]models.MenuItem, 0, len(items))
	for _, id := range ids {
		if it, ok := byID[id]; ok {
			ordered = append(ordered, it)
		}
	}
	return ordered, nil
}

func (r *GormRepo) SearchActiveMenu(ctx context.Context, q string, offset, limit int) (int64, []models.MenuItem, error) {
	pattern := "%" + strings.ToLower(q) + "%"
	where := "active = ? AND (LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(ingredients) LIKE ?)"

	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.MenuItem{}).
		Where(where, true, pattern, pattern, pattern).
		Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.MenuItem
	if err := r.DB.WithContext(ctx).
		Where(where, true, pattern, pattern, pattern).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) ToggleMenuItem(ctx context.Context, id uint) (*models.MenuItem, error) {
	var item models.MenuItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.MenuItem{}).Where("id = ?", id).Update("active", gorm.Expr("NOT active"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.First(&item, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) DeleteMenuItem(ctx context.Context, id uint) (*models.MenuItem, error) {
	var item models.MenuItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, id).Error; err != nil {
			return err
		}
		return tx.Delete(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}
