package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/online_restaurant/internal/events"
	"github.com/Skotchmaster/online_restaurant/internal/models"
	"github.com/Skotchmaster/online_restaurant/internal/repo"
	"github.com/Skotchmaster/online_restaurant/internal/search"
	"github.com/Skotchmaster/online_restaurant/internal/util"
	"github.com/Skotchmaster/online_restaurant/pkg/logging"
)

type ImageStore interface {
	Save(original string, r io.Reader) (string, error)
	Remove(name string) error
}

type MenuService struct {
	Repo   *repo.GormRepo
	Images ImageStore
	Index  search.Index
	Events events.Publisher
}

// MenuItemInput carries the raw form fields of a new dish.
type MenuItemInput struct {
	Name        string
	Ingredients string
	Description string
	Price       string
	Weight      string
}

func (in MenuItemInput) toModel() (*models.MenuItem, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}
	price, err := strconv.Atoi(strings.TrimSpace(in.Price))
	if err != nil || price < 0 {
		return nil, fmt.Errorf("%w: price must be a non-negative integer", ErrValidation)
	}
	weight, err := strconv.Atoi(strings.TrimSpace(in.Weight))
	if err != nil || weight < 0 {
		return nil, fmt.Errorf("%w: weight must be a non-negative integer", ErrValidation)
	}
	return &models.MenuItem{
		Name:        name,
		Ingredients: strings.TrimSpace(in.Ingredients),
		Description: strings.TrimSpace(in.Description),
		Price:       price,
		Weight:      weight,
		Active:      true,
	}, nil
}

type SearchResult struct {
	Query string            `json:"query"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Pages int               `json:"pages"`
	Items []models.MenuItem `json:"items"`
}

func (s *MenuService) ListActive(ctx context.Context) ([]models.MenuItem, error) {
	return s.Repo.ListActiveMenu(ctx)
}

func (s *MenuService) GetActive(ctx context.Context, name string) (*models.MenuItem, error) {
	item, err := s.Repo.GetActiveMenuItem(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: dish %q", ErrNotFound, name)
		}
		return nil, err
	}
	return item, nil
}

func (s *MenuService) ListAll(ctx context.Context, p Principal) ([]models.MenuItem, error) {
	if err := EnsureAdmin(p); err != nil {
		return nil, err
	}
	return s.Repo.ListMenu(ctx)
}

func (s *MenuService) Create(ctx context.Context, p Principal, in MenuItemInput, imageName string, image io.Reader) (*models.MenuItem, error) {
	if err := EnsureAdmin(p); err != nil {
		return nil, err
	}
	item, err := in.toModel()
	if err != nil {
		return nil, err
	}
	if image == nil || strings.TrimSpace(imageName) == "" {
		return nil, fmt.Errorf("%w: image file required", ErrValidation)
	}

	fileName, err := s.Images.Save(imageName, image)
	if err != nil {
		return nil, err
	}
	item.FileName = fileName

	if err := s.Repo.CreateMenuItem(ctx, item); err != nil {
		_ = s.Images.Remove(fileName)
		return nil, err
	}

	s.reindex(ctx, *item)
	publish(ctx, s.Events, events.TopicMenu, itemKey(item.ID), events.New("menu_created", item))
	return item, nil
}

func (s *MenuService) ToggleActive(ctx context.Context, p Principal, id uint) (*models.MenuItem, error) {
	if err := EnsureAdmin(p); err != nil {
		return nil, err
	}
	item, err := s.Repo.ToggleMenuItem(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: menu item %d", ErrNotFound, id)
		}
		return nil, err
	}

	s.reindex(ctx, *item)
	publish(ctx, s.Events, events.TopicMenu, itemKey(item.ID),
		events.New("menu_toggled", map[string]any{"id": item.ID, "active": item.Active}))
	return item, nil
}

func (s *MenuService) Delete(ctx context.Context, p Principal, id uint) error {
	if err := EnsureAdmin(p); err != nil {
		return err
	}
	item, err := s.Repo.DeleteMenuItem(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: menu item %d", ErrNotFound, id)
		}
		return err
	}

	l := logging.FromContext(ctx).With("svc", "menu.delete", "id", id)
	if s.Images != nil {
		if err := s.Images.Remove(item.FileName); err != nil {
			l.Warn("image_remove_error", "file", item.FileName, "error", err)
		}
	}
	if s.Index != nil {
		if err := s.Index.DeleteMenuItem(ctx, id); err != nil {
			l.Warn("index_delete_error", "error", err)
		}
	}
	publish(ctx, s.Events, events.TopicMenu, itemKey(id), events.New("menu_deleted", map[string]any{"id": id}))
	return nil
}

// Search queries the full-text index when one is configured and falls back to
// a substring match in the database otherwise or when the index fails.
func (s *MenuService) Search(ctx context.Context, query string, page, size int) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query required", ErrValidation)
	}
	from, limit := util.Calculate(page, size)
	if page < 1 {
		page = 1
	}
	res := &SearchResult{Query: query, Page: page}

	if s.Index != nil {
		total, ids, err := s.Index.SearchMenu(ctx, query, from, limit)
		if err == nil {
			items, err := s.Repo.ActiveMenuByIDs(ctx, ids)
			if err != nil {
				return nil, err
			}
			res.Total, res.Items = total, items
			res.Pages = util.Pages(total, limit)
			return res, nil
		}
		logging.FromContext(ctx).Warn("search_index_error", "query", query, "error", err)
	}

	total, items, err := s.Repo.SearchActiveMenu(ctx, query, from, limit)
	if err != nil {
		return nil, err
	}
	res.Total, res.Items = total, items
	res.Pages = util.Pages(total, limit)
	return res, nil
}

func (s *MenuService) reindex(ctx context.Context, item models.MenuItem) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexMenuItem(ctx, item); err != nil {
		logging.FromContext(ctx).Warn("index_error", "id", item.ID, "error", err)
	}
}

func itemKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
