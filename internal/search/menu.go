package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/online_restaurant/internal/models"
)

const MenuIndex = "menu"

type Document struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Ingredients string `json:"ingredients"`
	Description string `json:"description"`
	Price       int    `json:"price"`
	Active      bool   `json:"active"`
}

func DocumentFrom(item models.MenuItem) Document {
	return Document{
		ID:          item.ID,
		Name:        item.Name,
		Ingredients: item.Ingredients,
		Description: item.Description,
		Price:       item.Price,
		Active:      item.Active,
	}
}

// Index is the menu full-text index. Search returns matching item ids in
// relevance order.
type Index interface {
	IndexMenuItem(ctx context.Context, item models.MenuItem) error
	DeleteMenuItem(ctx context.Context, id uint) error
	SearchMenu(ctx context.Context, query string, from, size int) (int64, []uint, error)
}

type ESIndex struct {
	Client *elasticsearch.Client
	Name   string
}

func NewESIndex(client *elasticsearch.Client) *ESIndex {
	return &ESIndex{Client: client, Name: MenuIndex}
}

func (x *ESIndex) IndexMenuItem(ctx context.Context, item models.MenuItem) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(DocumentFrom(item)); err != nil {
		return fmt.Errorf("index error: %w", err)
	}

	res, err := x.Client.Index(
		x.Name,
		&buf,
		x.Client.Index.WithContext(ctx),
		x.Client.Index.WithDocumentID(strconv.FormatUint(uint64(item.ID), 10)),
		x.Client.Index.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("index error: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index", res.Status(), res.Body)
	}
	return nil
}

func (x *ESIndex) DeleteMenuItem(ctx context.Context, id uint) error {
	res, err := x.Client.Delete(
		x.Name,
		strconv.FormatUint(uint64(id), 10),
		x.Client.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("delete error: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return responseError("delete", res.Status(), res.Body)
	}
	return nil
}

func (x *ESIndex) SearchMenu(ctx context.Context, query string, from, size int) (int64, []uint, error) {
	body := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":     query,
						"fields":    []string{"name^2", "ingredients", "description"},
						"fuzziness": "AUTO",
					},
				},
				"filter": map[string]any{
					"term": map[string]any{"active": true},
				},
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search error: %w", err)
	}

	res, err := x.Client.Search(
		x.Client.Search.WithContext(ctx),
		x.Client.Search.WithIndex(x.Name),
		x.Client.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search error: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, responseError("search", res.Status(), res.Body)
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("search error: %w", err)
	}

	ids := make([]uint, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		ids[i] = hit.Source.ID
	}
	return r.Hits.Total.Value, ids, nil
}

func responseError(op, status string, body io.Reader) error {
	msg, _ := io.ReadAll(body)
	return fmt.Errorf("%s error: %s: %s", op, status, msg)
}
