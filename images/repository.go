package images

import (
	"context"
	"errors"
	"fmt"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ErrNotFound is returned when no image has the requested id
var ErrNotFound = errors.New("image not found")

// SearchFilter narrows a search. Zero values match everything.
type SearchFilter struct {
	Extension Extension
	Query     string
}

type Repository interface {
	Save(ctx context.Context, record *Image) (*Image, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Image, error)
	Search(ctx context.Context, filter SearchFilter) ([]*Image, error)
}

type store struct {
	records repository.Repository[*Image]
}

var _ Repository = (*store)(nil)

func NewRepository(db bun.IDB) Repository {
	return &store{
		records: repository.NewRepository[*Image](db, repository.ModelHandlers[*Image]{
			NewRecord: func() *Image { return &Image{} },
			GetID: func(img *Image) uuid.UUID {
				if img == nil {
					return uuid.Nil
				}
				return img.ID
			},
			SetID: func(img *Image, id uuid.UUID) {
				if img != nil {
					img.ID = id
				}
			},
			GetIdentifier: func() string {
				return "name"
			},
		}),
	}
}

func (r *store) Save(ctx context.Context, record *Image) (*Image, error) {
	if record == nil {
		return nil, fmt.Errorf("save image: nil record")
	}

	prepareImageDefaults(record)

	saved, err := r.records.Create(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("save image: %w", err)
	}

	return saved, nil
}

func (r *store) GetByID(ctx context.Context, id uuid.UUID) (*Image, error) {
	record, err := r.records.GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get image: %w", err)
	}

	return record, nil
}

// Search matches the query against the name or the tags, case
// insensitive, optionally restricted to one extension. Newest first,
// without the file bytes.
func (r *store) Search(ctx context.Context, filter SearchFilter) ([]*Image, error) {
	criteria := []repository.SelectCriteria{
		repository.ExcludeColumns("file"),
		// List pages by default, search returns everything
		repository.Paginate(0, 0),
	}

	if filter.Extension != "" {
		criteria = append(criteria, repository.SelectBy("extension", "=", string(filter.Extension)))
	}

	if query := strings.TrimSpace(filter.Query); query != "" {
		like := "%" + strings.ToLower(query) + "%"
		criteria = append(criteria, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.WhereGroup(" AND ", func(sq *bun.SelectQuery) *bun.SelectQuery {
				return sq.
					Where("LOWER(?TableAlias.name) LIKE ?", like).
					WhereOr("LOWER(?TableAlias.tags) LIKE ?", like)
			})
		}))
	}

	criteria = append(criteria, repository.SelectOrderDesc("uploaded_at"))

	records, _, err := r.records.List(ctx, criteria...)
	if err != nil {
		return nil, fmt.Errorf("search images: %w", err)
	}

	return records, nil
}
