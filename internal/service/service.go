package service

import (
	"context"
	"io"
	"strings"

	"backoffice-api/internal/apperrors"
	"backoffice-api/internal/model"
	"backoffice-api/pkg/validator"
)

// Notifier receives events after a change has been committed.
type Notifier interface {
	Publish(event model.Event)
}

type nopNotifier struct{}

func (nopNotifier) Publish(model.Event) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

// AssetStore keeps uploaded files. Models only store the returned keys.
type AssetStore interface {
	PutAsset(ctx context.Context, filename string, body io.Reader, contentType string) (string, error)
	DeleteAsset(ctx context.Context, key string) error
	DeleteAssets(ctx context.Context, keys []string) error
	URLFor(key string) string
}

// Page is one page of a listing.
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

// validate runs struct validation and converts failures into an apperrors.ValidationError.
func validate(req any) error {
	errs := validator.ValidateStruct(req)
	if len(errs) == 0 {
		return nil
	}
	fields := make([]apperrors.FieldError, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, apperrors.FieldError{Field: fieldName(e.FailedField), Tag: e.Tag, Param: e.Value})
	}
	return &apperrors.ValidationError{Fields: fields}
}

// fieldName drops the struct type prefix from a validator namespace.
func fieldName(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 0 {
		limit = 0
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
