package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/inoutbooks/internal/collection"
	"github.com/patric-chuzhbe/inoutbooks/internal/logger"
	"github.com/patric-chuzhbe/inoutbooks/internal/models"
)

const (
	MsgInvalidBookID        = "Invalid book ID"
	MsgBookTitleRequired    = "Book title is required"
	MsgIDMustBeNumber       = "ID must be a number"
	MsgMissingTitleOnUpdate = "Bad Request: Missing title"
)

// Books serves the book catalog.
type Books struct {
	db store
}

func NewBooks(db store) *Books {
	return &Books{db: db}
}

// List returns the whole catalog, records as stored, in insertion order.
func (s *Books) List(ctx context.Context) ([]collection.Record, error) {
	records, err := s.db.Find(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("find books: %w", err)
	}

	return records, nil
}

// Get returns the first book with the given id, or nil when there is none.
func (s *Books) Get(ctx context.Context, rawID string) (collection.Record, error) {
	id, ok := parseID(rawID)
	if !ok {
		return nil, newValidationError(MsgInvalidBookID)
	}

	record, found, err := s.db.FindOne(ctx, collection.Record{"id": id})
	if err != nil {
		return nil, fmt.Errorf("find book %d: %w", id, err)
	}
	if !found {
		return nil, nil
	}

	return record, nil
}

// Create appends a book and returns the stored record. Id and author are
// kept as sent; duplicate ids are accepted. An absent id gets the next
// integer after the current maximum.
func (s *Books) Create(ctx context.Context, request models.CreateBookRequest) (collection.Record, error) {
	if err := validate.Struct(request); err != nil {
		return nil, newValidationError(MsgBookTitleRequired)
	}

	book := collection.Record{"title": request.Title}

	if request.Author != nil {
		author, err := decodeRaw(request.Author)
		if err != nil {
			return nil, err
		}
		book["author"] = author
	}

	if request.ID == nil {
		id, err := s.nextID(ctx)
		if err != nil {
			return nil, err
		}
		book["id"] = id
	} else {
		id, err := decodeRaw(request.ID)
		if err != nil {
			return nil, err
		}
		book["id"] = id

		duplicate, err := s.idExists(ctx, id)
		if err != nil {
			return nil, err
		}
		if duplicate {
			logger.Log.Warnw("inserting a book with an id already in use", "id", id)
		}
	}

	committed, err := s.db.InsertOne(ctx, book)
	if err != nil {
		return nil, fmt.Errorf("insert book: %w", err)
	}

	return committed, nil
}

// Update overwrites title and, when given, author of the first book with the
// given id. A missing book is not reported.
func (s *Books) Update(ctx context.Context, rawID string, request models.UpdateBookRequest) error {
	id, ok := parseID(rawID)
	if !ok {
		return newValidationError(MsgIDMustBeNumber)
	}

	if err := validate.Struct(request); err != nil {
		return newValidationError(MsgMissingTitleOnUpdate)
	}

	patch := collection.Record{"title": request.Title}
	if request.Author != nil {
		author, err := decodeRaw(request.Author)
		if err != nil {
			return err
		}
		patch["author"] = author
	}

	err := s.db.UpdateOne(ctx, collection.Record{"id": id}, patch)
	if errors.Is(err, collection.ErrNotFound) {
		logger.Log.Debugw("update of a missing book ignored", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("update book %d: %w", id, err)
	}

	return nil
}

// Delete removes the first book with the given id. An id without digits matches nothing.
func (s *Books) Delete(ctx context.Context, rawID string) error {
	id, ok := parseID(rawID)
	if !ok {
		logger.Log.Debugw("delete with a non-numeric book id ignored", "id", rawID)
		return nil
	}

	if err := s.db.DeleteOne(ctx, collection.Record{"id": id}); err != nil {
		return fmt.Errorf("delete book %d: %w", id, err)
	}

	return nil
}

func (s *Books) idExists(ctx context.Context, id any) (bool, error) {
	_, found, err := s.db.FindOne(ctx, collection.Record{"id": id})
	if err != nil {
		return false, fmt.Errorf("find book %v: %w", id, err)
	}

	return found, nil
}

// nextID looks only at numeric ids; a catalog without any starts at 1.
func (s *Books) nextID(ctx context.Context) (int, error) {
	records, err := s.List(ctx)
	if err != nil {
		return 0, err
	}

	numeric := funk.Filter(records, func(record collection.Record) bool {
		_, ok := record["id"].(float64)
		return ok
	})
	ids := funk.Map(numeric, func(record collection.Record) float64 {
		return record["id"].(float64)
	}).([]float64)
	if len(ids) == 0 {
		return 1, nil
	}

	return int(math.Floor(funk.MaxFloat64(ids))) + 1, nil
}

func decodeRaw(raw json.RawMessage) (any, error) {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, newValidationError(MsgBadRequest, err.Error())
	}

	return value, nil
}
