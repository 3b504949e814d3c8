// Package books implements the catalog read path: book listing and detail
// projections from the shared bookstore table.
package books

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"go.uber.org/zap"

	"github.com/bookstore-labs/go-bookstore-backend/internal/store"
)

// EntityBook tags book rows in the table.
const EntityBook = "book"

// latestScanLimit bounds the unfiltered listing.
const latestScanLimit = 10

// ErrNotFound is returned when no book row exists for an id.
var ErrNotFound = errors.New("book not found")

// Book is the book row; PK and SK both hold the book id.
type Book struct {
	PK            string `dynamodbav:"PK"`
	SK            string `dynamodbav:"SK"`
	EntityType    string `dynamodbav:"EntityType"`
	Title         string `dynamodbav:"Title"`
	Author        string `dynamodbav:"Author"`
	PublishedDate string `dynamodbav:"PublishedDate"`
}

// BookDetail is the wire projection of one book.
type BookDetail struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	PublishedDate string `json:"publishedDate"`
}

// Service serves the book read path.
type Service struct {
	store *store.Store
	log   *zap.Logger
}

// NewService creates the book read service.
func NewService(s *store.Store, log *zap.Logger) *Service {
	return &Service{store: s, log: log}
}

// List returns books matching filter=value via the corresponding GSI, or
// the latest few books when no filter is given.
func (s *Service) List(ctx context.Context, filter, value string) ([]BookDetail, error) {
	var rows []store.Item
	var err error

	if filter != "" {
		s.log.Info("query for books by filter", zap.String("filter", filter), zap.String("value", value))
		rows, err = s.store.QueryIndex(ctx, filter+"Index", filter, value, EntityBook)
	} else {
		s.log.Info("scanning table for latest books")
		rows, err = s.store.ScanLimit(ctx, EntityBook, latestScanLimit)
	}
	if err != nil {
		return nil, err
	}

	result := make([]BookDetail, 0, len(rows))
	for _, row := range rows {
		b, err := decode(row)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}
	return result, nil
}

// GetDetail returns one book by id, or ErrNotFound.
func (s *Service) GetDetail(ctx context.Context, bookID string) (*BookDetail, error) {
	row, err := s.store.GetItem(ctx, bookID, bookID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrNotFound
	}
	return decode(row)
}

func decode(row store.Item) (*BookDetail, error) {
	var b Book
	if err := attributevalue.UnmarshalMap(row, &b); err != nil {
		return nil, fmt.Errorf("unmarshal book: %w", err)
	}
	return &BookDetail{
		ID:            b.PK,
		Title:         b.Title,
		Author:        b.Author,
		PublishedDate: b.PublishedDate,
	}, nil
}
