package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/BearBump/RetailDesk/internal/cache"
	"github.com/BearBump/RetailDesk/internal/models"
	"go.uber.org/zap"
)

const DefaultCacheTTL = 6 * time.Hour

var (
	ErrInvalidCode  = errors.New("invalid inventory code")
	ErrItemNotFound = errors.New("inventory item not found")
	ErrStore        = errors.New("inventory store error")
)

type SearchType string

const (
	SearchUPC         SearchType = "upc"
	SearchSKU         SearchType = "sku"
	SearchStyleNumber SearchType = "styleNumber"
)

var (
	codeRe    = regexp.MustCompile(`^[A-Za-z0-9_-]{1,50}$`)
	upcLikeRe = regexp.MustCompile(`^[0-9]{11,13}$`)
	upcRe     = regexp.MustCompile(`^[0-9]{12,13}$`)
	lettersRe = regexp.MustCompile(`[A-Za-z]`)
)

type Repository interface {
	FindInventoryByUPC(ctx context.Context, upc string) ([]*models.InventoryItem, error)
	FindInventoryBySKU(ctx context.Context, sku string) ([]*models.InventoryItem, error)
	FindInventoryByStyleNumber(ctx context.Context, styleNumber string) ([]*models.InventoryItem, error)
}

type LookupResult struct {
	SearchType SearchType              `json:"search_type"`
	Code       string                  `json:"code"`
	Items      []*models.InventoryItem `json:"items"`
}

type Service struct {
	repo  Repository
	cache cache.BytesCache
	ttl   time.Duration
	log   *zap.Logger
}

func New(repo Repository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, ttl: DefaultCacheTTL, log: log}
}

func (s *Service) WithCache(c cache.BytesCache, ttl time.Duration) *Service {
	s.cache = c
	if ttl > 0 {
		s.ttl = ttl
	}
	return s
}

// Detect classifies a scanned or typed code. Numeric codes of 11 to 13 digits
// are barcodes; a barcode is left-padded to 13 digits and must have at least 12.
// Codes with letters are style numbers, everything else is a SKU.
func Detect(code string) (SearchType, string, error) {
	code = strings.TrimSpace(code)
	if !codeRe.MatchString(code) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}
	switch {
	case upcLikeRe.MatchString(code):
		if !upcRe.MatchString(code) {
			return "", "", fmt.Errorf("%w: UPC must be 12-13 digits", ErrInvalidCode)
		}
		return SearchUPC, strings.Repeat("0", 13-len(code)) + code, nil
	case lettersRe.MatchString(code):
		return SearchStyleNumber, code, nil
	default:
		return SearchSKU, code, nil
	}
}

// Lookup returns every inventory row matching code.
func (s *Service) Lookup(ctx context.Context, code string) (*LookupResult, error) {
	typ, norm, err := Detect(code)
	if err != nil {
		return nil, err
	}

	key := cacheKey(typ, norm)
	if s.cache != nil {
		if b, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			var res LookupResult
			if json.Unmarshal(b, &res) == nil {
				return &res, nil
			}
		}
	}

	var items []*models.InventoryItem
	switch typ {
	case SearchUPC:
		items, err = s.repo.FindInventoryByUPC(ctx, norm)
	case SearchStyleNumber:
		items, err = s.repo.FindInventoryByStyleNumber(ctx, norm)
	default:
		items, err = s.repo.FindInventoryBySKU(ctx, norm)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	if len(items) == 0 {
		return nil, ErrItemNotFound
	}

	res := &LookupResult{SearchType: typ, Code: norm, Items: items}
	if s.cache != nil {
		if b, err := json.Marshal(res); err == nil {
			if err := s.cache.Set(ctx, key, b, s.ttl); err != nil {
				s.log.Warn("cache inventory lookup", zap.String("key", key), zap.Error(err))
			}
		}
	}
	return res, nil
}

func cacheKey(typ SearchType, code string) string {
	return fmt.Sprintf("inventory:%s:%s", typ, strings.ToUpper(code))
}
