package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hvdclogix/cargoflow/internal/config"
	"github.com/hvdclogix/cargoflow/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	dashboardKeyPrefix = "cargoflow:dashboard"
	itemsKeyPrefix     = "cargoflow:items"
	dashboardScanBatch = 100
)

// DashboardCache keeps per-run read views warm between engine runs.
type DashboardCache interface {
	GetDashboard(ctx context.Context, runID int64) (*domain.Dashboard, bool, error)
	SetDashboard(ctx context.Context, runID int64, dashboard *domain.Dashboard) error
	GetItems(ctx context.Context, runID int64, filter domain.ItemFilter) ([]domain.ItemRecord, int, bool, error)
	SetItems(ctx context.Context, runID int64, filter domain.ItemFilter, items []domain.ItemRecord, total int) error
	InvalidateAll(ctx context.Context) error
}

type redisDashboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopDashboardCache struct{}

type itemsPayload struct {
	Items []domain.ItemRecord `json:"items"`
	Total int                 `json:"total"`
}

func NewDashboardCache(cfg config.CacheConfig) (DashboardCache, error) {
	if !cfg.Enabled {
		return &noopDashboardCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisDashboardCache{client: client, ttl: ttl}, nil
}

func NewNoopDashboardCache() DashboardCache {
	return &noopDashboardCache{}
}

func (c *redisDashboardCache) GetDashboard(ctx context.Context, runID int64) (*domain.Dashboard, bool, error) {
	key := fmt.Sprintf("%s:%d", dashboardKeyPrefix, runID)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var dashboard domain.Dashboard
	if err := json.Unmarshal(payload, &dashboard); err != nil {
		return nil, false, fmt.Errorf("decode dashboard cache: %w", err)
	}
	return &dashboard, true, nil
}

func (c *redisDashboardCache) SetDashboard(ctx context.Context, runID int64, dashboard *domain.Dashboard) error {
	key := fmt.Sprintf("%s:%d", dashboardKeyPrefix, runID)
	payload, err := json.Marshal(dashboard)
	if err != nil {
		return fmt.Errorf("encode dashboard cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisDashboardCache) GetItems(ctx context.Context, runID int64, filter domain.ItemFilter) ([]domain.ItemRecord, int, bool, error) {
	key := buildItemsKey(runID, filter)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, 0, false, nil
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("redis get failed: %w", err)
	}

	var cached itemsPayload
	if err := json.Unmarshal(payload, &cached); err != nil {
		return nil, 0, false, fmt.Errorf("decode items cache: %w", err)
	}
	return cached.Items, cached.Total, true, nil
}

func (c *redisDashboardCache) SetItems(ctx context.Context, runID int64, filter domain.ItemFilter, items []domain.ItemRecord, total int) error {
	key := buildItemsKey(runID, filter)
	payload, err := json.Marshal(itemsPayload{Items: items, Total: total})
	if err != nil {
		return fmt.Errorf("encode items cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisDashboardCache) InvalidateAll(ctx context.Context) error {
	if err := deleteKeysWithPrefix(ctx, c.client, dashboardKeyPrefix, dashboardScanBatch); err != nil {
		return err
	}
	return deleteKeysWithPrefix(ctx, c.client, itemsKeyPrefix, dashboardScanBatch)
}

func (n *noopDashboardCache) GetDashboard(ctx context.Context, runID int64) (*domain.Dashboard, bool, error) {
	return nil, false, nil
}

func (n *noopDashboardCache) SetDashboard(ctx context.Context, runID int64, dashboard *domain.Dashboard) error {
	return nil
}

func (n *noopDashboardCache) GetItems(ctx context.Context, runID int64, filter domain.ItemFilter) ([]domain.ItemRecord, int, bool, error) {
	return nil, 0, false, nil
}

func (n *noopDashboardCache) SetItems(ctx context.Context, runID int64, filter domain.ItemFilter, items []domain.ItemRecord, total int) error {
	return nil
}

func (n *noopDashboardCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildItemsKey(runID int64, filter domain.ItemFilter) string {
	return fmt.Sprintf("%s:%d:%s", itemsKeyPrefix, runID, itemFilterHash(filter))
}

func itemFilterHash(filter domain.ItemFilter) string {
	parts := []string{}

	if len(filter.Vendors) > 0 {
		parts = append(parts, "vendors="+joinStrings(filter.Vendors))
	}
	if len(filter.Locations) > 0 {
		parts = append(parts, "locations="+joinStrings(filter.Locations))
	}
	if len(filter.FlowCodes) > 0 {
		parts = append(parts, "flow_codes="+joinInts(filter.FlowCodes))
	}
	if filter.Page > 0 {
		parts = append(parts, "page="+strconv.Itoa(filter.Page))
	}
	if filter.PageSize > 0 {
		parts = append(parts, "page_size="+strconv.Itoa(filter.PageSize))
	}

	if len(parts) == 0 {
		return "default"
	}

	sort.Strings(parts)
	raw := strings.Join(parts, "|")
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func joinInts(values []int) string {
	c := append([]int(nil), values...)
	sort.Ints(c)
	strs := make([]string, len(c))
	for i, v := range c {
		strs[i] = strconv.Itoa(v)
	}
	return strings.Join(strs, ",")
}

func joinStrings(values []string) string {
	c := append([]string(nil), values...)
	for i := range c {
		c[i] = strings.TrimSpace(strings.ToLower(c[i]))
	}
	sort.Strings(c)
	return strings.Join(c, ",")
}
