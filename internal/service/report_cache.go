package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"nihongo_edu_backend/internal/model"
	"nihongo_edu_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ReportCache keeps the derived weakness report in redis for a short TTL so
// repeated dashboard loads do not rescan the whole answer history. A nil
// client disables caching (tests run without redis).
type ReportCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewReportCache(rdb *redis.Client, ttl time.Duration) *ReportCache {
	return &ReportCache{rdb: rdb, ttl: ttl}
}

func reportKey(userID uint) string {
	return fmt.Sprintf("weakness_report:%d", userID)
}

func (c *ReportCache) Get(ctx context.Context, userID uint) *model.WeaknessReport {
	if c == nil || c.rdb == nil {
		return nil
	}
	raw, err := c.rdb.Get(ctx, reportKey(userID)).Bytes()
	if err != nil {
		return nil
	}
	var report model.WeaknessReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil
	}
	return &report
}

func (c *ReportCache) Set(ctx context.Context, userID uint, report *model.WeaknessReport) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, reportKey(userID), raw, c.ttl).Err(); err != nil {
		logger.Log.Warn("report cache set failed", zap.Uint("user", userID), zap.Error(err))
	}
}

// Invalidate drops the cached report after any answer or progress mutation.
func (c *ReportCache) Invalidate(ctx context.Context, userID uint) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, reportKey(userID)).Err(); err != nil {
		logger.Log.Warn("report cache invalidate failed", zap.Uint("user", userID), zap.Error(err))
	}
}
