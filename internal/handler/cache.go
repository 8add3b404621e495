package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/blood-stock/backend/internal/domain"
)

// resultCacheKey 由参数和问题的 JSON 计算缓存的键
func resultCacheKey(parameters *domain.OptimizationParameters, problem *domain.Problem) (string, error) {
	data, err := json.Marshal(struct {
		Parameters *domain.OptimizationParameters `json:"parameters"`
		Problem    *domain.Problem                `json:"problem"`
	}{parameters, problem})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("optimization_%016x", xxhash.Sum64(data)), nil
}

// getCachedResult 读取缓存的优化结果，缓存只是加速手段，读取失败时只记录日志
func (h *Handler) getCachedResult(ctx context.Context, key string) (*domain.OptimizationResult, bool) {
	if h.redisClient == nil {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(h.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	data, err := h.redisClient.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("无法读取缓存的优化结果", slog.String("key", key), slog.String("error", err.Error()))
		}
		return nil, false
	}

	result := &domain.OptimizationResult{}
	if err := json.Unmarshal(data, result); err != nil {
		slog.Warn("缓存的优化结果无法反序列化", slog.String("key", key), slog.String("error", err.Error()))
		return nil, false
	}

	return result, true
}

func (h *Handler) cacheResult(ctx context.Context, key string, result *domain.OptimizationResult) {
	if h.redisClient == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		slog.Warn("优化结果无法序列化", slog.String("error", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(h.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	if err := h.redisClient.Set(ctx, key, data, time.Duration(h.config.Redis.ResultExpiration)*time.Minute).Err(); err != nil {
		slog.Warn("无法缓存优化结果", slog.String("key", key), slog.String("error", err.Error()))
	}
}
