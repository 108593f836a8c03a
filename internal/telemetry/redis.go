package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

// MonitorRedis instruments the client with OpenTelemetry tracing and metrics
// and logs every command at debug level.
func MonitorRedis(r redis.UniversalClient) error {
	if err := redisotel.InstrumentTracing(r); err != nil {
		return fmt.Errorf("instrument tracing: %w", err)
	}
	if err := redisotel.InstrumentMetrics(r); err != nil {
		return fmt.Errorf("instrument metrics: %w", err)
	}
	r.AddHook(redisLog{})
	return nil
}

type redisLog struct{}

func (redisLog) DialHook(hook redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := hook(ctx, network, addr)
		if err != nil {
			slog.WarnContext(ctx, "redis: dial failed", "network", network, "addr", addr, "error", err)
			return conn, err
		}
		slog.DebugContext(ctx, "redis: dialed", "network", network, "addr", addr)
		return conn, nil
	}
}

func (redisLog) ProcessHook(hook redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := hook(ctx, cmd)
		RedisCommands.WithLabelValues(cmd.Name(), outcome(err)).Inc()
		slog.DebugContext(ctx, "redis: processed", "cmd", cmd.String())
		return err
	}
}

func (redisLog) ProcessPipelineHook(hook redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := hook(ctx, cmds)
		for _, cmd := range cmds {
			RedisCommands.WithLabelValues(cmd.Name(), outcome(cmd.Err())).Inc()
		}
		slog.DebugContext(ctx, "redis: pipeline processed", "cmds", len(cmds))
		return err
	}
}

func outcome(err error) string {
	switch {
	case err == nil, err == redis.Nil:
		return "ok"
	default:
		return "error"
	}
}
