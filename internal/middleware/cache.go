package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/stickerverse/internal/config"
	"github.com/iliyamo/stickerverse/internal/logging"
)

// captureWriter copies up to limit bytes of the response body while
// forwarding everything to the client.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if cw.limit <= 0 {
		cw.buf.Write(b)
	} else if remain := cw.limit - cw.size; remain > 0 {
		if int64(len(b)) <= remain {
			cw.buf.Write(b)
		} else {
			cw.buf.Write(b[:remain])
		}
	}
	cw.size += int64(len(b))
	return cw.ResponseWriter.Write(b)
}

// cacheKeyFrom builds a stable key under cfg.Prefix for generation gen.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context, gen int64) string {
	r := c.Request()
	var parts []string
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
		parts = []string{"route", c.Path()}
	case "method_route":
		parts = []string{"method", r.Method, "route", c.Path()}
	case "method_route_query":
		parts = []string{"method", r.Method, "route", c.Path(), "q", r.URL.RawQuery}
	default: // route_query
		parts = []string{"route", c.Path(), "q", r.URL.RawQuery}
	}
	// the concrete path keeps /products/:id entries apart
	parts = append(parts, "p", r.URL.Path)
	sum := sha1.Sum([]byte(strings.Join(parts, ":")))
	return fmt.Sprintf("%s:%d:%x", entryPrefix(cfg.Prefix), gen, sum[:])
}

// Entries live under prefix:e:<generation>:, and the generation counter
// at prefix:gen.  A purge bumps the counter, so a fill that read the
// catalog before the purge lands under a key no later request reads.
func entryPrefix(prefix string) string { return prefix + ":e" }
func genKey(prefix string) string      { return prefix + ":gen" }

// cacheBackend is the slice of Redis the cache uses.  get reports a
// missing key as redis.Nil.
type cacheBackend interface {
	get(ctx context.Context, key string) ([]byte, error)
	setEx(ctx context.Context, key string, val []byte, ttl time.Duration) error
	generation(ctx context.Context, key string) (int64, error)
}

type redisBackend struct{ rdb *redis.Client }

func (b redisBackend) get(ctx context.Context, key string) ([]byte, error) {
	return b.rdb.Get(ctx, key).Bytes()
}

func (b redisBackend) setEx(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return b.rdb.SetEx(ctx, key, val, ttl).Err()
}

func (b redisBackend) generation(ctx context.Context, key string) (int64, error) {
	n, err := b.rdb.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdrJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hdrJSON)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	copy(out[8:], hdrJSON)
	copy(out[8+len(hdrJSON):], body)
	return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(bs) < 8 {
		return 0, nil, nil, false
	}
	status = int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if hlen < 0 || 8+hlen > len(bs) {
		return 0, nil, nil, false
	}
	header = make(http.Header)
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
			return 0, nil, nil, false
		}
	}
	return status, header, bs[8+hlen:], true
}

// NewRedisCache caches successful catalog responses, headers included.
// Bodies larger than MaxBodyBytes are served but not cached.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client, log *zap.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passThrough
	}
	return newCache(cfg, redisBackend{rdb: rdb}, log)
}

func newCache(cfg config.CacheConfig, store cacheBackend, log *zap.Logger) echo.MiddlewareFunc {
	log = logging.OrNop(log)
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	maxBody := int64(cfg.MaxBodyBytes)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}
			ctx := c.Request().Context()
			// read before next runs: a purge during the handler moves the
			// generation past this one
			gen, err := store.generation(ctx, genKey(cfg.Prefix))
			if err != nil {
				log.Warn("cache: generation unavailable", zap.Error(err))
				return next(c)
			}
			key := cacheKeyFrom(cfg, c, gen)

			if bs, err := store.get(ctx, key); err == nil {
				if status, hdr, body, ok := decodePayload(bs); ok {
					for k, vals := range hdr {
						if strings.EqualFold(k, echo.HeaderContentLength) {
							continue
						}
						for _, v := range vals {
							c.Response().Header().Add(k, v)
						}
					}
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(status)
					_, _ = c.Response().Write(body)
					return nil
				}
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || (maxBody > 0 && cw.size > maxBody) {
				return nil
			}
			hdr := c.Response().Header().Clone()
			hdr.Del("X-Cache")
			payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes())
			if err != nil {
				return nil
			}
			if err := store.setEx(context.WithoutCancel(ctx), key, payload, ttl); err != nil {
				log.Warn("cache: store failed", zap.String("key", key), zap.Error(err))
			}
			return nil
		}
	}
}

// PurgeCache invalidates every cached response under prefix by moving to
// a new generation, then deletes the entries of older generations and
// returns how many it removed.  Admin catalog writes call it so shoppers
// see the change on their next request.
func PurgeCache(ctx context.Context, rdb *redis.Client, prefix string) (int, error) {
	if rdb == nil {
		return 0, nil
	}
	gen, err := rdb.Incr(ctx, genKey(prefix)).Result()
	if err != nil {
		return 0, err
	}
	current := fmt.Sprintf("%s:%d:", entryPrefix(prefix), gen)
	var (
		cursor uint64
		purged int
	)
	for {
		keys, next, err := rdb.Scan(ctx, cursor, entryPrefix(prefix)+":*", 200).Result()
		if err != nil {
			return purged, err
		}
		stale := keys[:0]
		for _, k := range keys {
			if !strings.HasPrefix(k, current) {
				stale = append(stale, k)
			}
		}
		if len(stale) > 0 {
			n, err := rdb.Del(ctx, stale...).Result()
			if err != nil {
				return purged, err
			}
			purged += int(n)
		}
		if next == 0 {
			return purged, nil
		}
		cursor = next
	}
}
