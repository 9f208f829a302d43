// Package ws speaks the JSON room protocol over websockets.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/leedalei/lol-random-hero-selector/internal/hub"
	"github.com/leedalei/lol-random-hero-selector/internal/identity"
	"github.com/leedalei/lol-random-hero-selector/internal/ratelimit"
	"github.com/leedalei/lol-random-hero-selector/internal/types"
	wire "github.com/leedalei/lol-random-hero-selector/pkg/types"
	"go.uber.org/zap"
)

type Options struct {
	TrustProxy     bool
	AllowedOrigins []string
	OutboxSize     int
	WriteTimeout   time.Duration
	// ReadTimeout bounds the wait for the next client frame. Zero waits forever.
	ReadTimeout time.Duration
	ReadLimit   int64
}

func (o Options) withDefaults() Options {
	if o.OutboxSize <= 0 {
		o.OutboxSize = 16
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 3 * time.Second
	}
	if o.ReadLimit <= 0 {
		o.ReadLimit = 4096
	}
	return o
}

func Handler(h *hub.Hub, resolver *identity.Resolver, limiter *ratelimit.MapLimiter, opts Options, log *zap.Logger) http.HandlerFunc {
	opts = opts.withDefaults()
	log = log.With(zap.String("module", "ws"))

	return func(w http.ResponseWriter, r *http.Request) {
		meta := identity.FromRequest(r, opts.TrustProxy)
		id := resolver.Resolve(meta)

		wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.AllowedOrigins,
		})
		if err != nil {
			log.Debug("accept failed", zap.String("addr", meta.Address), zap.Error(err))
			return
		}
		defer wsConn.CloseNow()
		wsConn.SetReadLimit(opts.ReadLimit)

		ctx := r.Context()
		c := newConn(uuid.NewString(), wsConn, opts.OutboxSize)
		go c.writeLoop(ctx, opts.WriteTimeout, log)
		defer c.Close("bye")

		if err := h.Connect(ctx, id, c); err != nil {
			log.Warn("hub unavailable", zap.Error(err))
			c.Close("server unavailable")
			return
		}
		defer h.Disconnect(id, c)

		// Reader loop
		for {
			data, err := c.read(ctx, opts.ReadTimeout)
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Debug("read ended", zap.String("conn", c.id), zap.Error(err))
				}
				return
			}

			if !limiter.Allow(string(id), time.Now()) {
				c.Send(types.ErrorMsg("too many requests"))
				continue
			}

			var cm wire.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				c.Send(types.ErrorMsg("bad json"))
				continue
			}

			cmd, err := ToCommand(cm)
			if err != nil {
				c.Send(types.ErrorMsg(err.Error()))
				continue
			}

			if err := h.Dispatch(ctx, id, c, cmd); err != nil {
				return
			}
		}
	}
}

func (c *conn) read(ctx context.Context, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	_, data, err := c.ws.Read(ctx)
	return data, err
}
