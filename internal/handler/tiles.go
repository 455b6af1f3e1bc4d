package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"carrent/internal/maps"
	"carrent/internal/redis"
)

// maxTileBytes bounds a proxied tile.
const maxTileBytes = 1 << 20

// statusClientClosedRequest is the nginx convention for a request the
// client gave up on.
const statusClientClosedRequest = 499

// TileObserver records tile proxy outcomes.
type TileObserver interface {
	ObserveTile(outcome string)
}

// TileHandler proxies map tiles through the failover tile source.
type TileHandler struct {
	source     *maps.TileSource
	cache      redis.TileCacheInterface
	httpClient maps.HTTPClient
	userAgent  string
	observer   TileObserver
	logger     *zap.Logger
}

// NewTileHandler creates a new TileHandler. cache and observer may be nil.
func NewTileHandler(
	source *maps.TileSource,
	cache redis.TileCacheInterface,
	httpClient maps.HTTPClient,
	userAgent string,
	observer TileObserver,
	logger *zap.Logger,
) *TileHandler {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TileHandler{
		source:     source,
		cache:      cache,
		httpClient: httpClient,
		userAgent:  userAgent,
		observer:   observer,
		logger:     logger,
	}
}

func (h *TileHandler) observe(outcome string) {
	if h.observer != nil {
		h.observer.ObserveTile(outcome)
	}
}

// Tile handles GET /tiles/:z/:x/:y
func (h *TileHandler) Tile(c *gin.Context) {
	z, errZ := strconv.Atoi(c.Param("z"))
	x, errX := strconv.Atoi(c.Param("x"))
	y, errY := strconv.Atoi(strings.TrimSuffix(c.Param("y"), ".png"))
	if errZ != nil || errX != nil || errY != nil || !maps.ValidTile(z, x, y) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid tile coordinates"})
		return
	}
	ctx := c.Request.Context()

	if h.cache != nil {
		tile, err := h.cache.GetTile(ctx, z, x, y)
		if err != nil {
			h.logger.Warn("tile cache read failed", zap.Error(err))
		} else if tile != nil {
			h.observe("hit")
			c.Header("Cache-Control", "public, max-age=600")
			c.Data(http.StatusOK, tile.ContentType, tile.Data)
			return
		}
	}

	url, tmpl := h.source.URL(z, x, y)
	tile, err := h.fetch(c, url)
	if err != nil && ctx.Err() != nil {
		// The browser dropped the tile; the upstream is not at fault.
		h.observe("aborted")
		c.AbortWithStatus(statusClientClosedRequest)
		return
	}
	if err != nil {
		h.observe("failed")
		if h.source.ReportFailure(tmpl) {
			h.logger.Warn("tile source switched", zap.String("from", tmpl), zap.String("to", h.source.Template()))
		}
		h.logger.Warn("tile fetch failed", zap.String("url", url), zap.Error(err))
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "tile unavailable"})
		return
	}
	h.observe("fetched")

	if h.cache != nil {
		if err := h.cache.SetTile(ctx, z, x, y, tile); err != nil {
			h.logger.Warn("tile cache write failed", zap.Error(err))
		}
	}

	c.Header("Cache-Control", "public, max-age=600")
	c.Data(http.StatusOK, tile.ContentType, tile.Data)
}

func (h *TileHandler) fetch(c *gin.Context, url string) (*redis.CachedTile, error) {
	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("upstream status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxTileBytes))
	if err != nil {
		return nil, err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}
	return &redis.CachedTile{ContentType: contentType, Data: data}, nil
}
