package feedhttp

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"

	"github.com/relomy/dk-results/internal/platform/logging"
)

const healthPath = "/healthz"

var (
	manifestPathRe = regexp.MustCompile(`^/manifest/\d{4}-\d{2}-\d{2}\.json$`)
	snapshotPathRe = regexp.MustCompile(`^/snapshots/\d{4}-\d{2}-\d{2}/\d{8}-\d{6}\.json$`)
)

// Handler serves published bundles from the output directory: the
// latest pointer, daily manifests, and immutable snapshot files.
type Handler struct {
	root   string
	logger *logging.Logger
}

func NewHandler(root string, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{root: root, logger: logger}
}

// NewServer wraps the handler in a fasthttp server with the configured
// timeouts.
func NewServer(handler *Handler, readTimeout, writeTimeout time.Duration) *fasthttp.Server {
	return &fasthttp.Server{
		Handler:      handler.Handle,
		Name:         "dk-results-feed",
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
}

func (h *Handler) Handle(ctx *fasthttp.RequestCtx) {
	started := time.Now()
	path := string(ctx.Path())

	if !ctx.IsGet() {
		ctx.SetStatusCode(fasthttp.StatusMethodNotAllowed)
		h.logRequest(ctx, path, started)
		return
	}

	switch {
	case path == healthPath:
		ctx.SetContentType("application/json; charset=utf-8")
		ctx.SetBodyString(`{"status":"ok"}`)
	case path == "/latest.json":
		h.serveFile(ctx, "latest.json", false)
	case manifestPathRe.MatchString(path):
		h.serveFile(ctx, strings.TrimPrefix(path, "/"), false)
	case snapshotPathRe.MatchString(path):
		// Snapshot files never change once written.
		h.serveFile(ctx, strings.TrimPrefix(path, "/"), true)
	default:
		ctx.SetStatusCode(fasthttp.StatusNotFound)
	}

	h.logRequest(ctx, path, started)
}

func (h *Handler) serveFile(ctx *fasthttp.RequestCtx, rel string, immutable bool) {
	full := filepath.Join(h.root, filepath.FromSlash(rel))

	file, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			ctx.SetStatusCode(fasthttp.StatusNotFound)
			return
		}
		h.logger.Error("open bundle file failed", "path", rel, "error", err)
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	defer func() { _ = file.Close() }()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if _, err := buf.ReadFrom(file); err != nil {
		h.logger.Error("read bundle file failed", "path", rel, "error", err)
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}

	ctx.SetContentType("application/json; charset=utf-8")
	if immutable {
		ctx.Response.Header.Set(fasthttp.HeaderCacheControl, "public, max-age=31536000, immutable")
	} else {
		ctx.Response.Header.Set(fasthttp.HeaderCacheControl, "no-cache")
	}
	ctx.SetBody(buf.B)
}

func (h *Handler) logRequest(ctx *fasthttp.RequestCtx, path string, started time.Time) {
	h.logger.Info("http_request",
		"http_method", string(ctx.Method()),
		"http_path", path,
		"http_status", ctx.Response.StatusCode(),
		"duration_ms", fmt.Sprintf("%.2f", float64(time.Since(started).Microseconds())/1000),
	)
}
