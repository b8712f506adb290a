package log

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
)

type entry struct {
	TS        string         `json:"ts"`
	Level     string         `json:"level"`
	ReqID     string         `json:"req_id,omitempty"`
	IP        string         `json:"ip,omitempty"`
	Method    string         `json:"method,omitempty"`
	Path      string         `json:"path,omitempty"`
	SessionID string         `json:"sid,omitempty"`
	Action    string         `json:"action,omitempty"`
	Status    int            `json:"status,omitempty"`
	LatencyMs int64          `json:"latency_ms,omitempty"`
	Err       string         `json:"err,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Request identifies the shopper request that cart and checkout work runs for.
// Services only see a context.Context, so handlers bind it there.
type Request struct {
	ID        string
	SessionID string
	Started   time.Time
}

type requestKey struct{}

func WithRequest(ctx context.Context, r Request) context.Context {
	return context.WithValue(ctx, requestKey{}, r)
}

func RequestFrom(ctx context.Context) (Request, bool) {
	if ctx == nil {
		return Request{}, false
	}
	r, ok := ctx.Value(requestKey{}).(Request)
	return r, ok
}

// Bind puts the request id and session id of c into its user context.
func Bind(c *fiber.Ctx, sid string) {
	rid, _ := c.Locals("requestid").(string)
	c.SetUserContext(WithRequest(c.UserContext(), Request{ID: rid, SessionID: sid, Started: time.Now()}))
}

func emit(e entry) {
	e.TS = time.Now().UTC().Format(time.RFC3339)
	b, _ := json.Marshal(e)
	log.Println(string(b))
}

// write emits one JSON line. c may be nil for events outside a request.
func write(level string, c *fiber.Ctx, action string, err error, fields map[string]any) {
	e := entry{Level: level, Action: action, Fields: fields}
	if c != nil {
		e.IP = c.IP()
		e.Method = c.Method()
		e.Path = c.Path()
		e.Status = c.Response().StatusCode()
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			e.ReqID = rid
		}
		if sid, ok := c.Locals("sid").(string); ok && sid != "" {
			e.SessionID = sid
		}
	}
	if err != nil {
		e.Err = err.Error()
	}
	emit(e)
}

// writeCtx is write for code that only holds a context. The latency is the
// time since the request was bound.
func writeCtx(level string, ctx context.Context, action string, err error, fields map[string]any) {
	e := entry{Level: level, Action: action, Fields: fields}
	if r, ok := RequestFrom(ctx); ok {
		e.ReqID = r.ID
		e.SessionID = r.SessionID
		if !r.Started.IsZero() {
			e.LatencyMs = time.Since(r.Started).Milliseconds()
		}
	}
	if err != nil {
		e.Err = err.Error()
	}
	emit(e)
}

func Info(c *fiber.Ctx, action string, fields map[string]any) { write("info", c, action, nil, fields) }
func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	write("audit", c, action, nil, fields)
}
func Security(c *fiber.Ctx, action string, fields map[string]any) {
	write("warn", c, action, nil, fields)
}
func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	write("error", c, action, err, fields)
}

func InfoCtx(ctx context.Context, action string, fields map[string]any) {
	writeCtx("info", ctx, action, nil, fields)
}
func AuditCtx(ctx context.Context, action string, fields map[string]any) {
	writeCtx("audit", ctx, action, nil, fields)
}
func SecurityCtx(ctx context.Context, action string, fields map[string]any) {
	writeCtx("warn", ctx, action, nil, fields)
}
func ErrorCtx(ctx context.Context, action string, err error, fields map[string]any) {
	writeCtx("error", ctx, action, err, fields)
}
