package log

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"supermart/internal/domain"
)

// Levels as written to the "level" field. Security events use warn.
const (
	LevelInfo  = "info"
	LevelAudit = "audit"
	LevelWarn  = "warn"
	LevelError = "error"
)

// request holds the per-request fields; empty outside a handler.
type request struct {
	ReqID  string `json:"req_id,omitempty"`
	IP     string `json:"ip,omitempty"`
	Method string `json:"method,omitempty"`
	Path   string `json:"path,omitempty"`
	UserID string `json:"user_id,omitempty"`
	Status int    `json:"status,omitempty"`
}

type event struct {
	TS     string `json:"ts"`
	Level  string `json:"level"`
	Action string `json:"action,omitempty"`
	request
	Err    string         `json:"err,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
}

func fromCtx(c *fiber.Ctx) request {
	if c == nil {
		return request{}
	}
	r := request{
		IP:     c.IP(),
		Method: c.Method(),
		Path:   c.Path(),
		Status: c.Response().StatusCode(),
	}
	r.ReqID, _ = c.Locals("requestid").(string)
	if u, ok := c.Locals("user").(*domain.User); ok && u != nil {
		r.UserID = u.ID
	}
	return r
}

// emit writes one JSON line through the standard logger so LOG_FILE and test
// capture both see it. c may be nil for service and CLI events.
func emit(level string, c *fiber.Ctx, action string, err error, fields map[string]any) {
	ev := event{
		TS:      time.Now().UTC().Format(time.RFC3339),
		Level:   level,
		Action:  action,
		request: fromCtx(c),
		Fields:  fields,
	}
	if err != nil {
		ev.Err = err.Error()
	}
	b, merr := json.Marshal(ev)
	if merr != nil {
		log.Printf(`{"level":"error","action":"log.marshal.fail","err":%q}`, merr.Error())
		return
	}
	log.Println(string(b))
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	emit(LevelInfo, c, action, nil, fields)
}

// Audit records state changes made by a user or admin.
func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	emit(LevelAudit, c, action, nil, fields)
}

// Security records access denials and suspicious input.
func Security(c *fiber.Ctx, action string, fields map[string]any) {
	emit(LevelWarn, c, action, nil, fields)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	emit(LevelError, c, action, err, fields)
}
