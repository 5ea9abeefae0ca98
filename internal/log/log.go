package log

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the process-wide observability handle. It is built once in main
// and passed to services and handlers; a nil *Logger discards everything.
type Logger struct {
	z *zap.Logger
}

// New writes one JSON object per line to w. level is a zap level name
// (debug, info, warn, error).
func New(w io.Writer, level string) (*Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	enc.EncodeTime = zapcore.RFC3339TimeEncoder
	enc.MessageKey = "action"
	enc.CallerKey = zapcore.OmitKey
	enc.StacktraceKey = zapcore.OmitKey

	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.Lock(zapcore.AddSync(w)), lvl)
	return &Logger{z: zap.New(core)}, nil
}

func Nop() *Logger { return &Logger{z: zap.NewNop()} }

func (l *Logger) Zap() *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l.z
}

func (l *Logger) Sync() error {
	if l == nil {
		return nil
	}
	return l.z.Sync()
}

func (l *Logger) write(lvl zapcore.Level, kind string, c *fiber.Ctx, action string, err error, fields map[string]any) {
	if l == nil {
		return
	}
	ce := l.z.Check(lvl, action)
	if ce == nil {
		return
	}
	zf := make([]zap.Field, 0, 9)
	if kind != "" {
		zf = append(zf, zap.String("kind", kind))
	}
	if c != nil {
		zf = append(zf,
			zap.String("ip", c.IP()),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
		)
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			zf = append(zf, zap.String("req_id", rid))
		}
		if uid, ok := c.Locals("uid").(string); ok && uid != "" {
			zf = append(zf, zap.String("user_id", uid))
		}
	}
	if err != nil {
		zf = append(zf, zap.String("err", err.Error()))
	}
	if len(fields) > 0 {
		zf = append(zf, zap.Any("fields", fields))
	}
	ce.Write(zf...)
}

func (l *Logger) Info(c *fiber.Ctx, action string, fields map[string]any) {
	l.write(zapcore.InfoLevel, "", c, action, nil, fields)
}

// Audit records a state-changing outcome.
func (l *Logger) Audit(c *fiber.Ctx, action string, fields map[string]any) {
	l.write(zapcore.InfoLevel, "audit", c, action, nil, fields)
}

// Security records a rejected or suspicious request.
func (l *Logger) Security(c *fiber.Ctx, action string, fields map[string]any) {
	l.write(zapcore.WarnLevel, "security", c, action, nil, fields)
}

func (l *Logger) Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	l.write(zapcore.ErrorLevel, "", c, action, err, fields)
}
