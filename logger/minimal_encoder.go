package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	colorReset = "\x1b[0m"
	colorBold  = "\x1b[1m"
)

// Gruvbox Dark color palette (warm, muted, easy on eyes)
type palette struct {
	fg       string
	aqua     string
	orange   string
	yellow   string
	green    string
	blue     string
	purple   string
	red      string
	redBg    string
	yellowBg string
}

var colors = palette{
	fg:       "\x1b[38;5;223m", // Soft cream (#ebdbb2)
	aqua:     "\x1b[38;5;108m", // Muted cyan-green (#8ec07c)
	orange:   "\x1b[38;5;208m", // Warm orange (#fe8019)
	yellow:   "\x1b[38;5;214m", // Soft yellow (#fabd2f)
	green:    "\x1b[38;5;142m", // Muted green (#b8bb26)
	blue:     "\x1b[38;5;109m", // Soft blue (#83a598)
	purple:   "\x1b[38;5;175m", // Muted purple (#d3869b)
	red:      "\x1b[38;5;167m", // Warm red (#fb4934)
	redBg:    "\x1b[48;5;88m",  // Dark red background
	yellowBg: "\x1b[48;5;58m",  // Dark yellow background
}

// colorComponent hashes the component name for a consistent color per component
func colorComponent(name string) string {
	hash := 0
	for _, c := range name {
		hash += int(c)
	}
	if hash%2 == 0 {
		return colors.orange
	}
	return colors.yellow
}

// colorMessage groups messages by subsystem so related activity reads as one color
func colorMessage(msg string) string {
	lower := strings.ToLower(msg)

	if strings.Contains(lower, "routed") || strings.Contains(lower, "routing") ||
		strings.Contains(lower, "trained") || strings.Contains(lower, "dispatch") {
		return colors.green
	}
	if strings.Contains(lower, "cache") || strings.Contains(lower, "client") ||
		strings.Contains(lower, "websocket") {
		return colors.blue
	}
	if strings.Contains(lower, "starting") || strings.Contains(lower, "started") ||
		strings.Contains(lower, "registered") || strings.Contains(lower, "config") ||
		strings.Contains(lower, "listening") {
		return colors.orange
	}
	return colors.fg
}

// minimalEncoder implements a calm, compact console encoder.
// Format: "13:04:35  registry  Domain registered  insurance_mcp"
type minimalEncoder struct {
	zapcore.Encoder // Embed a base encoder for field serialization
	buf             *buffer.Buffer
}

func newMinimalEncoder() *minimalEncoder {
	// Create a base JSON encoder for field serialization (internal use only)
	baseEncoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())

	return &minimalEncoder{
		Encoder: baseEncoder,
		buf:     buffer.NewPool().Get(),
	}
}

func (enc *minimalEncoder) Clone() zapcore.Encoder {
	return &minimalEncoder{
		Encoder: enc.Encoder.Clone(),
		buf:     buffer.NewPool().Get(),
	}
}

func (enc *minimalEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	final := buffer.NewPool().Get()

	final.AppendString(colors.aqua)
	final.AppendString(ent.Time.Format("15:04:05"))
	final.AppendString(colorReset)

	// Level: only show for WARN/ERROR with bold + background
	if ent.Level != zapcore.InfoLevel {
		final.AppendString("  ")
		final.AppendString(levelColorString(ent.Level))
	}

	// Component name (abbreviated) for visual grouping
	if ent.LoggerName != "" {
		final.AppendString("  ")
		final.AppendString(colorComponent(ent.LoggerName))
		final.AppendString(abbreviateName(ent.LoggerName))
		final.AppendString(colorReset)
	}

	final.AppendString("  ")
	final.AppendString(colorMessage(ent.Message))
	final.AppendString(ent.Message)
	final.AppendString(colorReset)

	// Fields: extract and color the interesting values
	if len(fields) > 0 {
		if vals := extractFieldValues(fields); vals != "" {
			final.AppendString("  ")
			final.AppendString(vals)
		}
	}

	final.AppendString("\n")
	return final, nil
}

// levelColorString returns bold + colored + background for WARN/ERROR
func levelColorString(level zapcore.Level) string {
	switch level {
	case zapcore.WarnLevel:
		return colorBold + colors.yellowBg + colors.yellow + "WARN" + colorReset
	case zapcore.ErrorLevel:
		return colorBold + colors.redBg + colors.red + "ERROR" + colorReset
	case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return colorBold + colors.redBg + colors.red + level.CapitalString() + colorReset
	case zapcore.DebugLevel:
		return colors.purple + "DEBUG" + colorReset
	default:
		return ""
	}
}

// abbreviateName shortens component names: registry -> registry, registry.dispatch -> r.dispatch
func abbreviateName(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) > 1 {
		return string(parts[0][0]) + "." + strings.Join(parts[1:], ".")
	}
	return name
}

// getFieldValue extracts the value from a zap field, handling different field types
func getFieldValue(field zapcore.Field) string {
	if field.Type == zapcore.StringType {
		return field.String
	}

	switch field.Type {
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type,
		zapcore.Uint64Type, zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type:
		return fmt.Sprintf("%d", field.Integer)
	case zapcore.Float64Type, zapcore.Float32Type:
		if field.Interface != nil {
			return fmt.Sprintf("%v", field.Interface)
		}
		return ""
	}

	if field.Interface != nil {
		return fmt.Sprintf("%v", field.Interface)
	}

	return ""
}

// extractFieldValues pulls just the values from structured fields.
// Input: {"request_id": "req_123", "matched": 3, "cached": 1}
// Output: "req_123 (3 matched, 1 cached)" with colored IDs and numbers.
func extractFieldValues(fields []zapcore.Field) string {
	var values []string
	var matched, cached string

	for _, field := range fields {
		switch field.Key {
		case FieldRequestID, FieldDomainID:
			if val := getFieldValue(field); val != "" {
				values = append(values, colors.blue+val+colorReset)
			}
		case FieldConfidence:
			if val := getFieldValue(field); val != "" {
				values = append(values, colors.purple+val+colorReset)
			}
		case FieldDurationMS:
			if val := getFieldValue(field); val != "" {
				values = append(values, colors.purple+val+colorReset+"ms")
			}
		case "matched":
			matched = getFieldValue(field)
		case "cached":
			cached = getFieldValue(field)
		}
	}

	// Special formatting for routing stats
	if matched != "" && cached != "" {
		fg := colors.fg
		num := colors.purple
		values = append(values, fg+"("+num+matched+colorReset+fg+" matched, "+num+cached+colorReset+fg+" cached)"+colorReset)
	}

	if len(values) == 0 {
		return ""
	}

	return strings.Join(values, " ")
}
