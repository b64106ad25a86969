package telemetry

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Dashboard keys published by the drivetrain every cycle.
const (
	KeySpeakerLocation  = "DT speaker location"
	KeyDistanceSpeaker  = "DT dist speaker"
	KeyRobotTranslation = "DT robot translation"
	KeyRobotRotation    = "DT robot rotation"
	KeyGoodPointing     = "DT good pointing"
	KeyNotMoving        = "DT not moving"
)

// Publisher is a fire-and-forget key/value sink. Implementations handle
// their own failures.
type Publisher interface {
	PutNumber(key string, value float64)
	PutString(key string, value string)
	PutBoolean(key string, value bool)
}

type Nop struct{}

func (Nop) PutNumber(string, float64) {}
func (Nop) PutString(string, string)  {}
func (Nop) PutBoolean(string, bool)   {}

// Multi fans every value out to each publisher in order.
type Multi []Publisher

func (m Multi) PutNumber(key string, value float64) {
	for _, p := range m {
		p.PutNumber(key, value)
	}
}

func (m Multi) PutString(key string, value string) {
	for _, p := range m {
		p.PutString(key, value)
	}
}

func (m Multi) PutBoolean(key string, value bool) {
	for _, p := range m {
		p.PutBoolean(key, value)
	}
}

// Table keeps the latest value per key in memory.
type Table struct {
	mu     sync.RWMutex
	values map[string]any
}

func NewTable() *Table {
	return &Table{values: make(map[string]any)}
}

func (t *Table) put(key string, value any) {
	t.mu.Lock()
	t.values[key] = value
	t.mu.Unlock()
}

func (t *Table) PutNumber(key string, value float64) { t.put(key, value) }
func (t *Table) PutString(key string, value string)  { t.put(key, value) }
func (t *Table) PutBoolean(key string, value bool)   { t.put(key, value) }

func (t *Table) Get(key string) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.values[key]
	return v, ok
}

func (t *Table) Number(key string) (float64, bool) {
	v, ok := t.Get(key)
	f, isNum := v.(float64)
	return f, ok && isNum
}

func (t *Table) String(key string) (string, bool) {
	v, ok := t.Get(key)
	s, isStr := v.(string)
	return s, ok && isStr
}

func (t *Table) Boolean(key string) (bool, bool) {
	v, ok := t.Get(key)
	b, isBool := v.(bool)
	return b, ok && isBool
}

// Keys returns the stored keys in sorted order.
func (t *Table) Keys() []string {
	t.mu.RLock()
	keys := make([]string, 0, len(t.values))
	for k := range t.values {
		keys = append(keys, k)
	}
	t.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Log writes every value as a debug event.
type Log struct {
	Logger zerolog.Logger
}

func NewLog(logger zerolog.Logger) *Log {
	return &Log{Logger: logger.With().Str("component", "telemetry").Logger()}
}

func (l *Log) PutNumber(key string, value float64) {
	l.Logger.Debug().Str("key", key).Float64("value", value).Msg("put")
}

func (l *Log) PutString(key string, value string) {
	l.Logger.Debug().Str("key", key).Str("value", value).Msg("put")
}

func (l *Log) PutBoolean(key string, value bool) {
	l.Logger.Debug().Str("key", key).Bool("value", value).Msg("put")
}
