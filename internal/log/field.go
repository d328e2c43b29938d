package log

import "time"

// Field is a single piece of structured context attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

// Str creates a string Field.
func Str(key, value string) Field { return Field{Key: key, Value: value} }

// Int creates an int Field.
func Int(key string, value int) Field { return Field{Key: key, Value: value} }

// Uint64 creates a uint64 Field.
func Uint64(key string, value uint64) Field { return Field{Key: key, Value: value} }

// Bool creates a bool Field.
func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }

// Duration creates a Field carrying a time.Duration.
func Duration(key string, value time.Duration) Field { return Field{Key: key, Value: value} }

// Err creates a Field named "error" carrying err.
func Err(err error) Field { return Field{Key: "error", Value: err} }

// Any creates a Field carrying an arbitrary value.
func Any(key string, value interface{}) Field { return Field{Key: key, Value: value} }

// Component creates a Field named "component", matching ComponentKey.
func Component(name string) Field { return Field{Key: ComponentKey, Value: name} }
