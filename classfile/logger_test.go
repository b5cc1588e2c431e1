package classfile

import (
	"bytes"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerDefault(t *testing.T) {
	if Logger() == nil {
		t.Fatal("Logger() returned nil")
	}
}

func TestSetLoggerNil(t *testing.T) {
	prev := Logger()
	t.Cleanup(func() { SetLogger(prev) })

	SetLogger(nil)
	if Logger() == nil {
		t.Fatal("Logger() returned nil after SetLogger(nil)")
	}

	cf, err := Parse(loadFixture(t, "Minimal.class"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var out bytes.Buffer
	if err := NewEncoder(&out).Encode(cf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
}

func TestDecodeWithLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	data := loadFixture(t, "Minimal.class")
	copy(data[bytes.Index(data, []byte("SourceFile")):], "SourceFilX")

	if _, err := Parse(data, WithLogger(zap.New(core))); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	decoded := logs.FilterMessage("class decoded").All()
	if len(decoded) != 1 {
		t.Fatalf("got %d class decoded entries", len(decoded))
	}
	if got := decoded[0].ContextMap()["class"]; got != "Minimal" {
		t.Errorf("class field: got %v", got)
	}

	opaque := logs.FilterMessage("preserving opaque attribute").All()
	if len(opaque) != 1 {
		t.Fatalf("got %d opaque attribute entries", len(opaque))
	}
	if got := opaque[0].ContextMap()["name"]; got != "SourceFilX" {
		t.Errorf("name field: got %v", got)
	}
}
