package kfmt

import (
	"bytes"
	"testing"
)

func TestFprintfVerbs(t *testing.T) {
	specs := []struct {
		format string
		args   []interface{}
		exp    string
	}{
		{"no verbs", nil, "no verbs"},
		{"%s and %s", []interface{}{"foo", "bar"}, "foo and bar"},
		{"%d", []interface{}{42}, "42"},
		{"%o", []interface{}{uint8(8)}, "10"},
		{"%x", []interface{}{uint64(0xbeef)}, "beef"},
		{"%8x", []interface{}{uint64(0xbeef)}, "0000beef"},
		{"%4d", []interface{}{7}, "   7"},
		{"%t/%t", []interface{}{true, false}, "true/false"},
		{"%s", nil, "(MISSING)"},
		{"%s", []interface{}{struct{}{}}, "%!(WRONGTYPE)"},
		{"extra", []interface{}{"arg"}, "extra%!(EXTRA)"},
	}

	for specIndex, spec := range specs {
		var buf bytes.Buffer
		Fprintf(&buf, spec.format, spec.args...)
		if got := buf.String(); got != spec.exp {
			t.Errorf("[spec %d] expected %q; got %q", specIndex, spec.exp, got)
		}
	}
}

func TestPrefixWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &PrefixWriter{Sink: &buf, Prefix: []byte("[k] ")}

	w.Write([]byte("line one\nline two\npartial"))
	w.Write([]byte(" rest\n"))

	exp := "[k] line one\n[k] line two\n[k] partial rest\n"
	if got := buf.String(); got != exp {
		t.Fatalf("expected %q; got %q", exp, got)
	}
}

func TestSetOutputSinkFlushesEarlyOutput(t *testing.T) {
	defer func() {
		outputSink = nil
		earlyPrintBuffer = ringBuffer{}
	}()

	outputSink = nil
	earlyPrintBuffer = ringBuffer{}

	Printf("before sink %d\n", 1)

	var buf bytes.Buffer
	SetOutputSink(&buf)
	Printf("after sink\n")

	exp := "before sink 1\nafter sink\n"
	if got := buf.String(); got != exp {
		t.Fatalf("expected %q; got %q", exp, got)
	}
}
