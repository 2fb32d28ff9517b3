package metrics

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_AutoDimension(t *testing.T) {
	initOnce.Do(func() {})
	functionName = "TestFunction"
	defer func() { functionName = "" }()

	r := New("TestNamespace")
	if r.namespace != "TestNamespace" {
		t.Errorf("expected namespace TestNamespace, got %s", r.namespace)
	}
	if r.dimensions["FunctionName"] != "TestFunction" {
		t.Errorf("expected FunctionName dimension TestFunction, got %s", r.dimensions["FunctionName"])
	}
}

func TestEmitter_FlushOutput(t *testing.T) {
	initOnce.Do(func() {})
	functionName = ""

	var buf bytes.Buffer
	e := NewEmitter("UIRestyler", &buf)

	e.New().
		Dimension("Backend", "dry-run").
		Metric("StepLatencyMs", 1234.5, UnitMilliseconds).
		Metric("Strength", 0.3, UnitNone).
		Property("runId", "restyle_abc12345").
		Flush()

	var doc map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("failed to parse EMF output as JSON: %v\nOutput: %s", err, buf.String())
	}

	awsMap, ok := doc["_aws"].(map[string]interface{})
	if !ok {
		t.Fatal("missing _aws directive in EMF output")
	}
	if _, ok := awsMap["Timestamp"]; !ok {
		t.Error("missing Timestamp in _aws directive")
	}
	cwArr, ok := awsMap["CloudWatchMetrics"].([]interface{})
	if !ok || len(cwArr) == 0 {
		t.Fatal("CloudWatchMetrics should be a non-empty array")
	}
	cw := cwArr[0].(map[string]interface{})
	if cw["Namespace"] != "UIRestyler" {
		t.Errorf("expected namespace UIRestyler, got %v", cw["Namespace"])
	}
	metricDefs := cw["Metrics"].([]interface{})
	if first := metricDefs[0].(map[string]interface{}); first["Name"] != "StepLatencyMs" {
		t.Errorf("expected metric definitions sorted by name, got %v", metricDefs)
	}

	if doc["Backend"] != "dry-run" {
		t.Errorf("expected Backend=dry-run, got %v", doc["Backend"])
	}
	if doc["StepLatencyMs"] != 1234.5 {
		t.Errorf("expected StepLatencyMs=1234.5, got %v", doc["StepLatencyMs"])
	}
	if doc["runId"] != "restyle_abc12345" {
		t.Errorf("expected runId property, got %v", doc["runId"])
	}
	if strings.Count(buf.String(), "\n") != 1 {
		t.Errorf("expected exactly one line, got %q", buf.String())
	}
}

func TestEmitter_DefaultNamespace(t *testing.T) {
	e := NewEmitter("", &bytes.Buffer{})
	if r := e.New(); r.namespace != DefaultNamespace {
		t.Errorf("expected %s, got %s", DefaultNamespace, r.namespace)
	}
}

func TestRecorder_FlushEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewEmitter("Test", &buf).New().Flush()
	if buf.Len() != 0 {
		t.Errorf("expected no output for empty recorder, got: %s", buf.String())
	}
}

func TestRecorder_Count(t *testing.T) {
	functionName = ""
	rec := New("Test")
	rec.Count("Errors")

	if v, ok := rec.values["Errors"]; !ok || v != float64(1) {
		t.Errorf("expected Errors=1, got %v", v)
	}
	if m, ok := rec.metrics["Errors"]; !ok || m.Unit != UnitCount {
		t.Errorf("expected unit Count, got %v", m.Unit)
	}
}

func TestRecorder_Chaining(t *testing.T) {
	functionName = ""
	rec := New("Test").
		Dimension("Op", "test").
		Metric("Duration", 100, UnitMilliseconds).
		Count("Calls").
		Property("id", "xyz")

	if rec.dimensions["Op"] != "test" {
		t.Error("chaining Dimension failed")
	}
	if rec.values["Duration"] != float64(100) {
		t.Error("chaining Metric failed")
	}
	if rec.values["Calls"] != float64(1) {
		t.Error("chaining Count failed")
	}
	if rec.properties["id"] != "xyz" {
		t.Error("chaining Property failed")
	}
}
