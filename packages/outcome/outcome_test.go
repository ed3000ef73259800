package outcome

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingListener struct {
	calls []string
}

func (r *recordingListener) StartTest(t TestCase)  { r.calls = append(r.calls, "start:"+t.Name) }
func (r *recordingListener) AddSuccess(t TestCase) { r.calls = append(r.calls, "success:"+t.Name) }
func (r *recordingListener) AddFailure(t TestCase, d FailureDetail) {
	r.calls = append(r.calls, "failure:"+t.Name+":"+d.Message)
}
func (r *recordingListener) AddError(t TestCase, d FailureDetail) {
	r.calls = append(r.calls, "error:"+t.Name+":"+d.Message)
}
func (r *recordingListener) AddSkip(t TestCase) { r.calls = append(r.calls, "skip:"+t.Name) }
func (r *recordingListener) Finalize()          { r.calls = append(r.calls, "finalize") }

func TestTestCase_Identifier(t *testing.T) {
	tests := []struct {
		name     string
		test     TestCase
		expected string
	}{
		{"description wins", TestCase{Package: "pkg", Name: "TestA", Description: "adds numbers"}, "adds numbers"},
		{"name and package", TestCase{Package: "example.com/pkg", Name: "TestA"}, "TestA (example.com/pkg)"},
		{"name only", TestCase{Name: "TestA"}, "TestA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.test.Identifier())
		})
	}
}

func TestFailureDetail_Format(t *testing.T) {
	t.Run("trace and message", func(t *testing.T) {
		d := FailureDetail{Kind: KindFailure, Message: "want 2, got 3", Trace: "    a_test.go:9: want 2, got 3\n"}
		assert.Equal(t, "    a_test.go:9: want 2, got 3\nFAIL: want 2, got 3", d.Format())
	})

	t.Run("message only", func(t *testing.T) {
		d := FailureDetail{Kind: KindPanic, Message: "boom"}
		assert.Equal(t, "PANIC: boom", d.Format())
	})

	t.Run("trace only", func(t *testing.T) {
		d := FailureDetail{Trace: "line one\nline two"}
		assert.Equal(t, "line one\nline two", d.Format())
	})
}

func TestEventType_String(t *testing.T) {
	assert.Equal(t, "start", Start.String())
	assert.Equal(t, "finalize", Finalize.String())
	assert.Equal(t, "unknown", EventType(42).String())
}

func TestReplay(t *testing.T) {
	l := &recordingListener{}
	a := TestCase{Name: "TestA"}
	b := TestCase{Name: "TestB"}

	Replay(l, []Event{
		{Type: Start, Test: a},
		{Type: Success, Test: a},
		{Type: Start, Test: b},
		{Type: Failure, Test: b, Detail: FailureDetail{Message: "bad"}},
		{Type: Error, Test: b, Detail: FailureDetail{Message: "worse"}},
		{Type: Skip, Test: a},
		{Type: Finalize},
	})

	assert.Equal(t, []string{
		"start:TestA",
		"success:TestA",
		"start:TestB",
		"failure:TestB:bad",
		"error:TestB:worse",
		"skip:TestA",
		"finalize",
	}, l.calls)
}

func TestTee(t *testing.T) {
	first := &recordingListener{}
	second := &recordingListener{}
	l := Tee(first, nil, second)

	a := TestCase{Name: "TestA"}
	l.StartTest(a)
	l.AddFailure(a, FailureDetail{Message: "bad"})
	l.Finalize()

	want := []string{"start:TestA", "failure:TestA:bad", "finalize"}
	assert.Equal(t, want, first.calls)
	assert.Equal(t, want, second.calls)
}
