package tools

import (
	"context"
	"errors"
	"testing"
)

type fakeDelegator struct {
	gotTaskName     string
	gotSystemPrompt string
	gotTask         string
	result          string
	err             error
}

func (f *fakeDelegator) Delegate(ctx context.Context, taskName, systemPrompt, task string) (string, error) {
	f.gotTaskName = taskName
	f.gotSystemPrompt = systemPrompt
	f.gotTask = task
	return f.result, f.err
}

func TestDelegateTaskToolPassesThroughArgs(t *testing.T) {
	d := &fakeDelegator{result: "done"}
	tool := NewDelegateTaskTool(d)
	res, err := tool.Execute(context.Background(), `{"task_name":"research","system_prompt":"be terse","task":"find the answer"}`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.IsError || res.Content != "done" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if d.gotTaskName != "research" || d.gotSystemPrompt != "be terse" || d.gotTask != "find the answer" {
		t.Fatalf("delegator got unexpected args: %+v", d)
	}
}

func TestDelegateTaskToolRequiresFields(t *testing.T) {
	d := &fakeDelegator{}
	tool := NewDelegateTaskTool(d)
	res, err := tool.Execute(context.Background(), `{"task_name":"","task":""}`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected error for missing required fields")
	}
}

func TestDelegateTaskToolSurfacesDelegatorError(t *testing.T) {
	d := &fakeDelegator{err: errors.New("sub-agent failed")}
	tool := NewDelegateTaskTool(d)
	res, err := tool.Execute(context.Background(), `{"task_name":"x","system_prompt":"y","task":"z"}`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected error result from delegator failure")
	}
}
