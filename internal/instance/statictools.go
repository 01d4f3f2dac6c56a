package instance

import (
	"context"

	"github.com/ownai/ownai-core/internal/canvas"
	"github.com/ownai/ownai-core/internal/hostevents"
	"github.com/ownai/ownai-core/internal/memory"
	"github.com/ownai/ownai-core/internal/store"
	"github.com/ownai/ownai-core/internal/tools"
)

// staticToolSet assembles the fixed tool list every instance's agent
// sees (§4.L), in addition to whatever dynamic tools its registry
// surfaces. delegate_task is deliberately not included here — it needs
// the agent it delegates from, which doesn't exist until after this
// list is built, so the caller appends it once construction finishes.
func staticToolSet(s *store.Store, instanceID, workspaceRoot string, registry *tools.Registry, longTerm *memory.LongTermMemory, canvasStore *canvas.Store, emitter hostevents.Emitter, registrar tools.Registrar) []tools.Tool {
	todoStore := tools.NewTodoStore(s.DB(), instanceID)
	opener := programOpener{instanceID: instanceID, emitter: emitter}

	return []tools.Tool{
		tools.NewLsTool(workspaceRoot),
		tools.NewReadFileTool(workspaceRoot),
		tools.NewWriteFileTool(workspaceRoot),
		tools.NewEditFileTool(workspaceRoot),
		tools.NewGrepTool(workspaceRoot),
		tools.NewApplyPatchTool(workspaceRoot),

		tools.NewWriteTodosTool(todoStore),
		tools.NewReadTodosTool(todoStore),

		tools.NewCreateProgramTool(canvasStore),
		tools.NewListProgramsTool(canvasStore),
		tools.NewOpenProgramTool(canvasStore, opener),
		tools.NewProgramLsTool(canvasStore),
		tools.NewProgramReadFileTool(canvasStore),
		tools.NewProgramWriteFileTool(canvasStore),
		tools.NewProgramEditFileTool(canvasStore),

		tools.NewSearchMemoryTool(longTerm),
		tools.NewAddMemoryTool(longTerm),
		tools.NewDeleteMemoryTool(longTerm),

		tools.NewCreateToolTool(registry),
		tools.NewReadToolTool(registry),
		tools.NewUpdateToolTool(registry),

		tools.NewCreateScheduledTaskTool(s.DB(), instanceID, registrar),
		tools.NewListScheduledTasksTool(s.DB(), instanceID),
		tools.NewDeleteScheduledTaskTool(s.DB(), instanceID, registrar),
	}
}

// programOpener emits an open_program event for the host UI to render.
type programOpener struct {
	instanceID string
	emitter    hostevents.Emitter
}

func (o programOpener) OpenProgram(ctx context.Context, programName string) error {
	o.emitter.Emit("open_program", map[string]any{"instance_id": o.instanceID, "program_name": programName})
	return nil
}
