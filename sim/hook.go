package sim

// HookPos names a point in the run loop where hooks are invoked.
type HookPos struct {
	Name string
}

// HookPosBeforeEvent triggers after the clock advances and before the event executes.
var HookPosBeforeEvent = &HookPos{Name: "BeforeEvent"}

// HookPosAfterEvent triggers after the event executed successfully.
var HookPosAfterEvent = &HookPos{Name: "AfterEvent"}

// HookCtx describes the site where a hook is triggered.
type HookCtx struct {
	Now      int64
	Pos      *HookPos
	Item     Event
	Priority Priority
	// QueueLen is the number of events still pending after Item was popped.
	QueueLen int
}

// Hook observes the run loop. Hooks must not mutate the simulation.
type Hook interface {
	Func(ctx HookCtx)
}

// HookFunc adapts a function to the Hook interface.
type HookFunc func(ctx HookCtx)

func (f HookFunc) Func(ctx HookCtx) { f(ctx) }

// HookableBase keeps hooks in registration order.
type HookableBase struct {
	Hooks []Hook
}

// AcceptHook registers a hook.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.Hooks = append(h.Hooks, hook)
}

// InvokeHook triggers the registered hooks.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.Hooks {
		hook.Func(ctx)
	}
}
