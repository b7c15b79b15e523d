// Package hook provides priority-ordered pre/post dispatch observers.
//
// Hooks see every action handed to a dispatcher and the outcome of its
// fan-out. They are observers only: a hook cannot cancel a dispatch, alter the
// action, or swallow an error. Interception belongs to store middleware.
//
// # Priority System
//
//   - Pre-hooks: higher priority runs first.
//   - Post-hooks: lower priority runs first, so higher priority hooks observe last.
//
// Standard priority constants are provided:
//
//	PriorityAudit    = 1000  // Audit logging
//	PriorityRecorder = 500   // Dispatch history
//
// # Built-in Hooks
//
//   - AuditHook: logs every dispatch through a logging.Logger
//   - RecorderHook: keeps a bounded history of recent dispatches
//   - LoggingHook: printf-style logging without a structured logger
//
// # Usage
//
//	m := hook.NewManager()
//	m.Register(hook.NewAuditHook(logger))
//	d := dispatcher.New(dispatcher.DefaultConfig(), dispatcher.WithHookManager(m))
package hook
