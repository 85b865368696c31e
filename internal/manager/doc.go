// Package manager coordinates a chat request from hardware detection to a
// stored conversation record. It is split into small files by concern:
//
//   - manager.go: core Manager type, constructor, simple getters.
//   - config.go: ManagerConfig, the collaborator interfaces and defaults.
//   - types.go: internal state types (State, Instance).
//   - errors.go: error types and helpers (IsTooBusy, IsInvalidRequest, IsNotFound).
//   - admission.go: per-model queueing and generation admission.
//   - chat.go: Chat and Hardware, the request path.
//   - provision.go: pulling the models implied by the detected tier.
//   - memory.go: conversation record access.
//   - status_report.go: Status reporting.
//   - events.go, eventpub_memory.go: lifecycle events.
//
// External packages should use public methods only (NewWithConfig, Chat,
// Provision, StartProvisioning, Ready, Status). Internal types are subject
// to change.
package manager
