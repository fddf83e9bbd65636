// Package contracts provides the core message types and interfaces for the
// mediate dispatch runtime.
//
// This package defines the contracts for messages that flow through the
// mediator:
//   - Message: Base interface for all messages
//   - Request: Single-consumer message expecting exactly one handler and one result
//   - Notification: Multi-consumer message with zero-to-many consumers and no result
//
// Messages are immutable value objects: they are created by the caller, read
// by middleware and handlers, and discarded after dispatch returns. The
// runtime never mutates a message.
package contracts
