// Package engine drives the platform's WebSocket protocol to register link
// navigation objects inside selection applications.
//
// Each registration runs one session over one connection. The exchange is a
// three-step linear sequence:
//
//  1. OpenDoc, targeted at the session root handle (-1), naming the
//     selection application. The success payload carries the application
//     handle used by every subsequent call in the session.
//  2. CreateObject, targeted at the application handle, carrying the
//     link-navigation object type and a back-reference to the created link
//     resource.
//  3. DoSave, targeted at the application handle, persisting the mutation.
//
// Outbound frames are JSON objects {jsonrpc, id, handle, method, params}.
// Correlation ids increase monotonically from 1 within a session; inbound
// frames are matched against a pending-request table, and frames whose id
// has no pending entry are dropped. An inbound frame carrying an error
// field terminates the session: the remote message text is surfaced
// verbatim and the socket is closed without saving.
//
// Concurrent registrations are independent: each opens its own connection
// with its own correlation-id space and application handle. Nothing is
// shared between sessions except the read-only credential set.
package engine
