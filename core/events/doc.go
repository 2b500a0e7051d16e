// Package events defines the typed events a kiosk client emits to its
// presentation layer.
//
// Event kinds are grouped by namespace:
//
//   - connection.*: physical connection lifecycle.
//   - session.*: server session identity and flow state.
//   - request.*: outbound requests, sent or dropped.
//   - voice.*: speech playback and capture.
//
// connection events
//
//   - ConnectionOpened (connection.opened): a new connection is up; carries
//     its generation.
//   - ConnectionLost (connection.lost): the connection closed unexpectedly and
//     a reconnect is scheduled.
//
// session events
//
//   - SessionAssigned (session.assigned): the server acknowledged the
//     handshake with a session id.
//   - StateChanged (session.state_changed): the flow state changed; carries
//     both snapshots.
//   - MessageDiscarded (session.message_discarded): an inbound frame was
//     unrecognized or stale.
//   - SystemMessage (session.system_message): a local, non-persisted notice
//     for the user.
//
// request events
//
//   - RequestSent (request.sent)
//   - RequestDropped (request.dropped): no connection was open.
//
// voice events
//
//   - SpeechStarted (voice.speech_started) / SpeechEnded (voice.speech_ended):
//     one utterance. Ended carries whether it was cancelled.
//   - CaptureStarted (voice.capture_started) / CaptureEnded (voice.capture_ended)
//   - UserTranscript (voice.user_transcript): recognised user speech.
package events
