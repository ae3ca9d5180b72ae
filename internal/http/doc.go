// Package http serves the Discord interactions endpoint.
//
// Discord can deliver interactions by HTTP POST instead of the gateway. The
// router exposes a single endpoint:
//   - POST /interactions: the body is a Discord interaction object signed with
//     the application's ed25519 key (X-Signature-Ed25519 and
//     X-Signature-Timestamp headers). Requests with a missing or invalid
//     signature get 401. PING is answered with PONG; every other interaction
//     is dispatched to the same router the gateway uses and its initial
//     response is written as the JSON body. Follow-up messages are sent over
//     REST once the response has been written.
package http
