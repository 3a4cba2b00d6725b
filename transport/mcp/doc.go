// Package mcp exposes the silhouette game to AI agents over the Model
// Context Protocol.
//
// The Client is a thin proxy: every tool call is translated into one or more
// REST requests against the api server, so agents see the same sessions as
// browsers and websocket viewers.
//
// Tools:
//   - create_session, list_sessions, get_session: session management
//   - round_state: cars, silhouettes, bombs and progress as text
//   - begin_drag, update_drag, end_drag: the raw drag lifecycle
//   - drag_to_slot: begin, align rotation and scale to the slot anchor, drop
//   - preview: snap target of the car being dragged
//   - tick, click_hazard: advance time and defuse bombs
//   - reset_round, list_levels, plan_layout, game_instructions
//
// The server is reachable over stdio (server.ServeStdio on GetMCPServer) or
// as single JSON-RPC messages posted to HTTPHandler, mounted at /mcp.
package mcp
