// Package service provides the business logic layer of the silhouette match
// server.
//
// The service package implements:
//   - Multi-session round management
//   - Level listing, loading and saving
//   - Drag, drop, hazard and reset operations
//   - A stateless layout planner endpoint
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager loads and validates level files.
//
// Architecture:
//
// The service layer sits between the transports (HTTP/WebSocket/MCP) and the
// play package. Each session owns one play.Round. All calls are serialized
// through the service mutex, and every mutating call persists the session.
//
// Round errors that only describe an invalid state (round over, nothing being
// dragged, no such bomb) are reported as results with Success false rather
// than as Go errors.
//
// Usage:
//
//	sessionMgr := session.NewManager(session.Options{})
//	configMgr, _ := config.NewManager("configs")
//	svc := service.NewGameService(sessionMgr, configMgr, logger)
//
//	info, err := svc.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	svc.BeginDrag(ctx, info.ID, "car-0", pointer)
//	svc.EndDrag(ctx, info.ID, pointer, "slot-0")
package service
