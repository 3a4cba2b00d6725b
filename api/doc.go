// Package api exposes the game service over HTTP.
//
// Routes (JSON bodies and responses):
//
//	POST   /api/sessions                          {"level_id": "classic"}
//	GET    /api/sessions                          ?sort=created|accessed&order=asc|desc&limit=N
//	GET    /api/sessions/{id}
//	DELETE /api/sessions/{id}
//	GET    /api/sessions/{id}/state
//	POST   /api/sessions/{id}/drag/begin          {"shape_id": "car-0", "pointer": {"x": 0, "y": 0}}
//	POST   /api/sessions/{id}/drag/update         {"pointer": {...}, "manipulation": {...}, "keys": {...}, "dt": 0.016}
//	POST   /api/sessions/{id}/drag/end            {"pointer": {...}, "target": "slot-0"}
//	GET    /api/sessions/{id}/preview
//	POST   /api/sessions/{id}/tick                {"dt": 0.5}
//	POST   /api/sessions/{id}/hazards/{bomb}/click
//	POST   /api/sessions/{id}/reset
//	GET    /api/levels
//	POST   /api/levels                            {"level_id": "mine", "level": {...}}
//	GET    /api/levels/{name}
//	POST   /api/plan
//	GET    /ws?session={id}
//	GET    /health
//
// Unknown sessions, levels and shapes answer 404, invalid levels 400.
// Every mutating round call is pushed to websocket watchers of the session:
// first the new state, then one message per round event.
package api
