// Package websocket pushes round updates to browsers watching a session.
//
// A single Hub goroutine owns client registration and fan-out. Clients
// attach with ServeWS for one session id and receive JSON Messages:
//
//	{"session_id": "ab12", "event": "state_update", "state": {...}}
//	{"session_id": "ab12", "event": "matched", "data": {...}}
//
// Broadcasts never block the caller; slow clients are disconnected.
//
// Usage:
//
//	hub := websocket.NewHub(logger, websocket.WithAllowedOrigins("https://play.example.com"))
//	go hub.Run(ctx)
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
package websocket
