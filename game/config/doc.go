// Package config loads level files for the silhouette game.
//
// Levels live in one directory as JSON (.json) or YAML (.yaml, .yml) files;
// the file name without extension is the level id used to create sessions.
// Every level is filled with engine defaults and validated before it is
// cached, and unknown fields are rejected so typos surface at load time.
//
// The default level is "classic" when present, otherwise the first loadable
// file, otherwise engine.DefaultLevel.
//
// Usage:
//
//	m, err := config.NewManager("configs", logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//	lvl, err := m.LoadConfig("bomb_alley")
//	id, def := m.GetDefault()
//	levels, err := m.ListConfigs()
package config
