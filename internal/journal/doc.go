// Package journal keeps a SQLite history of hardware thread lifecycle
// events and of scheduled effects, most of which arrive as live intents.
//
// # Usage
//
//	repo := journal.NewSQLiteRepository(db.DB)
//	rec := journal.NewRecorder(repo, 0)
//	manager.Subscribe(rec.ObserveDevice)
//	playback.Subscribe(rec.ObserveEffect)
//	go rec.Run(ctx)
//
// # Thread Safety
//
// The repository is safe for concurrent use. Recorder observe methods may be
// called from any goroutine and never block; Run must be called once.
package journal
