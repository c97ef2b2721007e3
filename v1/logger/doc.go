// Package logger builds the structured zap logger shared by all store
// adapters and the embedding client.
//
// # Usage
//
//	log, err := logger.NewLogger(logger.NewConfig())
//	if err != nil {
//	    ...
//	}
//	store, err := qdrant.New(cfg, qdrant.WithLogger(log))
//
// Production output is JSON on stderr with ISO8601 timestamps, caller
// information, the process ID and an optional service name. Setting
// LOG_DEVELOPMENT=true switches to the colored console encoder.
//
// # Environment variables
//
//   - LOG_LEVEL: debug, info, warning or error (default info)
//   - LOG_SERVICE_NAME: value of the "service" field on every entry
//   - LOG_DEVELOPMENT: "true" enables the console encoder
//
// # Dependency Injection (Fx)
//
// FXModule provides the logger to an fx application and flushes it on
// shutdown. All other modules in this library declare *zap.Logger as an
// optional dependency, so adding this module enables logging across the
// whole graph.
package logger
