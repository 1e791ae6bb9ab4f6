// Package logger expone un logger Zap singleton con scoping por contexto.
//
// Inicialización (una vez en main.go):
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
//	defer logger.Sync()
//
// En services/controllers:
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("Login"))
//	log.Info("login successful", logger.IdentityID(id), logger.DeviceID(did))
//
// El middleware de logging inyecta un logger con request_id, method y path;
// RequireAuth agrega identity_id y device_id una vez validado el token.
package logger
