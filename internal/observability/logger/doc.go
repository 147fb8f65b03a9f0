// Package logger provee un logger Zap singleton con scoping por contexto.
//
//   - Singleton: una sola instancia inicializada con Init() en main.
//   - Context scoping: los middlewares inyectan un logger con request_id y
//     client_ip; los handlers lo recuperan con From(ctx).
//   - Environments: "dev" usa consola con colores, "prod" usa JSON.
//
// Los componentes de seguridad (peer, csrf, signedtoken, rotation) no usan el
// singleton: reciben un *zap.Logger explícito o no loguean.
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
//	defer logger.Sync()
//
//	log := logger.From(ctx)
//	log.Warn("csrf rejected", logger.Reason(d.Code.String()))
package logger
