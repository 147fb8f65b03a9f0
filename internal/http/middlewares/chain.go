package middlewares

import "net/http"

// Middleware es un decorador de http.Handler. Un Middleware nil significa
// "deshabilitado" (ej: rate limit sin backend) y se omite al encadenar.
type Middleware func(http.Handler) http.Handler

// Chain aplica middlewares en orden de izquierda a derecha, salteando los nil.
// Chain(h, A, B, C) ejecuta: A -> B -> C -> h
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			h = mws[i](h)
		}
	}
	return h
}

// Stack filtra los nil y adapta al tipo que espera chi.Router.Use.
func Stack(mws ...Middleware) []func(http.Handler) http.Handler {
	out := make([]func(http.Handler) http.Handler, 0, len(mws))
	for _, m := range mws {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}
