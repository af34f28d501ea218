package http

import (
	nethttp "net/http"
)

type healthBody struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

// SessionCounter reports how many page lifetimes are live.
type SessionCounter interface {
	Len() int
}

// HealthHandler reports liveness and the number of live sessions.
func HealthHandler(sc SessionCounter) nethttp.Handler {
	return nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		body := healthBody{Status: "ok"}
		if sc != nil {
			body.Sessions = sc.Len()
		}
		writeJSON(w, nethttp.StatusOK, body)
	})
}
