package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"blogpost/internal/types"
)

const flashCookie = "flash"

// flash queues a one-time message for the next rendered page.
func (s *Server) flash(w http.ResponseWriter, r *http.Request, category, message string) {
	flashes := append(readFlashes(r), types.Flash{Category: category, Message: message})
	b, err := json.Marshal(flashes)
	if err != nil {
		s.logger.Errorw("Failed to encode flash", "error", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(b),
		Path:     "/",
		HttpOnly: true,
		Secure:   !s.cfg.IsDev(),
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlashes returns the queued messages and clears them.
func (s *Server) popFlashes(w http.ResponseWriter, r *http.Request) []types.Flash {
	flashes := readFlashes(r)
	if flashes == nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	return flashes
}

func readFlashes(r *http.Request) []types.Flash {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	b, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var flashes []types.Flash
	if err := json.Unmarshal(b, &flashes); err != nil {
		return nil
	}
	return flashes
}
