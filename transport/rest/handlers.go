package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/presenter"
)

var ErrCellRequired = errors.New("cell is required")

type moveRequest struct {
	Cell *int `json:"cell"`
}

type gameResponse struct {
	Game    entity.Game `json:"game"`
	Message string      `json:"message"`
	Error   string      `json:"error,omitempty"`
}

func newGameResponse(game entity.Game) gameResponse {
	return gameResponse{
		Game:    game,
		Message: presenter.StatusText(game),
	}
}

func (that *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		that.logger.Error("failed to write ping response", "error", err)
	}
}

func (that *Server) handleGetGame(w http.ResponseWriter, _ *http.Request) {
	that.writeJSON(w, http.StatusOK, newGameResponse(that.game.Snapshot()))
}

func (that *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Cell == nil {
		that.writeError(w, http.StatusBadRequest, ErrCellRequired.Error())
		return
	}

	result := that.game.ApplyMove(*req.Cell)

	resp := newGameResponse(result.Game)
	if !result.Accepted {
		resp.Error = result.Reason.Error()
		that.writeJSON(w, http.StatusConflict, resp)
		return
	}

	that.writeJSON(w, http.StatusOK, resp)
}

func (that *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	that.writeJSON(w, http.StatusOK, newGameResponse(that.game.Reset()))
}

func (that *Server) writeError(w http.ResponseWriter, status int, message string) {
	resp := newGameResponse(that.game.Snapshot())
	resp.Error = message

	that.writeJSON(w, status, resp)
}

func (that *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to encode response", "error", err)
	}
}
