package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
)

// Wire codes for rejected requests. The client maps them back to apperror sentinels.
const (
	CodeRoomNotFound  = "room_not_found"
	CodeRoomFull      = "room_full"
	CodeNotYourTurn   = "not_your_turn"
	CodeCellOccupied  = "cell_occupied"
	CodeRoomNotActive = "room_not_active"
	CodeNotPermitted  = "not_permitted"
	CodeIllegalMove   = "illegal_move"
	CodeBadRequest    = "bad_request"
	CodeInternal      = "internal"
)

var errorCodes = []struct {
	err    error
	status int
	code   string
}{
	{apperror.ErrRoomNotFound, http.StatusNotFound, CodeRoomNotFound},
	{apperror.ErrRoomFull, http.StatusConflict, CodeRoomFull},
	{apperror.ErrNotYourTurn, http.StatusConflict, CodeNotYourTurn},
	{apperror.ErrCellOccupied, http.StatusConflict, CodeCellOccupied},
	{apperror.ErrRoomNotActive, http.StatusConflict, CodeRoomNotActive},
	{apperror.ErrNotPermitted, http.StatusForbidden, CodeNotPermitted},
	{apperror.ErrInvalidCell, http.StatusBadRequest, CodeIllegalMove},
	{apperror.ErrInvalidMark, http.StatusBadRequest, CodeIllegalMove},
}

// ErrorFromCode is the inverse of the mapping used by writeError.
func ErrorFromCode(code string) error {
	for _, known := range errorCodes {
		if known.code == code {
			return known.err
		}
	}

	return nil
}

func (that *roomHandler) writeError(c *gin.Context, err error) {
	for _, known := range errorCodes {
		if errors.Is(err, known.err) {
			c.JSON(known.status, ErrorResponse{Error: err.Error(), Code: known.code})
			return
		}
	}

	that.logger.Error("request failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: CodeInternal})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeBadRequest})
}
