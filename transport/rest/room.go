package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
)

type RoomHandler interface {
	CreateRoom(c *gin.Context)
	JoinRoom(c *gin.Context)
	RoomState(c *gin.Context)
	MakeMove(c *gin.Context)
	ResetRoom(c *gin.Context)
	Ready(c *gin.Context)
	LeaveRoom(c *gin.Context)
}

type roomService interface {
	CreateRoom(ctx context.Context) (*entity.Room, tictactoe.Mark, error)
	JoinRoom(ctx context.Context, code string) (*entity.Room, tictactoe.Mark, error)
	GetRoom(ctx context.Context, code string) (*entity.Room, error)
	MakeMove(ctx context.Context, code string, mark tictactoe.Mark, index int) (*entity.Room, error)
	Rematch(ctx context.Context, code string, mark, startMark tictactoe.Mark) (*entity.Room, error)
	Ready(ctx context.Context, code string, mark tictactoe.Mark) (*entity.Room, error)
	Leave(ctx context.Context, code string, mark tictactoe.Mark) (*entity.Room, error)
}

type roomHandler struct {
	logger *slog.Logger

	rooms roomService
}

func NewRoomHandler(logger *slog.Logger, rooms roomService) RoomHandler {
	return &roomHandler{
		logger: logger.With("component", "room-handler"),
		rooms:  rooms,
	}
}

func (that *roomHandler) CreateRoom(c *gin.Context) {
	room, mark, err := that.rooms.CreateRoom(c.Request.Context())
	if err != nil {
		that.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, SeatResponse{RoomID: room.Code, YouAre: mark})
}

func (that *roomHandler) JoinRoom(c *gin.Context) {
	var req JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	room, mark, err := that.rooms.JoinRoom(c.Request.Context(), req.RoomID)
	if err != nil {
		that.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, SeatResponse{RoomID: room.Code, YouAre: mark})
}

func (that *roomHandler) RoomState(c *gin.Context) {
	room, err := that.rooms.GetRoom(c.Request.Context(), c.Param("room_id"))
	if err != nil {
		that.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toRoomState(room))
}

func (that *roomHandler) MakeMove(c *gin.Context) {
	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	mark, err := tictactoe.ParseMark(string(req.Mark))
	if err != nil {
		that.writeError(c, err)
		return
	}

	room, err := that.rooms.MakeMove(c.Request.Context(), req.RoomID, mark, *req.Index)
	if err != nil {
		that.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toMoveResponse(room))
}

// ResetRoom answers with the new game, or with the closed room when the opponent is gone.
func (that *roomHandler) ResetRoom(c *gin.Context) {
	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	mark, err := tictactoe.ParseMark(string(req.Mark))
	if err != nil {
		that.writeError(c, err)
		return
	}

	startMark := tictactoe.Empty
	if req.StartMark != tictactoe.Empty {
		if startMark, err = tictactoe.ParseMark(string(req.StartMark)); err != nil {
			that.writeError(c, err)
			return
		}
	}

	room, err := that.rooms.Rematch(c.Request.Context(), req.RoomID, mark, startMark)
	if err != nil {
		that.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toRoomState(room))
}

func (that *roomHandler) Ready(c *gin.Context) {
	var req MarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	mark, err := tictactoe.ParseMark(string(req.Mark))
	if err != nil {
		that.writeError(c, err)
		return
	}

	if _, err = that.rooms.Ready(c.Request.Context(), req.RoomID, mark); err != nil {
		that.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, OKResponse{OK: true})
}

func (that *roomHandler) LeaveRoom(c *gin.Context) {
	var req MarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	mark, err := tictactoe.ParseMark(string(req.Mark))
	if err != nil {
		that.writeError(c, err)
		return
	}

	if _, err = that.rooms.Leave(c.Request.Context(), req.RoomID, mark); err != nil {
		that.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, OKResponse{OK: true})
}
