package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-rooms/transport/rest"
)

const requestTimeout = 5 * time.Second

// API is the synchronization endpoint surface the session talks to.
type API interface {
	CreateRoom(ctx context.Context) (rest.SeatResponse, error)
	JoinRoom(ctx context.Context, code string) (rest.SeatResponse, error)
	RoomState(ctx context.Context, code string) (rest.RoomStateResponse, error)
	MakeMove(ctx context.Context, code string, mark tictactoe.Mark, index int) (rest.MoveResponse, error)
	ResetRoom(ctx context.Context, code string, mark, startMark tictactoe.Mark) (rest.RoomStateResponse, error)
	Ready(ctx context.Context, code string, mark tictactoe.Mark) error
	LeaveRoom(ctx context.Context, code string, mark tictactoe.Mark) error
}

type httpAPI struct {
	baseURL string
	client  *http.Client
}

func NewHTTPAPI(baseURL string, client *http.Client) API {
	if client == nil {
		client = &http.Client{Timeout: requestTimeout}
	}

	return &httpAPI{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// ServerError is a rejection reported by the server. It unwraps to the matching apperror sentinel.
type ServerError struct {
	Status  int
	Code    string
	Message string
}

func (that *ServerError) Error() string {
	return fmt.Sprintf("server rejected request (%d %s): %s", that.Status, that.Code, that.Message)
}

func (that *ServerError) Unwrap() error {
	return rest.ErrorFromCode(that.Code)
}

func (that *httpAPI) CreateRoom(ctx context.Context) (rest.SeatResponse, error) {
	var out rest.SeatResponse
	err := that.do(ctx, http.MethodPost, "/api/create_room", struct{}{}, &out)

	return out, err
}

func (that *httpAPI) JoinRoom(ctx context.Context, code string) (rest.SeatResponse, error) {
	var out rest.SeatResponse
	err := that.do(ctx, http.MethodPost, "/api/join_room", rest.JoinRoomRequest{RoomID: code}, &out)

	return out, err
}

func (that *httpAPI) RoomState(ctx context.Context, code string) (rest.RoomStateResponse, error) {
	var out rest.RoomStateResponse
	err := that.do(ctx, http.MethodGet, "/api/room_state/"+url.PathEscape(code), nil, &out)

	return out, err
}

func (that *httpAPI) MakeMove(ctx context.Context, code string, mark tictactoe.Mark, index int) (rest.MoveResponse, error) {
	var out rest.MoveResponse
	err := that.do(ctx, http.MethodPost, "/api/make_move", rest.MoveRequest{RoomID: code, Mark: mark, Index: &index}, &out)

	return out, err
}

func (that *httpAPI) ResetRoom(ctx context.Context, code string, mark, startMark tictactoe.Mark) (rest.RoomStateResponse, error) {
	var out rest.RoomStateResponse
	err := that.do(ctx, http.MethodPost, "/api/reset_room", rest.ResetRequest{RoomID: code, Mark: mark, StartMark: startMark}, &out)

	return out, err
}

func (that *httpAPI) Ready(ctx context.Context, code string, mark tictactoe.Mark) error {
	return that.do(ctx, http.MethodPost, "/api/ready", rest.MarkRequest{RoomID: code, Mark: mark}, &rest.OKResponse{})
}

func (that *httpAPI) LeaveRoom(ctx context.Context, code string, mark tictactoe.Mark) error {
	return that.do(ctx, http.MethodPost, "/api/leave_room", rest.MarkRequest{RoomID: code, Mark: mark}, &rest.OKResponse{})
}

func (that *httpAPI) do(ctx context.Context, method, path string, body, out any) error {
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, that.baseURL+path, &payload)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := that.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var rejected rest.ErrorResponse
		if err = json.NewDecoder(resp.Body).Decode(&rejected); err != nil {
			return &ServerError{Status: resp.StatusCode, Code: rest.CodeInternal, Message: resp.Status}
		}

		return &ServerError{Status: resp.StatusCode, Code: rejected.Code, Message: rejected.Error}
	}

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
