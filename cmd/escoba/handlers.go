package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/resenapp/escoba/moderation"

	"github.com/labstack/echo/v4"
)

// Pub/Sub push delivery wrapper; the payload proper is base64 in message.data.
type pushEnvelope struct {
	Message struct {
		Data      []byte `json:"data"`
		MessageID string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// decodeEventBody accepts either a bare JSON event or a Pub/Sub push envelope
// wrapping one.
func decodeEventBody(c echo.Context, v any) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return fmt.Errorf("reading event body: %w", err)
	}
	var env pushEnvelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.Message.Data) > 0 {
		body = env.Message.Data
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("parsing event payload: %w", err)
	}
	return nil
}

// HandleStorageFinalize ingests one "object finalized" notification. A non-2xx
// response tells the delivery infrastructure to redeliver, so only real processing
// failures map to 500; malformed payloads are a 400 (retrying them cannot help).
func (srv *Server) HandleStorageFinalize(c echo.Context) error {
	var evt moderation.StorageObjectEvent
	if err := decodeEventBody(c, &evt); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if evt.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing object name")
	}
	if err := srv.engine.ProcessObjectFinalize(c.Request().Context(), evt); err != nil {
		srv.logger.Error("storage event processing failed", "path", evt.Name, "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "event processing failed")
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleUserUpdate ingests one user-document update with before/after snapshots.
func (srv *Server) HandleUserUpdate(c echo.Context) error {
	var evt moderation.UserStateEvent
	if err := decodeEventBody(c, &evt); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if evt.UserID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing user id")
	}
	if err := srv.engine.ProcessUserUpdate(c.Request().Context(), evt); err != nil {
		srv.logger.Error("user event processing failed", "userId", evt.UserID, "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "event processing failed")
	}
	return c.NoContent(http.StatusNoContent)
}
