package ws

import (
	"context"
	"net/http"

	"edu_arcade/internal/domain"
	"edu_arcade/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type joinQuery struct {
	Game   string `form:"game" binding:"omitempty,oneof=trivia board_race debate"`
	Room   string `form:"room" binding:"omitempty,alphanum,max=32"`
	Player string `form:"player" binding:"omitempty,max=64"`
	Name   string `form:"name" binding:"omitempty,max=40"`
}

// HandleWS upgrades /ws?game=&room=&player=&name= and hands the connection
// to the hub. An empty allowedOrigin accepts every origin.
func HandleWS(hub *Hub, allowedOrigin string) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}

	return func(c *gin.Context) {
		var q joinQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		kind := domain.Kind(q.Game)
		if kind == "" {
			kind = domain.KindTrivia
		}
		if q.Player == "" {
			q.Player = uuid.NewString()
		}
		if q.Name == "" {
			q.Name = "Player"
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			hub.log.Warn("ws upgrade error", "err", err)
			return
		}

		client := NewClient(q.Player, q.Name, conn, hub)
		ctx := logger.NewContext(context.WithoutCancel(c.Request.Context()), hub.log.With("remote", c.ClientIP()))
		go client.Run(ctx, kind, q.Room)
	}
}
