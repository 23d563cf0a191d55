package http

import (
	"github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/chat/presentation/controller"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers chat-related endpoints under the given router group.
// The websocket endpoint is the realtime entrypoint: room resolution, identity
// resolution, and admission all happen inside the session controller.
func RegisterRoutes(g *gin.RouterGroup, deps controller.RoomSocketDeps) {
	socketCtl := controller.NewRoomSocketController(deps)

	// GET /api/v1/chat/ws/:roomName -> websocket endpoint for realtime chat
	g.GET("/chat/ws/:roomName", socketCtl.Handle())
}
