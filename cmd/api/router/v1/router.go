package v1

import (
	"github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/chat/presentation/controller"
	httpHandler "github.com/PivnoyFei/task-for-mango-fzco/internal/pkg/chat/presentation/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts all version 1 API routes under /api/v1
func RegisterRoutes(r *gin.Engine, deps controller.RoomSocketDeps) {
	v1 := r.Group("/api/v1")
	httpHandler.RegisterRoutes(v1, deps)
}
