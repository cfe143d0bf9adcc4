package route

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
)

const webDist = "./web/dist"

// setWebRouter serves the built frontend when it has been deployed next to
// the binary. The SPA owns every non-/api path.
func setWebRouter(route *gin.Engine) {
	route.Use(static.Serve("/", static.LocalFile(webDist, false)))
	route.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "API route not found",
			})
			return
		}
		c.File(webDist + "/index.html")
	})
}
