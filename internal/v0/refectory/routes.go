package refectory

import (
	"campus/internal/auth"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(rg *gin.RouterGroup, h *Handler, authMiddleware *auth.Middleware) {
	manager := authMiddleware.RequireRole(auth.RoleRefectoryManager)

	refectory := rg.Group("/refectory")
	refectory.Use(authMiddleware.RequireToken())
	{
		refectory.GET("", h.List)
		refectory.GET("/current", h.Current)
		refectory.GET("/current/answers", manager, h.CurrentAnswers)
		refectory.GET("/:id", h.Get)
		refectory.POST("/:id/answers", h.SubmitAnswer)

		refectory.POST("", manager, h.Create)
		refectory.PATCH("/:id", manager, h.Update)
		refectory.PUT("/menu-url", manager, h.UpdateMenuURL)
		refectory.DELETE("/:id", manager, h.Delete)
	}
}

//   This project is the monolithic backend API for the campus services team.
//   API Copyright (C) 2025 OpenSourceDUTH
//       This program is free software: you can redistribute it and/or modify
//       it under the terms of the GNU General Public License as published by
//       the Free Software Foundation, either version 3 of the License, or
//       (at your option) any later version.

//       This program is distributed in the hope that it will be useful,
//       but WITHOUT ANY WARRANTY; without even the implied warranty of
//       MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
//       GNU General Public License for more details.

//       You should have received a copy of the GNU General Public License
//       along with this program.  If not, see <https://www.gnu.org/licenses/>.
