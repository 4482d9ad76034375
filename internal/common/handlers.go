package common

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type StatusResponse struct {
	Uptime    string `json:"uptime"`
	Database  string `json:"database"`
	StartedAt string `json:"startedAt"`
}

// Pinger is satisfied by *sql.DB
type Pinger interface {
	Ping() error
}

var startTime = time.Now()

func uptime() time.Duration {
	return time.Since(startTime)
}

// RegisterRoutes mounts the global, unauthenticated endpoints
func RegisterRoutes(rg *gin.RouterGroup, db Pinger) {
	rg.GET("/status", Status(db))
}

// Status reports process uptime and whether the database answers a ping
func Status(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		data := StatusResponse{
			Uptime:    uptime().Truncate(time.Second).String(),
			Database:  "ok",
			StartedAt: startTime.Format(time.RFC3339),
		}
		status := http.StatusOK
		if db != nil {
			if err := db.Ping(); err != nil {
				data.Database = "unavailable"
				status = http.StatusServiceUnavailable
			}
		}
		Respond(c, status, data)
	}
}

/*
This project is the monolithic backend API for the campus services team.
API Copyright (C) 2025 OpenSourceDUTH
    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
