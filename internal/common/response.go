package common

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// APIVersion is reported in every response envelope
const APIVersion = "v0"

// HeaderRequestID carries a caller supplied request id through the envelope
const HeaderRequestID = "X-Request-ID"

type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	RequestID string    `json:"requestId"`
}

type APIResponse struct {
	Data     interface{} `json:"data"`
	Errors   []string    `json:"errors"`
	Metadata Metadata    `json:"metadata"`
}

func CreateAPIResponse(data interface{}, errors []string, requestID string) APIResponse {
	// A blank requestID means nothing upstream assigned one
	if requestID == "" {
		requestID = uuid.New().String()
	}
	if errors == nil {
		errors = []string{}
	}
	return APIResponse{
		Data:   data,
		Errors: errors,
		Metadata: Metadata{
			Timestamp: time.Now(),
			Version:   APIVersion,
			RequestID: requestID,
		},
	}
}

func CreateSuccessResponse(data interface{}) APIResponse {
	return CreateAPIResponse(data, []string{}, "")
}

func CreateErrorResponse(errors []string) APIResponse {
	return CreateAPIResponse(nil, errors, "")
}

// Respond writes a success envelope, reusing the request id header if present
func Respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, CreateAPIResponse(data, nil, c.GetHeader(HeaderRequestID)))
}

// RespondError writes an error envelope with a single message
func RespondError(c *gin.Context, status int, message string) {
	c.JSON(status, CreateAPIResponse(nil, []string{message}, c.GetHeader(HeaderRequestID)))
}

// AbortWithError writes an error envelope and stops the handler chain
func AbortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, CreateAPIResponse(nil, []string{message}, c.GetHeader(HeaderRequestID)))
}

//This project is the monolithic backend API for the campus services team.
//API Copyright (C) 2025 OpenSourceDUTH
//This program is free software: you can redistribute it and/or modify
//it under the terms of the GNU General Public License as published by
//the Free Software Foundation, either version 3 of the License, or
//(at your option) any later version.
//
//This program is distributed in the hope that it will be useful,
//but WITHOUT ANY WARRANTY; without even the implied warranty of
//MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
//GNU General Public License for more details.
//
//You should have received a copy of the GNU General Public License
//along with this program.  If not, see <https://www.gnu.org/licenses/>.
