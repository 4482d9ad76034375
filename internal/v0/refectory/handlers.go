package refectory

import (
	"net/http"
	"strings"

	"campus/internal/auth"
	"campus/internal/common"
	pagination "campus/internal/v0/common"

	"github.com/gin-gonic/gin"
)

// Handler exposes the lifecycle engine over HTTP
type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

func respondErr(c *gin.Context, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		common.RespondError(c, status, ErrInternal.Error())
		return
	}
	common.RespondError(c, status, err.Error())
}

// List handles GET /refectory?page=&perPage=&vigencyDate=&status=
func (h *Handler) List(c *gin.Context) {
	perPage := c.Query("perPage")
	if perPage == "" {
		perPage = c.Query("resPerPage")
	}
	p := pagination.ParsePagination(c.Query("page"), perPage)

	var filter ListFilter
	if raw := strings.TrimSpace(c.Query("vigencyDate")); raw != "" {
		d, err := ParseDate(raw)
		if err != nil {
			common.RespondError(c, http.StatusBadRequest, err.Error())
			return
		}
		filter.VigencyDate = &d
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		s := Status(raw)
		filter.Status = &s
	}

	page, err := h.engine.List(c.Request.Context(), filter, p)
	if err != nil {
		respondErr(c, err)
		return
	}
	common.Respond(c, http.StatusOK, page)
}

func (h *Handler) Current(c *gin.Context) {
	user := auth.GetUserFromContext(c)
	current, err := h.engine.Current(c.Request.Context(), user.ID)
	if err != nil {
		respondErr(c, err)
		return
	}
	common.Respond(c, http.StatusOK, current)
}

func (h *Handler) CurrentAnswers(c *gin.Context) {
	reports, err := h.engine.Reports(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	common.Respond(c, http.StatusOK, reports)
}

func (h *Handler) Get(c *gin.Context) {
	f, err := h.engine.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	common.Respond(c, http.StatusOK, f)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateFormsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}
	forms, err := h.engine.Create(c.Request.Context(), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	common.Respond(c, http.StatusCreated, gin.H{"list": forms})
}

func (h *Handler) SubmitAnswer(c *gin.Context) {
	var meals Meals
	if err := c.ShouldBindJSON(&meals); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}
	user := auth.GetUserFromContext(c)
	answer, err := h.engine.SubmitAnswer(c.Request.Context(), user.ID, c.Param("id"), meals)
	if err != nil {
		respondErr(c, err)
		return
	}
	common.Respond(c, http.StatusCreated, answer)
}

func (h *Handler) Update(c *gin.Context) {
	var req UpdateFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}
	f, err := h.engine.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	common.Respond(c, http.StatusOK, gin.H{"refectoryId": f.ID, "refectory": f})
}

func (h *Handler) UpdateMenuURL(c *gin.Context) {
	var req UpdateMenuURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}
	n, err := h.engine.UpdateMenuURL(c.Request.Context(), req.MenuURL)
	if err != nil {
		respondErr(c, err)
		return
	}
	common.Respond(c, http.StatusOK, gin.H{"updated": n})
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.engine.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	common.Respond(c, http.StatusOK, gin.H{"refectoryId": c.Param("id")})
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
